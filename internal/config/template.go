package config

import "encoding/json"

// DefaultTemplateConfig 返回一个“可运行”的默认配置模板：
// - 默认输入为 STDIN（"-"），Writer 输出到 ./out 目录；
// - 语言为葡萄牙语内置表，探索边界取默认值；
// - 选项包含全部键并给出安全中性默认值。
func DefaultTemplateConfig() Config {
	d := Defaults()
	cfg := Config{
		Inputs:        []string{"-"},
		Concurrency:   d.Concurrency,
		Language:      d.Language,
		MinRepeatLen:  d.MinRepeatLen,
		MaxKeyLen:     d.MaxKeyLen,
		MinColumnLen:  d.MinColumnLen,
		MaxCandidates: 0,
		Logging:       Logging{Level: "info", Dir: "logs", Keep: 5},
		Components:    d.Components,
	}
	cfg.Options.Reader = json.RawMessage(`{
  "buf_size": 65536,
  "exclude_dir_names": [".git", "node_modules", "vendor"],
  "extensions": [],
  "max_bytes": 0
}`)
	cfg.Options.Normalizer = json.RawMessage(`{
  "fold_diacritics": false
}`)
	cfg.Options.Estimator = json.RawMessage(`{
  "top": 10,
  "extra_ngram_sizes": [],
  "threshold": 2,
  "ngram_thresholds": {}
}`)
	cfg.Options.Solver = json.RawMessage(`{
  "parallel_positions": false
}`)
	// vigenere 无配置项，保持空对象
	cfg.Options.Decryptor = json.RawMessage(`{}`)
	cfg.Options.Ranker = json.RawMessage(`{
  "tolerance": 1e-9
}`)
	cfg.Options.Writer = json.RawMessage(`{
  "output_dir": "out",
  "atomic": true,
  "flat": true,
  "no_clobber": false,
  "perm_file": 0,
  "perm_dir": 0,
  "buf_size": 65536
}`)
	return cfg
}
