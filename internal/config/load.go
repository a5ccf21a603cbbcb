package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"vigcrack/internal/budget"
)

// EnvPrefix: 环境变量前缀。
const EnvPrefix = "VIGCRACK_"

// Defaults 返回带有安全默认值的 Config 雏形。
func Defaults() Config {
	return Config{
		Concurrency:  1,
		Language:     "pt",
		MinRepeatLen: budget.DefaultMinRepeatLen,
		MaxKeyLen:    budget.DefaultMaxKeyLen,
		MinColumnLen: budget.DefaultMinColumnLen,
		Logging:      Logging{Level: "info"},
		Components: Components{
			Reader:     "fs",
			Normalizer: "alpha",
			Estimator:  "kasiski",
			Solver:     "chisq",
			Decryptor:  "vigenere",
			Ranker:     "fitness",
			Writer:     "fs",
		},
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
// 未出现的 max_candidates 记为 -1（未覆盖），以区分显式 0。
func LoadJSON(path string, raw []byte) (Config, error) {
	cfg := Config{MaxCandidates: -1}
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Merge 按优先级合并（后者覆盖前者）。
// 标量/字符串为替换，零值不覆盖；Options 按组件整体替换，不做深度合并。
// MaxCandidates 的 0 具有语义（全部），以 <0 表示未覆盖。
func Merge(base, over Config) Config {
	out := base
	if len(over.Inputs) > 0 {
		out.Inputs = cloneStrings(over.Inputs)
	}
	setInt(&out.Concurrency, over.Concurrency)
	setStr(&out.Language, over.Language)
	setStr(&out.ProfilePath, over.ProfilePath)
	setInt(&out.MinRepeatLen, over.MinRepeatLen)
	setInt(&out.MaxKeyLen, over.MaxKeyLen)
	setInt(&out.MinColumnLen, over.MinColumnLen)
	if over.MaxCandidates >= 0 {
		out.MaxCandidates = over.MaxCandidates
	}

	setStr(&out.Logging.Level, over.Logging.Level)
	setStr(&out.Logging.Dir, over.Logging.Dir)
	setInt(&out.Logging.Keep, over.Logging.Keep)

	setStr(&out.Components.Reader, over.Components.Reader)
	setStr(&out.Components.Normalizer, over.Components.Normalizer)
	setStr(&out.Components.Estimator, over.Components.Estimator)
	setStr(&out.Components.Solver, over.Components.Solver)
	setStr(&out.Components.Decryptor, over.Components.Decryptor)
	setStr(&out.Components.Ranker, over.Components.Ranker)
	setStr(&out.Components.Writer, over.Components.Writer)

	setRaw(&out.Options.Reader, over.Options.Reader)
	setRaw(&out.Options.Normalizer, over.Options.Normalizer)
	setRaw(&out.Options.Estimator, over.Options.Estimator)
	setRaw(&out.Options.Solver, over.Options.Solver)
	setRaw(&out.Options.Decryptor, over.Options.Decryptor)
	setRaw(&out.Options.Ranker, over.Options.Ranker)
	setRaw(&out.Options.Writer, over.Options.Writer)
	return out
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setStr(dst *string, v string) {
	if t := strings.TrimSpace(v); t != "" {
		*dst = t
	}
}

func setRaw(dst *json.RawMessage, v json.RawMessage) {
	if len(v) > 0 {
		*dst = cloneRaw(v)
	}
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合，前缀 VIGCRACK_）。
// 支持：INPUTS, CONCURRENCY, LANGUAGE, PROFILE_PATH, MIN_REPEAT_LEN, MAX_KEY_LEN,
// MIN_COLUMN_LEN, MAX_CANDIDATES, LOG_LEVEL, LOG_DIR, COMPONENTS_*, OPTIONS_*_JSON。
// 数值无法解析时报错。
func EnvOverlay(environ []string) (Config, error) {
	over := Config{MaxCandidates: -1}
	ints := map[string]*int{
		"CONCURRENCY":    &over.Concurrency,
		"MIN_REPEAT_LEN": &over.MinRepeatLen,
		"MAX_KEY_LEN":    &over.MaxKeyLen,
		"MIN_COLUMN_LEN": &over.MinColumnLen,
		"MAX_CANDIDATES": &over.MaxCandidates,
		"LOG_KEEP":       &over.Logging.Keep,
	}
	strs := map[string]*string{
		"LANGUAGE":              &over.Language,
		"PROFILE_PATH":          &over.ProfilePath,
		"LOG_LEVEL":             &over.Logging.Level,
		"LOG_DIR":               &over.Logging.Dir,
		"COMPONENTS_READER":     &over.Components.Reader,
		"COMPONENTS_NORMALIZER": &over.Components.Normalizer,
		"COMPONENTS_ESTIMATOR":  &over.Components.Estimator,
		"COMPONENTS_SOLVER":     &over.Components.Solver,
		"COMPONENTS_DECRYPTOR":  &over.Components.Decryptor,
		"COMPONENTS_RANKER":     &over.Components.Ranker,
		"COMPONENTS_WRITER":     &over.Components.Writer,
	}
	raws := map[string]*json.RawMessage{
		"OPTIONS_READER_JSON":     &over.Options.Reader,
		"OPTIONS_NORMALIZER_JSON": &over.Options.Normalizer,
		"OPTIONS_ESTIMATOR_JSON":  &over.Options.Estimator,
		"OPTIONS_SOLVER_JSON":     &over.Options.Solver,
		"OPTIONS_DECRYPTOR_JSON":  &over.Options.Decryptor,
		"OPTIONS_RANKER_JSON":     &over.Options.Ranker,
		"OPTIONS_WRITER_JSON":     &over.Options.Writer,
	}
	for _, kv := range environ {
		if !strings.HasPrefix(kv, EnvPrefix) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(EnvPrefix) {
			continue
		}
		key, val := kv[len(EnvPrefix):eq], strings.TrimSpace(kv[eq+1:])
		if val == "" {
			// 空值视为未设置，避免清空 config.json
			continue
		}
		switch {
		case key == "INPUTS":
			over.Inputs = splitComma(val)
		case ints[key] != nil:
			v, err := atoi(val)
			if err != nil {
				return over, fmt.Errorf("env %s%s: %w", EnvPrefix, key, err)
			}
			*ints[key] = v
		case strs[key] != nil:
			*strs[key] = val
		case raws[key] != nil:
			if !json.Valid([]byte(val)) {
				return over, fmt.Errorf("env %s%s: invalid JSON", EnvPrefix, key)
			}
			*raws[key] = json.RawMessage(val)
		}
	}
	return over, nil
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func atoi(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n)
	if err != nil {
		return 0, err
	}
	return n, nil
}
