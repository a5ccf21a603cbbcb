package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"vigcrack/internal/pipeline"
	"vigcrack/pkg/contract"
	"vigcrack/pkg/registry"
)

// ErrInvalid: 配置静态校验失败（CLI 映射为配置类退出码）。
var ErrInvalid = errors.New("config")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate 对最小必要边界做静态校验。
func Validate(cfg Config) error {
	if len(cfg.Inputs) == 0 {
		return invalid("inputs empty")
	}
	// 输入路径不得为空字符串；"-" 不能与其他根混用
	dash := false
	for _, r := range cfg.Inputs {
		if strings.TrimSpace(r) == "" {
			return invalid("input path cannot be empty")
		}
		if strings.TrimSpace(r) == "-" {
			dash = true
		}
	}
	if dash && len(cfg.Inputs) > 1 {
		return invalid("'-' cannot be mixed with other roots")
	}
	if cfg.Concurrency < 1 {
		return invalid("concurrency must be >= 1")
	}
	if cfg.MinRepeatLen < 0 || cfg.MaxKeyLen < 0 || cfg.MinColumnLen < 0 {
		return invalid("search limits must be >= 0")
	}
	if cfg.MaxCandidates < 0 {
		return invalid("max_candidates must be >= 0")
	}
	if strings.TrimSpace(cfg.ProfilePath) == "" && strings.TrimSpace(cfg.Language) == "" {
		return invalid("language or profile_path required")
	}
	// 组件名若为空，使用默认名（由 Defaults() 提供）。此处只要最终有值即可。
	d := Defaults().Components
	checks := []struct {
		kind, name string
		ok         bool
	}{
		{"reader", effName(cfg.Components.Reader, d.Reader), registry.Reader[effName(cfg.Components.Reader, d.Reader)] != nil},
		{"normalizer", effName(cfg.Components.Normalizer, d.Normalizer), registry.Normalizer[effName(cfg.Components.Normalizer, d.Normalizer)] != nil},
		{"estimator", effName(cfg.Components.Estimator, d.Estimator), registry.Estimator[effName(cfg.Components.Estimator, d.Estimator)] != nil},
		{"solver", effName(cfg.Components.Solver, d.Solver), registry.Solver[effName(cfg.Components.Solver, d.Solver)] != nil},
		{"decryptor", effName(cfg.Components.Decryptor, d.Decryptor), registry.Decryptor[effName(cfg.Components.Decryptor, d.Decryptor)] != nil},
		{"ranker", effName(cfg.Components.Ranker, d.Ranker), registry.Ranker[effName(cfg.Components.Ranker, d.Ranker)] != nil},
		{"writer", effName(cfg.Components.Writer, d.Writer), registry.Writer[effName(cfg.Components.Writer, d.Writer)] != nil},
	}
	for _, c := range checks {
		if !c.ok {
			return invalid("%s %q not registered", c.kind, c.name)
		}
	}
	return nil
}

// Assemble 构造 Components 与 Settings（含已校验的语言分布与探索边界）。
// 严格 Options 解析在 registry （工厂）层进行；此处只传 raw JSON。
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	var comp pipeline.Components
	if err := Validate(cfg); err != nil {
		return comp, pipeline.Settings{}, err
	}
	d := Defaults().Components

	var err error
	if comp.Reader, err = registry.Reader[effName(cfg.Components.Reader, d.Reader)](cfg.Options.Reader); err != nil {
		return comp, pipeline.Settings{}, fmt.Errorf("reader: %w", err)
	}
	if comp.Normalizer, err = registry.Normalizer[effName(cfg.Components.Normalizer, d.Normalizer)](cfg.Options.Normalizer); err != nil {
		return comp, pipeline.Settings{}, fmt.Errorf("normalizer: %w", err)
	}
	if comp.Estimator, err = registry.Estimator[effName(cfg.Components.Estimator, d.Estimator)](cfg.Options.Estimator); err != nil {
		return comp, pipeline.Settings{}, fmt.Errorf("estimator: %w", err)
	}
	if comp.Solver, err = registry.Solver[effName(cfg.Components.Solver, d.Solver)](cfg.Options.Solver); err != nil {
		return comp, pipeline.Settings{}, fmt.Errorf("solver: %w", err)
	}
	if comp.Decryptor, err = registry.Decryptor[effName(cfg.Components.Decryptor, d.Decryptor)](cfg.Options.Decryptor); err != nil {
		return comp, pipeline.Settings{}, fmt.Errorf("decryptor: %w", err)
	}
	if comp.Ranker, err = registry.Ranker[effName(cfg.Components.Ranker, d.Ranker)](cfg.Options.Ranker); err != nil {
		return comp, pipeline.Settings{}, fmt.Errorf("ranker: %w", err)
	}
	if comp.Writer, err = registry.Writer[effName(cfg.Components.Writer, d.Writer)](cfg.Options.Writer); err != nil {
		return comp, pipeline.Settings{}, fmt.Errorf("writer: %w", err)
	}

	prof, err := loadProfile(cfg)
	if err != nil {
		return comp, pipeline.Settings{}, fmt.Errorf("profile: %w", err)
	}

	set := pipeline.Settings{
		Inputs:      cloneStrings(cfg.Inputs),
		Concurrency: cfg.Concurrency,
		Profile:     prof,
		Limit: contract.SearchLimit{
			MinRepeatLen:  cfg.MinRepeatLen,
			MaxKeyLen:     cfg.MaxKeyLen,
			MinColumnLen:  cfg.MinColumnLen,
			MaxCandidates: cfg.MaxCandidates,
		},
	}
	return comp, set, nil
}

// loadProfile: profile_path 优先（yaml），否则按 language 取内置表。
func loadProfile(cfg Config) (contract.Profile, error) {
	if p := strings.TrimSpace(cfg.ProfilePath); p != "" {
		raw, _ := json.Marshal(registry.YAMLOptions{Path: p})
		return registry.Profile["yaml"](raw)
	}
	raw, _ := json.Marshal(registry.BuiltinOptions{Lang: strings.TrimSpace(cfg.Language)})
	return registry.Profile["builtin"](raw)
}

func effName(got, def string) string {
	if got == "" {
		return def
	}
	return got
}
