package config

import (
	"encoding/json"
)

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON 使用 snake_case；未知字段在解析期失败。
type Config struct {
	Inputs      []string `json:"inputs"`
	Concurrency int      `json:"concurrency"`

	// Language: 内置语言分布（pt|en）；ProfilePath 非空时被忽略。
	Language string `json:"language"`
	// ProfilePath: YAML 频率表路径，优先于 Language。
	ProfilePath string `json:"profile_path,omitempty"`

	// 探索边界；<=0 采用默认（3/40/10）。
	MinRepeatLen int `json:"min_repeat_len"`
	MaxKeyLen    int `json:"max_key_len"`
	MinColumnLen int `json:"min_column_len"`
	// MaxCandidates: 参与求解的候选数上限；0 表示全部。
	MaxCandidates int `json:"max_candidates"`

	Logging Logging `json:"logging"`

	// 组件名选择（空则使用默认名）。
	Components Components `json:"components"`

	// 各组件 Options 子树，原样 JSON 传入工厂。
	Options Options `json:"options"`
}

// Logging: 日志等级、目录与历史文件保留数。
type Logging struct {
	Level string `json:"level"`
	// Dir: 日志目录；空为 logs。
	Dir string `json:"dir,omitempty"`
	// Keep: 保留的轮转历史文件数；0 不清理。
	Keep int `json:"keep,omitempty"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader     string `json:"reader"`
	Normalizer string `json:"normalizer"`
	Estimator  string `json:"estimator"`
	Solver     string `json:"solver"`
	Decryptor  string `json:"decryptor"`
	Ranker     string `json:"ranker"`
	Writer     string `json:"writer"`
}

// Options: 各组件的原样 JSON Options。
type Options struct {
	Reader     json.RawMessage `json:"reader"`
	Normalizer json.RawMessage `json:"normalizer"`
	Estimator  json.RawMessage `json:"estimator"`
	Solver     json.RawMessage `json:"solver"`
	Decryptor  json.RawMessage `json:"decryptor"`
	Ranker     json.RawMessage `json:"ranker"`
	Writer     json.RawMessage `json:"writer"`
}
