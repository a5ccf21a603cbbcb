package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"vigcrack/pkg/contract"
)

// 解析完整 config.json
func TestLoadJSON(t *testing.T) {
	cfg, err := LoadJSON("../../testdata/config/basic.json", nil)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if cfg.Language != "en" || cfg.MaxKeyLen != 20 || cfg.Concurrency != 2 {
		t.Fatalf("字段映射错误: %+v", cfg)
	}
	if len(cfg.Inputs) != 1 || cfg.Components.Reader != "fs" {
		t.Fatalf("字段映射错误: %+v", cfg)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("校验失败: %v", err)
	}
}

// 含非法字段
func TestLoadJSONUnknown(t *testing.T) {
	if _, err := LoadJSON("", []byte(`{"unknown":1}`)); err == nil {
		t.Fatalf("应当返回错误")
	}
	if _, err := LoadJSON("", nil); err == nil {
		t.Fatalf("无来源应当返回错误")
	}
}

// 未出现的 max_candidates 不覆盖默认值；显式 0 生效
func TestLoadJSONMaxCandidatesUnset(t *testing.T) {
	over, err := LoadJSON("", []byte(`{"inputs":["x"]}`))
	require.NoError(t, err)
	require.Equal(t, -1, over.MaxCandidates)

	base := Defaults()
	base.MaxCandidates = 4
	require.Equal(t, 4, Merge(base, over).MaxCandidates)

	over, err = LoadJSON("", []byte(`{"max_candidates":0}`))
	require.NoError(t, err)
	require.Equal(t, 0, Merge(base, over).MaxCandidates)
}

// ENV 覆盖部分字段
func TestEnvOverlay(t *testing.T) {
	env := []string{
		"VIGCRACK_INPUTS=a,b",
		"VIGCRACK_CONCURRENCY=3",
		"VIGCRACK_LANGUAGE=en",
		"VIGCRACK_MAX_KEY_LEN=12",
		"VIGCRACK_MAX_CANDIDATES=0",
		"VIGCRACK_LOG_LEVEL=debug",
		"VIGCRACK_COMPONENTS_READER=fs",
		`VIGCRACK_OPTIONS_WRITER_JSON={"output_dir":"o"}`,
		"VIGCRACK_PROFILE_PATH=",
		"OTHER_CONCURRENCY=9",
	}
	over, err := EnvOverlay(env)
	require.NoError(t, err)
	require.Equal(t, 3, over.Concurrency)
	require.Equal(t, []string{"a", "b"}, over.Inputs)
	require.Equal(t, "en", over.Language)
	require.Equal(t, 12, over.MaxKeyLen)
	require.Equal(t, 0, over.MaxCandidates)
	require.Equal(t, "debug", over.Logging.Level)
	require.Equal(t, "", over.ProfilePath)
	require.JSONEq(t, `{"output_dir":"o"}`, string(over.Options.Writer))
}

func TestEnvOverlayErrors(t *testing.T) {
	if _, err := EnvOverlay([]string{"VIGCRACK_CONCURRENCY=abc"}); err == nil {
		t.Fatalf("非数值应报错")
	}
	if _, err := EnvOverlay([]string{"VIGCRACK_OPTIONS_SOLVER_JSON={bad"}); err == nil {
		t.Fatalf("非法 JSON 应报错")
	}
}

// 合并：零值不覆盖，Options 整体替换
func TestMerge(t *testing.T) {
	base := Defaults()
	base.Options.Writer = json.RawMessage(`{"output_dir":"a","flat":false}`)
	over := Config{
		MaxCandidates: -1,
		Inputs:        []string{"x"},
		Language:      "en",
		Logging:       Logging{Keep: 3},
		Components:    Components{Solver: "  "},
		Options:       Options{Writer: json.RawMessage(`{"output_dir":"b"}`)},
	}
	got := Merge(base, over)
	require.Equal(t, []string{"x"}, got.Inputs)
	require.Equal(t, "en", got.Language)
	require.Equal(t, 1, got.Concurrency)
	require.Equal(t, "chisq", got.Components.Solver)
	require.Equal(t, "info", got.Logging.Level)
	require.Equal(t, 3, got.Logging.Keep)
	require.JSONEq(t, `{"output_dir":"b"}`, string(got.Options.Writer))
}

// 补充覆盖: splitComma 与 atoi
func TestSplitCommaAtoi(t *testing.T) {
	parts := splitComma("a, b , ,c")
	if len(parts) != 3 || parts[1] != "b" {
		t.Fatalf("splitComma 结果错误: %v", parts)
	}
	if v, err := atoi("10"); err != nil || v != 10 {
		t.Fatalf("atoi 失败: %v %d", err, v)
	}
	if splitComma("") != nil {
		t.Fatalf("空串应返回 nil")
	}
}

// 补充覆盖: Defaults 与 cloneRaw
func TestDefaultsClone(t *testing.T) {
	d := Defaults()
	if d.Components.Reader != "fs" || d.Components.Solver != "chisq" || d.Language != "pt" {
		t.Fatalf("默认值错误: %+v", d)
	}
	src := []byte("abc")
	dst := cloneRaw(src)
	src[0] = 'x'
	if string(dst) != "abc" {
		t.Fatalf("cloneRaw 未复制")
	}
}

// Validate 错误分支
func TestValidateErrors(t *testing.T) {
	ok := DefaultTemplateConfig()
	require.NoError(t, Validate(ok))

	cases := map[string]func(c *Config){
		"empty":        func(c *Config) { *c = Config{} },
		"blank input":  func(c *Config) { c.Inputs = []string{" "} },
		"dash mixed":   func(c *Config) { c.Inputs = []string{"-", "a"} },
		"concurrency":  func(c *Config) { c.Concurrency = 0 },
		"limits":       func(c *Config) { c.MaxKeyLen = -1 },
		"candidates":   func(c *Config) { c.MaxCandidates = -1 },
		"no language":  func(c *Config) { c.Language = "" },
		"reader name":  func(c *Config) { c.Components.Reader = "nope" },
		"solver name":  func(c *Config) { c.Components.Solver = "nope" },
		"ranker name":  func(c *Config) { c.Components.Ranker = "nope" },
		"writer name":  func(c *Config) { c.Components.Writer = "nope" },
		"decrypt name": func(c *Config) { c.Components.Decryptor = "nope" },
	}
	for name, mut := range cases {
		c := DefaultTemplateConfig()
		mut(&c)
		err := Validate(c)
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: 期望 ErrInvalid 实得 %v", name, err)
		}
	}
}

// 模板可直接装配
func TestAssembleTemplate(t *testing.T) {
	cfg := DefaultTemplateConfig()
	cfg.Options.Writer = json.RawMessage(`{"output_dir":"` + t.TempDir() + `"}`)
	comp, set, err := Assemble(cfg)
	require.NoError(t, err)
	require.NotNil(t, comp.Reader)
	require.NotNil(t, comp.Writer)
	require.NotNil(t, comp.Ranker)
	require.Equal(t, "portuguese", set.Profile.Name)
	require.Equal(t, 40, set.Limit.MaxKeyLen)
	require.Equal(t, []string{"-"}, set.Inputs)
}

// profile_path 优先于 language
func TestAssembleProfilePath(t *testing.T) {
	cfg := DefaultTemplateConfig()
	cfg.Options.Writer = json.RawMessage(`{"output_dir":"` + t.TempDir() + `"}`)
	cfg.ProfilePath = filepath.Join("..", "..", "testdata", "profiles", "en.yaml")
	cfg.Language = "pt"
	_, set, err := Assemble(cfg)
	require.NoError(t, err)
	require.Equal(t, "english", set.Profile.Name)
}

func TestAssembleErrors(t *testing.T) {
	cfg := DefaultTemplateConfig()
	cfg.Options.Writer = json.RawMessage(`{"output_dir":"` + t.TempDir() + `"}`)

	bad := cfg
	bad.Options.Solver = json.RawMessage(`{"bogus":true}`)
	_, _, err := Assemble(bad)
	require.Error(t, err)

	bad = cfg
	bad.Language = "xx"
	_, _, err = Assemble(bad)
	require.ErrorIs(t, err, contract.ErrInvalidInput)

	bad = cfg
	bad.ProfilePath = filepath.Join(t.TempDir(), "missing.yaml")
	_, _, err = Assemble(bad)
	require.Error(t, err)

	bad = cfg
	bad.Options.Writer = json.RawMessage(`{}`)
	_, _, err = Assemble(bad)
	require.ErrorIs(t, err, contract.ErrInvalidInput)
}

// 模板序列化后可被严格解析回读
func TestTemplateRoundTrip(t *testing.T) {
	b, err := json.MarshalIndent(DefaultTemplateConfig(), "", "  ")
	require.NoError(t, err)
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, b, 0o644))
	cfg, err := LoadJSON(p, nil)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))
}

func TestReadDotEnv(t *testing.T) {
	src := "# comment\n\nexport A=\"x\\ny\"\nB='raw\\n'\nC = plain \nbad line\n=nokey\nD=\"unterminated\nE=\"\"\n"
	got, err := ReadDotEnv(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, []string{"A=x\ny", `B=raw\n`, "C=plain", `D="unterminated`, "E="}, got)
}
