package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"vigcrack/pkg/contract"
)

// TestStrictUnmarshal 验证严格解码逻辑。
func TestStrictUnmarshal(t *testing.T) {
	type opt struct {
		A int `json:"a"`
	}
	var o opt
	if err := strictUnmarshal(nil, &o); err != nil || o.A != 0 {
		t.Fatalf("nil 输入失败: %v", err)
	}
	if err := strictUnmarshal(json.RawMessage(`{"a":1}`), &o); err != nil || o.A != 1 {
		t.Fatalf("合法 JSON 解析失败: %v", err)
	}
	if err := strictUnmarshal(json.RawMessage(`{"a":1,"b":2}`), &o); err == nil {
		t.Fatalf("未知字段应报错")
	}
}

// TestFactories 遍历注册表入口：空选项可构造，未知字段报错。
func TestFactories(t *testing.T) {
	good := json.RawMessage(`{}`)
	bad := json.RawMessage(`{"x":1}`)
	type factory func(json.RawMessage) (any, error)
	cases := map[string]factory{
		"reader":     func(r json.RawMessage) (any, error) { return Reader["fs"](r) },
		"normalizer": func(r json.RawMessage) (any, error) { return Normalizer["alpha"](r) },
		"estimator":  func(r json.RawMessage) (any, error) { return Estimator["kasiski"](r) },
		"solver":     func(r json.RawMessage) (any, error) { return Solver["chisq"](r) },
		"decryptor":  func(r json.RawMessage) (any, error) { return Decryptor["vigenere"](r) },
		"ranker":     func(r json.RawMessage) (any, error) { return Ranker["fitness"](r) },
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := f(good); err != nil {
				t.Fatalf("%s: %v", name, err)
			}
			if _, err := f(bad); err == nil {
				t.Fatalf("%s 未对未知字段报错", name)
			}
		})
	}
	t.Run("writer", func(t *testing.T) {
		tmp := t.TempDir()
		if _, err := Writer["fs"](json.RawMessage(fmt.Sprintf(`{"output_dir":%q}`, tmp))); err != nil {
			t.Fatalf("writer: %v", err)
		}
		if _, err := Writer["fs"](json.RawMessage(fmt.Sprintf(`{"output_dir":%q,"x":1}`, tmp))); err == nil {
			t.Fatalf("writer 未对未知字段报错")
		}
		if _, err := Writer["fs"](good); !errors.Is(err, contract.ErrInvalidInput) {
			t.Fatalf("writer 缺少 output_dir 应报错: %v", err)
		}
	})
}

// TestProfiles 内置与 YAML 语言分布。
func TestProfiles(t *testing.T) {
	p, err := Profile["builtin"](json.RawMessage(`{"lang":"pt"}`))
	if err != nil || p.Alphabet.Size() != 26 {
		t.Fatalf("builtin pt: %v", err)
	}
	if _, err := Profile["builtin"](json.RawMessage(`{"lang":"xx"}`)); err == nil {
		t.Fatalf("未知语言应报错")
	}
	if _, err := Profile["yaml"](good()); !errors.Is(err, contract.ErrInvalidInput) {
		t.Fatalf("yaml 缺少 path 应报错: %v", err)
	}
	p, err = Profile["yaml"](json.RawMessage(`{"path":"../../testdata/profiles/en.yaml"}`))
	if err != nil || p.Alphabet.Size() != 26 {
		t.Fatalf("yaml en: %v", err)
	}
}

func good() json.RawMessage { return json.RawMessage(`{}`) }
