// Package yamlfile 从 YAML 文件加载语言参考分布。
//
// 文件格式：
//
//	name: portuguese
//	alphabet: ABCDEFGHIJKLMNOPQRSTUVWXYZ   # 可省略，默认 A–Z
//	expected_ic: 0.0778                    # 可省略，默认 Σp²
//	percent: true                          # 频率以百分比给出
//	frequencies:
//	  A: 14.7154
//	  B: 0.9926
//	  ...
package yamlfile

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"vigcrack/pkg/contract"
)

// Document 为 YAML 文件的原样结构。
type Document struct {
	Name        string             `yaml:"name"`
	Alphabet    string             `yaml:"alphabet"`
	ExpectedIC  float64            `yaml:"expected_ic"`
	Percent     bool               `yaml:"percent"`
	Frequencies map[string]float64 `yaml:"frequencies"`
}

// Load 读取并解析 path 指向的 YAML 参考分布。
func Load(path string) (contract.Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return contract.Profile{}, err
	}
	p, err := Parse(b)
	if err != nil {
		return contract.Profile{}, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Parse 严格解析（拒绝未知字段），并校验分布覆盖完整字母表。
func Parse(b []byte) (contract.Profile, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return contract.Profile{}, err
	}
	return doc.Profile()
}

// Profile 将文档转换为 Profile。
func (d Document) Profile() (contract.Profile, error) {
	symbols := d.Alphabet
	if symbols == "" {
		symbols = contract.Latin26
	}
	a, err := contract.NewAlphabet(symbols)
	if err != nil {
		return contract.Profile{}, fmt.Errorf("%w: alphabet %q", contract.ErrInvalidReferenceDistribution, symbols)
	}
	freq := make(contract.Distribution, a.Size())
	seen := make([]bool, a.Size())
	for sym, v := range d.Frequencies {
		rs := []rune(sym)
		if len(rs) != 1 {
			return contract.Profile{}, fmt.Errorf("%w: key %q is not a single symbol", contract.ErrInvalidReferenceDistribution, sym)
		}
		i, ok := a.Index(rs[0])
		if !ok {
			return contract.Profile{}, fmt.Errorf("%w: symbol %q not in alphabet", contract.ErrInvalidReferenceDistribution, sym)
		}
		if seen[i] {
			return contract.Profile{}, fmt.Errorf("%w: symbol %q given more than once", contract.ErrInvalidReferenceDistribution, a.Symbol(i))
		}
		if d.Percent {
			v /= 100
		}
		freq[i] = v
		seen[i] = true
	}
	for i, ok := range seen {
		if !ok {
			return contract.Profile{}, fmt.Errorf("%w: missing symbol %q", contract.ErrInvalidReferenceDistribution, a.Symbol(i))
		}
	}
	p := contract.Profile{Name: d.Name, Alphabet: a, Freq: freq, ExpectedIC: d.ExpectedIC}
	if err := p.Validate(); err != nil {
		return contract.Profile{}, err
	}
	return p, nil
}
