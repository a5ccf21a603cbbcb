// Package builtin 提供内置语言参考分布（A–Z）。
package builtin

import (
	"fmt"
	"sort"
	"strings"

	"vigcrack/pkg/contract"
)

// 百分比形式的字母频率表，按 A..Z 排列。
var (
	// 葡萄牙语。
	portuguese = []float64{
		14.7154, 0.9926, 3.8775, 4.7958, 12.7879, 0.9868, 1.1435, 1.4840, 6.1426,
		0.2787, 0.0044, 3.3069, 4.8531, 4.7498, 10.5498, 2.6743, 1.2897, 6.3127,
		7.5612, 4.2199, 4.7630, 1.6736, 0.0011, 0.2845, 0.0686, 0.4824,
	}
	// 英语。
	english = []float64{
		8.167, 1.492, 2.782, 4.253, 12.702, 2.228, 2.015, 6.094, 6.966,
		0.153, 0.772, 4.025, 2.406, 6.749, 7.507, 1.929, 0.095, 5.987,
		6.327, 9.056, 2.758, 0.978, 2.360, 0.150, 1.974, 0.074,
	}
)

var tables = map[string]struct {
	name string
	pct  []float64
	ic   float64
}{
	"pt": {"portuguese", portuguese, 0.0778},
	"en": {"english", english, 0.0667},
}

// Names 返回可用语言代码（字典序）。
func Names() []string {
	out := make([]string, 0, len(tables))
	for k := range tables {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Lookup 按语言代码返回归一化后的 Profile；每次调用返回独立副本。
func Lookup(lang string) (contract.Profile, error) {
	tb, ok := tables[strings.ToLower(strings.TrimSpace(lang))]
	if !ok {
		return contract.Profile{}, fmt.Errorf("%w: unknown language %q (have %s)", contract.ErrInvalidInput, lang, strings.Join(Names(), ","))
	}
	var sum float64
	for _, v := range tb.pct {
		sum += v
	}
	freq := make(contract.Distribution, len(tb.pct))
	for i, v := range tb.pct {
		freq[i] = v / sum
	}
	p := contract.Profile{
		Name:       tb.name,
		Alphabet:   contract.MustAlphabet(contract.Latin26),
		Freq:       freq,
		ExpectedIC: tb.ic,
	}
	if err := p.Validate(); err != nil {
		return contract.Profile{}, err
	}
	return p, nil
}
