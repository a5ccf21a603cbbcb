package alpha

import (
	"context"
	"strings"
	"unicode"

	"vigcrack/pkg/contract"
)

// Options 为字母表 Normalizer 的可选配置（最小必要）。
type Options struct {
	// FoldDiacritics: 将常见带变音符的拉丁字母折叠为基本字母（á→A、ç→C）。
	// 默认 false：带变音符的字母视为字母表外符号并被丢弃。
	FoldDiacritics bool `json:"fold_diacritics"`
}

// Normalizer 丢弃字母表外的符号并做大小写折叠。
type Normalizer struct {
	fold bool
}

// New 创建 Normalizer。
func New(opts *Options) *Normalizer {
	n := &Normalizer{}
	if opts != nil {
		n.fold = opts.FoldDiacritics
	}
	return n
}

var (
	_ contract.Normalizer = (*Normalizer)(nil)
	_ contract.RawFolder  = (*Normalizer)(nil)
)

// ctxCheckEvery: 每处理这么多 rune 检查一次 ctx。
const ctxCheckEvery = 1 << 14

// Normalize 产出字母表下标序列；输出长度不超过输入 rune 数。
func (n *Normalizer) Normalize(ctx context.Context, a contract.Alphabet, raw string) (contract.Text, error) {
	if a.Size() == 0 {
		return nil, contract.ErrInvalidInput
	}
	out := make(contract.Text, 0, len(raw))
	seen := 0
	for _, r := range raw {
		seen++
		if seen%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if n.fold {
			if b, ok := diacritics[r]; ok {
				r = b
			}
		}
		if i, ok := a.Index(r); ok {
			out = append(out, i)
		}
	}
	return out, nil
}

// FoldRaw 将带变音符的字母替换为基本字母（保留大小写）；未开启折叠时原样返回。
func (n *Normalizer) FoldRaw(raw string) string {
	if !n.fold {
		return raw
	}
	return strings.Map(func(r rune) rune {
		b, ok := diacritics[r]
		if !ok {
			return r
		}
		if unicode.IsLower(r) {
			return unicode.ToLower(b)
		}
		return b
	}, raw)
}

// diacritics: Latin-1 补充区常见字母到基本字母的映射（大小写均覆盖）。
var diacritics = func() map[rune]rune {
	groups := map[rune]string{
		'A': "ÀÁÂÃÄÅàáâãäå",
		'C': "Çç",
		'E': "ÈÉÊËèéêë",
		'I': "ÌÍÎÏìíîï",
		'N': "Ññ",
		'O': "ÒÓÔÕÖòóôõö",
		'U': "ÙÚÛÜùúûü",
		'Y': "Ýýÿ",
	}
	m := make(map[rune]rune, 64)
	for base, vs := range groups {
		for _, v := range vs {
			m[v] = base
		}
	}
	return m
}()
