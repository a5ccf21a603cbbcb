package contract

import "unicode"

// Latin26 为默认字母表（26 个大写拉丁字母）。
const Latin26 = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Alphabet: 有序、固定的符号集合；所有移位运算均对 Size() 取模。
// 符号以大写形式保存，查询时先做大小写折叠。
type Alphabet struct {
	symbols []rune
	lookup  map[rune]int
}

// NewAlphabet 由符号串构造字母表；重复或空符号串返回 ErrInvalidInput。
func NewAlphabet(symbols string) (Alphabet, error) {
	rs := []rune(symbols)
	if len(rs) < 2 {
		return Alphabet{}, ErrInvalidInput
	}
	lookup := make(map[rune]int, len(rs))
	out := make([]rune, 0, len(rs))
	for _, r := range rs {
		u := unicode.ToUpper(r)
		if _, dup := lookup[u]; dup {
			return Alphabet{}, ErrInvalidInput
		}
		lookup[u] = len(out)
		out = append(out, u)
	}
	return Alphabet{symbols: out, lookup: lookup}, nil
}

// MustAlphabet 用于编译期常量字母表。
func MustAlphabet(symbols string) Alphabet {
	a, err := NewAlphabet(symbols)
	if err != nil {
		panic(err)
	}
	return a
}

// Size 返回字母表大小 A。
func (a Alphabet) Size() int { return len(a.symbols) }

// Index 返回 r（大小写折叠后）的下标。
func (a Alphabet) Index(r rune) (int, bool) {
	i, ok := a.lookup[unicode.ToUpper(r)]
	return i, ok
}

// Symbol 返回下标 i 对应的符号；调用方保证 0 <= i < Size()。
func (a Alphabet) Symbol(i int) rune { return a.symbols[i] }

// String 返回符号串。
func (a Alphabet) String() string { return string(a.symbols) }

// Render 将 Text 渲染为符号串（越界下标渲染为 '?'）。
func (a Alphabet) Render(t Text) string {
	rs := make([]rune, len(t))
	for i, v := range t {
		if v < 0 || v >= len(a.symbols) {
			rs[i] = '?'
			continue
		}
		rs[i] = a.symbols[v]
	}
	return string(rs)
}
