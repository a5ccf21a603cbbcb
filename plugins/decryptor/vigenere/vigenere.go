package vigenere

import (
	"fmt"
	"strings"
	"unicode"

	"vigcrack/pkg/contract"
)

// Decryptor 实现重复密钥的单表移位（Vigenère）加解密。
type Decryptor struct{}

// New 创建 Decryptor（无配置项）。
func New() *Decryptor { return &Decryptor{} }

var _ contract.Decryptor = (*Decryptor)(nil)

// Decrypt: P[i] = (C[i] − K[i mod L]) mod A。
func (Decryptor) Decrypt(t contract.Text, k contract.Key, size int) (contract.Text, error) {
	return apply(t, k, size, -1)
}

// Encrypt: C[i] = (P[i] + K[i mod L]) mod A。
func (Decryptor) Encrypt(t contract.Text, k contract.Key, size int) (contract.Text, error) {
	return apply(t, k, size, 1)
}

func apply(t contract.Text, k contract.Key, size, sign int) (contract.Text, error) {
	if err := check(k, size); err != nil {
		return nil, err
	}
	out := make(contract.Text, len(t))
	for i, v := range t {
		if v < 0 || v >= size {
			return nil, fmt.Errorf("%w: symbol %d at %d outside alphabet", contract.ErrInvalidInput, v, i)
		}
		out[i] = mod(v+sign*k[i%len(k)], size)
	}
	return out, nil
}

// DecryptRaw 解密原始文本：字母表外的符号原样保留，密钥仅在字母表符号上推进；
// 小写输入输出为小写。
func (Decryptor) DecryptRaw(a contract.Alphabet, raw string, k contract.Key) (string, error) {
	size := a.Size()
	if err := check(k, size); err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(raw))
	ki := 0
	for _, r := range raw {
		i, ok := a.Index(r)
		if !ok {
			b.WriteRune(r)
			continue
		}
		out := a.Symbol(mod(i-k[ki%len(k)], size))
		ki++
		if unicode.IsLower(r) {
			out = unicode.ToLower(out)
		}
		b.WriteRune(out)
	}
	return b.String(), nil
}

func check(k contract.Key, size int) error {
	if len(k) == 0 {
		return fmt.Errorf("%w: empty key", contract.ErrInvalidInput)
	}
	if size < 1 {
		return fmt.Errorf("%w: alphabet size %d", contract.ErrInvalidInput, size)
	}
	for i, v := range k {
		if v < 0 || v >= size {
			return fmt.Errorf("%w: key symbol %d at %d outside alphabet", contract.ErrInvalidInput, v, i)
		}
	}
	return nil
}

func mod(x, m int) int {
	x %= m
	if x < 0 {
		x += m
	}
	return x
}
