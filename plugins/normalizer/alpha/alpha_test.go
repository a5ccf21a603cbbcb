package alpha

import (
	"context"
	"errors"
	"testing"

	"vigcrack/pkg/contract"
)

var latin = contract.MustAlphabet(contract.Latin26)

// TestNormalize 丢弃非字母、折叠大小写并保持顺序。
func TestNormalize(t *testing.T) {
	n := New(nil)
	got, err := n.Normalize(context.Background(), latin, "He-llo, W0rld!\n")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if s := latin.Render(got); s != "HELLOWRLD" {
		t.Fatalf("got %q", s)
	}
}

// TestNormalizeEmpty 无字母时返回空序列（非错误）。
func TestNormalizeEmpty(t *testing.T) {
	got, err := New(nil).Normalize(context.Background(), latin, "1234 !?")
	if err != nil || len(got) != 0 {
		t.Fatalf("want empty, got %v %v", got, err)
	}
}

// TestNormalizeDiacritics 默认丢弃，开启折叠后映射为基本字母。
func TestNormalizeDiacritics(t *testing.T) {
	in := "Ação é"
	drop, _ := New(nil).Normalize(context.Background(), latin, in)
	if s := latin.Render(drop); s != "AO" {
		t.Fatalf("默认应丢弃变音字母, got %q", s)
	}
	fold, _ := New(&Options{FoldDiacritics: true}).Normalize(context.Background(), latin, in)
	if s := latin.Render(fold); s != "ACAOE" {
		t.Fatalf("折叠结果错误, got %q", s)
	}
}

// FoldRaw 与 Normalize 使用同一映射，保留大小写与非字母符号
func TestFoldRaw(t *testing.T) {
	in := "Ação é, Ñ!"
	if got := New(nil).FoldRaw(in); got != in {
		t.Fatalf("未开启折叠应原样返回, got %q", got)
	}
	n := New(&Options{FoldDiacritics: true})
	got := n.FoldRaw(in)
	if got != "Acao e, N!" {
		t.Fatalf("FoldRaw 结果错误, got %q", got)
	}
	a, _ := n.Normalize(context.Background(), latin, in)
	b, _ := New(nil).Normalize(context.Background(), latin, got)
	if latin.Render(a) != latin.Render(b) {
		t.Fatalf("折叠后的原文应得到相同序列: %q vs %q", latin.Render(a), latin.Render(b))
	}
}

// TestNormalizeInvalidAlphabet 零值字母表非法。
func TestNormalizeInvalidAlphabet(t *testing.T) {
	_, err := New(nil).Normalize(context.Background(), contract.Alphabet{}, "abc")
	if !errors.Is(err, contract.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}
