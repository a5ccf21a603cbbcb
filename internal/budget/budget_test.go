package budget

import (
	"testing"

	"vigcrack/pkg/contract"
)

func TestWithDefaults(t *testing.T) {
	l := WithDefaults(contract.SearchLimit{MaxCandidates: -3})
	if l.MinRepeatLen != 3 || l.MaxKeyLen != 40 || l.MinColumnLen != 10 || l.MaxCandidates != 0 {
		t.Fatalf("默认值错误: %+v", l)
	}
	l = WithDefaults(contract.SearchLimit{MinRepeatLen: 4, MaxKeyLen: 12, MinColumnLen: 2, MaxCandidates: 5})
	if l.MinRepeatLen != 4 || l.MaxKeyLen != 12 || l.MinColumnLen != 2 || l.MaxCandidates != 5 {
		t.Fatalf("显式值被覆盖: %+v", l)
	}
}

func TestEffectiveMaxKeyLen(t *testing.T) {
	cases := []struct {
		n    int
		lim  contract.SearchLimit
		want int
	}{
		{0, contract.SearchLimit{}, 0},
		{5, contract.SearchLimit{}, 0},
		{600, contract.SearchLimit{}, 40},
		{120, contract.SearchLimit{}, 12},
		{600, contract.SearchLimit{MaxKeyLen: 8}, 8},
		{5, contract.SearchLimit{MinColumnLen: 2}, 2},
		{3, contract.SearchLimit{MinColumnLen: 1}, 3},
	}
	for _, c := range cases {
		if got := EffectiveMaxKeyLen(c.n, c.lim); got != c.want {
			t.Errorf("EffectiveMaxKeyLen(%d, %+v) = %d, want %d", c.n, c.lim, got, c.want)
		}
	}
}
