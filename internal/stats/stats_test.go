package stats

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"vigcrack/pkg/contract"
)

// skewed 为测试用的非均匀分布（26 项，总和为 1）。
func skewed() contract.Distribution {
	d := make(contract.Distribution, 26)
	var sum float64
	for i := range d {
		d[i] = 1 / float64(i+1)
		sum += d[i]
	}
	for i := range d {
		d[i] /= sum
	}
	return d
}

func sample(r *rand.Rand, d contract.Distribution, n int) contract.Text {
	cdf := make([]float64, len(d))
	var acc float64
	for i, p := range d {
		acc += p
		cdf[i] = acc
	}
	out := make(contract.Text, n)
	for i := range out {
		u := r.Float64() * acc
		j := 0
		for j < len(cdf)-1 && cdf[j] < u {
			j++
		}
		out[i] = j
	}
	return out
}

func TestColumns(t *testing.T) {
	txt := contract.Text{0, 1, 2, 3, 4, 5, 6}
	cols := Columns(txt, 3)
	require.Equal(t, []contract.Text{{0, 3, 6}, {1, 4}, {2, 5}}, cols)
	require.Nil(t, Column(txt, 10, 8))
	require.Nil(t, Columns(txt, 0))
	// 原输入不被修改
	require.Equal(t, contract.Text{0, 1, 2, 3, 4, 5, 6}, txt)
}

func TestIndexOfCoincidenceUndefined(t *testing.T) {
	_, err := IndexOfCoincidence(contract.Text{1}, 26)
	require.True(t, errors.Is(err, contract.ErrUndefinedCoincidence))
	_, err = AverageIC(contract.Text{1, 2, 3}, 2, 26)
	require.True(t, errors.Is(err, contract.ErrUndefinedCoincidence))
	ic, err := IndexOfCoincidence(contract.Text{3, 3, 3}, 26)
	require.NoError(t, err)
	require.Equal(t, 1.0, ic)
}

// 均匀随机序列的 IC 收敛到 1/A。
func TestICUniformConverges(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	txt := make(contract.Text, 200000)
	for i := range txt {
		txt[i] = r.Intn(26)
	}
	ic, err := IndexOfCoincidence(txt, 26)
	require.NoError(t, err)
	require.InDelta(t, 1.0/26, ic, 0.001)
}

// 按参考分布抽样的序列 IC 收敛到 Σp²。
func TestICLanguageConverges(t *testing.T) {
	d := skewed()
	var want float64
	for _, p := range d {
		want += p * p
	}
	txt := sample(rand.New(rand.NewSource(2)), d, 200000)
	ic, err := IndexOfCoincidence(txt, 26)
	require.NoError(t, err)
	require.InDelta(t, want, ic, 0.002)
	require.Greater(t, ic, 1.0/26+0.02)
}

// 大样本下卡方最小化恢复正确移位。
func TestChiSquareRecoversShift(t *testing.T) {
	d := skewed()
	r := rand.New(rand.NewSource(3))
	for _, shift := range []int{0, 1, 7, 13, 25} {
		plain := sample(r, d, 800)
		cipher := make(contract.Text, len(plain))
		for i, v := range plain {
			cipher[i] = (v + shift) % 26
		}
		counts := Counts(cipher, 26)
		best, bestChi := -1, math.Inf(1)
		for s := 0; s < 26; s++ {
			if c := ChiSquareShift(counts, len(cipher), d, s); c < bestChi {
				best, bestChi = s, c
			}
		}
		require.Equal(t, shift, best)
	}
}

func TestChiSquareZeroExpected(t *testing.T) {
	d := contract.Distribution{0.5, 0.5, 0}
	require.Equal(t, 0.0, ChiSquareShift([]int{2, 2, 0}, 4, d, 0))
	// 0.5 + 0.5 + 2²/(0.01·4)
	require.InDelta(t, 101.0, ChiSquareShift([]int{1, 1, 2}, 4, d, 0), 1e-9)
	// 零期望符号只抬高分数，仍能与正确移位区分
	require.Less(t, ChiSquareShift([]int{0, 2, 2}, 4, d, 1), ChiSquareShift([]int{0, 2, 2}, 4, d, 0))
}

func TestDivisors(t *testing.T) {
	m := DivisorMemo{}
	require.Equal(t, []int{2, 3, 4, 6, 12}, m.Divisors(12, 0))
	require.Equal(t, []int{2, 3, 4}, m.Divisors(12, 5))
	require.Equal(t, []int{7}, m.Divisors(7, 0))
	require.Empty(t, m.Divisors(1, 0))
	require.Equal(t, []int{2, 3, 6, 9, 18}, m.Divisors(18, 0))
	require.Contains(t, m, 12)
	// nil 缓存同样可用
	var none DivisorMemo
	require.Equal(t, []int{5, 25}, none.Divisors(25, 0))
}

func TestPeriod(t *testing.T) {
	require.Equal(t, 3, Period([]int{10, 4, 24, 10, 4, 24}))
	require.Equal(t, 1, Period([]int{5, 5, 5, 5}))
	require.Equal(t, 4, Period([]int{1, 2, 1, 3}))
	require.Equal(t, 0, Period(nil))
}
