package chisq

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"vigcrack/internal/corpus"
	"vigcrack/internal/stats"
	"vigcrack/pkg/contract"
	"vigcrack/plugins/profile/builtin"
)

func encrypt(p contract.Text, k contract.Key) contract.Text {
	out := make(contract.Text, len(p))
	for i, v := range p {
		out[i] = (v + k[i%len(k)]) % 26
	}
	return out
}

func TestSolveRecoversKey(t *testing.T) {
	prof, err := builtin.Lookup("pt")
	require.NoError(t, err)
	key := contract.Key{10, 4, 24} // KEY
	c := encrypt(corpus.Exact(prof.Freq, 200, 3, 7), key)

	sol, err := New(nil).Solve(context.Background(), c, 3, prof)
	require.NoError(t, err)
	require.Equal(t, key, sol.Key)
	require.Len(t, sol.Scores, 3)
	require.Equal(t, "KEY", sol.Key.String(prof.Alphabet))
	// 每列计数都是 p·200 的最大余数取整，卡方只剩取整残差，三列相同
	col := corpus.Exact(prof.Freq, 200, 1, 7)
	residue := stats.ChiSquareShift(stats.Counts(col, 26), len(col), prof.Freq, 0)
	require.InDelta(t, 3*residue, sol.Fitness(), 1e-9)
	require.Less(t, sol.Fitness(), 5.0)
}

// 参考分布含零项时，出现该字母的列仍能恢复正确移位。
func TestSolveZeroEntryProfile(t *testing.T) {
	prof, err := builtin.Lookup("pt")
	require.NoError(t, err)
	freq := append(contract.Distribution(nil), prof.Freq...)
	for _, i := range []int{10, 22, 24} { // K W Y
		freq[i] = 0
	}
	prof.Freq = freq
	plain := corpus.Exact(freq, 200, 3, 11)
	plain[0], plain[3], plain[6] = 10, 22, 24
	key := contract.Key{10, 4, 24}

	sol, err := New(nil).Solve(context.Background(), encrypt(plain, key), 3, prof)
	require.NoError(t, err)
	require.Equal(t, key, sol.Key)
	require.False(t, math.IsInf(sol.Fitness(), 0))
}

func TestSolveParallelMatchesSequential(t *testing.T) {
	prof, err := builtin.Lookup("en")
	require.NoError(t, err)
	key := contract.Key{2, 17, 24, 15, 19, 14}
	c := encrypt(corpus.Sample(prof.Freq, 900, 3), key)

	seq, err := New(nil).Solve(context.Background(), c, len(key), prof)
	require.NoError(t, err)
	par, err := New(&Options{ParallelPositions: true}).Solve(context.Background(), c, len(key), prof)
	require.NoError(t, err)
	require.Equal(t, seq, par)
}

func TestSolveInfeasible(t *testing.T) {
	prof, err := builtin.Lookup("pt")
	require.NoError(t, err)
	c := contract.Text{1, 2, 3, 4}
	for _, l := range []int{0, -1, 5, 100} {
		_, err := New(nil).Solve(context.Background(), c, l, prof)
		if !errors.Is(err, contract.ErrInfeasibleKeyLength) {
			t.Fatalf("L=%d 期望 ErrInfeasibleKeyLength，得到 %v", l, err)
		}
	}
	// L == N：每列恰好一个符号，仍可求解
	sol, err := New(nil).Solve(context.Background(), c, 4, prof)
	require.NoError(t, err)
	require.Len(t, sol.Key, 4)
}

func TestSolveRejectsMismatchedProfile(t *testing.T) {
	prof, err := builtin.Lookup("pt")
	require.NoError(t, err)
	prof.Freq = prof.Freq[:10]
	_, err = New(nil).Solve(context.Background(), contract.Text{1, 2, 3}, 1, prof)
	require.True(t, errors.Is(err, contract.ErrInvalidReferenceDistribution))
}

func TestSolveCanceled(t *testing.T) {
	prof, err := builtin.Lookup("pt")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(nil).Solve(ctx, corpus.Sample(prof.Freq, 100, 1), 4, prof)
	require.ErrorIs(t, err, context.Canceled)
}

// 全部移位同分时取最小移位。
func TestBestShiftTieBreak(t *testing.T) {
	freq := make(contract.Distribution, 26)
	col := make(contract.Text, 26)
	for i := range freq {
		freq[i] = 1.0 / 26
		col[i] = i
	}
	shift, chi := BestShift(col, freq)
	require.Equal(t, 0, shift)
	require.InDelta(t, 0, chi, 1e-9)

	shift, chi = BestShift(nil, freq)
	require.Equal(t, 0, shift)
	require.True(t, math.IsInf(chi, 1))
}

func BenchmarkSolve(b *testing.B) {
	prof, _ := builtin.Lookup("pt")
	c := encrypt(corpus.Sample(prof.Freq, 20000, 1), contract.Key{3, 1, 4, 1, 5, 9, 2, 6})
	s := New(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Solve(context.Background(), c, 8, prof)
	}
}
