package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"vigcrack/internal/diag"
	"vigcrack/internal/stats"
	"vigcrack/pkg/contract"
	"vigcrack/plugins/ranker/fitness"
)

// Analyze 对单份密文执行完整分析：Normalize → Estimate → 并发 Solve → Decrypt → Rank。
// 单个候选的错误记录在 Report.Candidates 中并跳过；没有任何候选求解成功时返回
// ErrAnalysisImpossible（与首个原因合并）。
func Analyze(ctx context.Context, comp Components, set Settings, fileID contract.FileID, raw string, logger *diag.Logger) (contract.Report, error) {
	fid := string(fileID)
	size := set.Profile.Alphabet.Size()

	ntimer := logger.StartWith("normalizer", "normalize", fid, "")
	text, err := comp.Normalizer.Normalize(ctx, set.Profile.Alphabet, raw)
	if err != nil {
		diag.Record(logger, "normalizer", "normalize failed", err, fid, "")
		return contract.Report{}, fmt.Errorf("normalizer normalize: %w", err)
	}
	ntimer.Finish("normalize", int64(len(text)))
	diag.IncOp("normalizer", "finish", "success")

	etimer := logger.StartWith("estimator", "estimate", fid, "")
	cands, err := comp.Estimator.Estimate(ctx, text, set.Profile, set.Limit)
	if err != nil {
		diag.Record(logger, "estimator", "estimate failed", err, fid, "")
		return contract.Report{N: len(text)}, fmt.Errorf("estimator estimate: %w", err)
	}
	etimer.Finish("estimate", int64(len(cands)))
	diag.IncOp("estimator", "finish", "success")
	if len(cands) > 0 {
		logger.DebugKV("estimator", "top candidate", fid, strconv.Itoa(cands[0].Length), map[string]string{
			"ic":         strconv.FormatFloat(cands[0].IC, 'f', 5, 64),
			"confidence": strconv.FormatFloat(cands[0].Confidence, 'f', 3, 64),
		})
	}

	if t := diag.GetTerminal(); t != nil {
		t.FileStart(fid, len(cands))
	}
	traces, ranked, err := solveAll(ctx, comp, set, fileID, text, cands, logger)
	if err != nil {
		return contract.Report{N: len(text), Candidates: traces}, err
	}
	rep := contract.Report{N: len(text), Candidates: traces}
	if len(ranked) == 0 {
		return rep, errors.Join(contract.ErrAnalysisImpossible, firstCause(traces))
	}

	rtimer := logger.StartWith("ranker", "rank", fid, "")
	items := make([]contract.Ranked, len(ranked))
	for i, r := range ranked {
		items[i] = r.Ranked
	}
	best, err := comp.Ranker.Rank(items, size)
	if err != nil {
		diag.Record(logger, "ranker", "rank failed", err, fid, "")
		return rep, fmt.Errorf("ranker rank: %w", err)
	}
	rtimer.Finish("rank", int64(len(items)))
	diag.IncOp("ranker", "finish", "success")
	traces[ranked[best].trace].Best = true

	res := items[best].Result
	if prim, ok := fitness.Primitive(res.Key); ok {
		// KEYKEY 折叠为 KEY，适配度按基本周期重新计算
		pt, err := comp.Decryptor.Decrypt(text, prim, size)
		if err != nil {
			return rep, fmt.Errorf("decryptor decrypt: %w", err)
		}
		logger.DebugKV("ranker", "collapsed to primitive period", fid, strconv.Itoa(len(prim)), map[string]string{
			"from": strconv.Itoa(len(res.Key)),
		})
		res = contract.DecryptionResult{Key: prim, Plaintext: pt, Fitness: KeyFitness(text, prim, set.Profile.Freq)}
		rep.Candidates[ranked[best].trace].CollapsedTo = prim
	}
	rep.Best = res
	rep.Length = len(res.Key)
	return rep, nil
}

// rankedAt: 已求解候选及其在 traces 中的位置。
type rankedAt struct {
	contract.Ranked
	trace int
}

// solveAll 以有界 worker 池并发求解各候选长度。结果按候选顺序落位，与调度顺序无关。
// 仅取消/超时会中止整体；其余错误只作用于对应候选。
func solveAll(ctx context.Context, comp Components, set Settings, fileID contract.FileID, text contract.Text, cands []contract.KeyLengthCandidate, logger *diag.Logger) ([]contract.CandidateTrace, []rankedAt, error) {
	fid := string(fileID)
	size := set.Profile.Alphabet.Size()
	traces := make([]contract.CandidateTrace, len(cands))
	for i, c := range cands {
		traces[i].Candidate = c
	}
	results := make([]*contract.Ranked, len(cands))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type done struct {
		idx int
		err error
	}
	n := set.Concurrency
	if n < 1 {
		n = 1
	}
	if n > len(cands) {
		n = len(cands)
	}
	inCh := make(chan int, n*2)
	outCh := make(chan done, n*2)

	var wg sync.WaitGroup
	wg.Add(n)
	for w := 0; w < n; w++ {
		go func() {
			defer wg.Done()
			for i := range inCh {
				c := cands[i]
				kl := strconv.Itoa(c.Length)
				stimer := logger.StartWith("solver", "solve", fid, kl)
				sol, err := comp.Solver.Solve(ctx, text, c.Length, set.Profile)
				if err != nil {
					outCh <- done{idx: i, err: err}
					continue
				}
				stimer.Finish("solve", int64(c.Length))
				pt, err := comp.Decryptor.Decrypt(text, sol.Key, size)
				if err != nil {
					outCh <- done{idx: i, err: fmt.Errorf("decryptor decrypt: %w", err)}
					continue
				}
				res := contract.DecryptionResult{Key: sol.Key, Plaintext: pt, Fitness: sol.Fitness()}
				traces[i].Status = contract.StatusSolved
				traces[i].Key = sol.Key
				traces[i].Fitness = res.Fitness
				results[i] = &contract.Ranked{Candidate: c, Solution: sol, Result: res}
				outCh <- done{idx: i}
			}
		}()
	}
	go func() {
		defer close(inCh)
		for i := range cands {
			select {
			case <-ctx.Done():
				return
			case inCh <- i:
			}
		}
	}()
	go func() {
		wg.Wait()
		close(outCh)
	}()

	var abort error
	finished, skipped := 0, 0
	for d := range outCh {
		finished++
		if d.err != nil {
			if errors.Is(d.err, context.Canceled) || errors.Is(d.err, context.DeadlineExceeded) {
				if abort == nil {
					abort = d.err
					cancel()
				}
				continue
			}
			skipped++
			traces[d.idx].Err = d.err
			traces[d.idx].Status = contract.StatusSkipped
			if errors.Is(d.err, contract.ErrInfeasibleKeyLength) || errors.Is(d.err, contract.ErrUndefinedCoincidence) {
				traces[d.idx].Status = contract.StatusInfeasible
			}
			code := diag.Classify(d.err)
			logger.Skip("solver", string(code), d.err.Error(), fid, strconv.Itoa(cands[d.idx].Length))
			diag.IncOp("solver", "skip", "error")
			diag.IncError("solver", string(code))
			continue
		}
		diag.IncOp("solver", "finish", "success")
		if t := diag.GetTerminal(); t != nil {
			t.FileProgress(finished, len(cands), skipped)
		}
	}
	if abort == nil && ctx.Err() != nil {
		// 上游取消时生产者可能提前退出，部分候选未被调度
		abort = ctx.Err()
	}
	if abort != nil {
		diag.Record(logger, "solver", "solve aborted", abort, fid, "")
		return traces, nil, fmt.Errorf("solver solve: %w", abort)
	}

	var ranked []rankedAt
	for i, r := range results {
		if r != nil {
			ranked = append(ranked, rankedAt{Ranked: *r, trace: i})
		}
	}
	return traces, ranked, nil
}

// firstCause 返回首个被跳过候选的错误（无则为 nil）。
func firstCause(traces []contract.CandidateTrace) error {
	for _, t := range traces {
		if t.Err != nil {
			return t.Err
		}
	}
	return nil
}

// KeyFitness 计算给定密钥在 text 上的聚合卡方（各位置之和）。
func KeyFitness(text contract.Text, k contract.Key, freq contract.Distribution) float64 {
	var sum float64
	for pos, shift := range k {
		col := stats.Column(text, len(k), pos)
		sum += stats.ChiSquareShift(stats.Counts(col, len(freq)), len(col), freq, shift)
	}
	return sum
}
