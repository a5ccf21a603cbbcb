package pipeline

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"vigcrack/internal/diag"
	"vigcrack/pkg/contract"
)

// - 单点并发：仅此层管理并发（候选级 worker 池）；组件均为同步实现。
// - 结果落位：候选结果按 Estimator 给出的顺序落位，输出与调度顺序无关。
// - 失败隔离：单个候选失败只记录并跳过；单份密文无法分析时继续处理其余输入。

// Components 聚合运行所需的原子组件。
type Components struct {
	Reader     contract.Reader
	Normalizer contract.Normalizer
	Estimator  contract.Estimator
	Solver     contract.Solver
	Decryptor  contract.Decryptor
	Ranker     contract.Ranker
	Writer     contract.Writer
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	Inputs []string
	// Concurrency: 同时求解的候选长度数。
	Concurrency int
	Profile     contract.Profile
	Limit       contract.SearchLimit
}

// 产物后缀。
const (
	SuffixPlain = ".plain.txt"
	SuffixKey   = ".key"
	SuffixTrace = ".jsonl"
)

// Run 执行完整流水线：Reader → Analyze → Writer（明文/密钥/候选轨迹）。
// 无法分析的密文（数据不足或无候选存活）不会中断其余输入；全部处理完后返回首个此类错误。
// 其他错误（I/O、取消、配置不变量）立即返回。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) error {
	if err := sanity(comp, set); err != nil {
		return fmt.Errorf("sanity: %w", err)
	}
	var deferred error
	rtimer := logger.Start("reader", "iterate")
	err := comp.Reader.Iterate(ctx, set.Inputs, func(fid contract.FileID, rc io.ReadCloser) error {
		defer rc.Close()
		start := time.Now()
		rep, ferr := processFile(ctx, comp, set, fid, rc, logger)
		if t := diag.GetTerminal(); t != nil {
			key := ""
			if ferr == nil {
				key = rep.Best.Key.String(set.Profile.Alphabet)
			}
			t.FileFinish(ferr == nil, key, time.Since(start))
		}
		if ferr == nil {
			return nil
		}
		if isAnalysisFailure(ferr) {
			if deferred == nil {
				deferred = fmt.Errorf("%s: %w", fid, ferr)
			}
			return nil
		}
		return fmt.Errorf("%s: %w", fid, ferr)
	})
	if err != nil {
		diag.Record(logger, "reader", "iterate failed", err, "", "")
		return fmt.Errorf("reader iterate: %w", err)
	}
	rtimer.Finish("iterate", 0)
	diag.IncOp("reader", "finish", "success")
	return deferred
}

// isAnalysisFailure: 数据层面无法给出结果（非运行时故障）。
func isAnalysisFailure(err error) bool {
	return errors.Is(err, contract.ErrAnalysisImpossible) || errors.Is(err, contract.ErrInsufficientData)
}

func processFile(ctx context.Context, comp Components, set Settings, fid contract.FileID, rc io.Reader, logger *diag.Logger) (contract.Report, error) {
	b, err := io.ReadAll(rc)
	if err != nil {
		diag.Record(logger, "reader", "read failed", err, string(fid), "")
		return contract.Report{}, fmt.Errorf("read: %w", err)
	}
	sum := blake2b.Sum256(b)
	digest := hex.EncodeToString(sum[:])
	raw := string(b)

	rep, aerr := Analyze(ctx, comp, set, fid, raw, logger)
	// 轨迹总会写出（包括失败的分析），便于审计
	if werr := write(ctx, comp.Writer, fid, SuffixTrace, traceRows(fid, digest, set.Profile.Alphabet, rep), logger); werr != nil {
		return rep, werr
	}
	if aerr != nil {
		return rep, aerr
	}
	if f, ok := comp.Normalizer.(contract.RawFolder); ok {
		raw = f.FoldRaw(raw)
	}
	plain, err := comp.Decryptor.DecryptRaw(set.Profile.Alphabet, raw, rep.Best.Key)
	if err != nil {
		diag.Record(logger, "decryptor", "decrypt raw failed", err, string(fid), "")
		return rep, fmt.Errorf("decryptor decrypt raw: %w", err)
	}
	if err := write(ctx, comp.Writer, fid, SuffixPlain, []byte(plain), logger); err != nil {
		return rep, err
	}
	key := rep.Best.Key.String(set.Profile.Alphabet) + "\n"
	if err := write(ctx, comp.Writer, fid, SuffixKey, []byte(key), logger); err != nil {
		return rep, err
	}
	return rep, nil
}

func write(ctx context.Context, w contract.Writer, fid contract.FileID, suffix string, data []byte, logger *diag.Logger) error {
	id := contract.ArtifactID(string(fid) + suffix)
	wtimer := logger.StartWith("writer", "write", string(id), "")
	if err := w.Write(ctx, id, bytes.NewReader(data)); err != nil {
		diag.Record(logger, "writer", "write failed", err, string(id), "")
		return fmt.Errorf("writer write(%s): %w", suffix, err)
	}
	wtimer.Finish("write", int64(len(data)))
	diag.IncOp("writer", "finish", "success")
	return nil
}

// traceRow: 每个被探索候选一行。
type traceRow struct {
	FileID     string   `json:"file_id"`
	Digest     string   `json:"input_blake2b"`
	N          int      `json:"n"`
	KeyLen     int      `json:"key_len"`
	IC         float64  `json:"ic"`
	Deviation  float64  `json:"ic_deviation"`
	Kasiski    int      `json:"kasiski"`
	Confidence float64  `json:"confidence"`
	Both       bool     `json:"both_signals"`
	Status     string   `json:"status"`
	Key        string   `json:"key,omitempty"`
	Fitness    *float64 `json:"fitness,omitempty"`
	Best       bool     `json:"best,omitempty"`
	Collapsed  string   `json:"collapsed_to,omitempty"`
	Err        string   `json:"error,omitempty"`
}

func traceRows(fid contract.FileID, digest string, a contract.Alphabet, rep contract.Report) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, t := range rep.Candidates {
		row := traceRow{
			FileID:     string(fid),
			Digest:     digest,
			N:          rep.N,
			KeyLen:     t.Candidate.Length,
			IC:         finite(t.Candidate.IC),
			Deviation:  finite(t.Candidate.Deviation),
			Kasiski:    t.Candidate.Kasiski,
			Confidence: finite(t.Candidate.Confidence),
			Both:       t.Candidate.Both,
			Status:     string(t.Status),
			Best:       t.Best,
		}
		if row.Status == "" {
			row.Status = string(contract.StatusSkipped)
		}
		if t.Key != nil {
			row.Key = t.Key.String(a)
		}
		if t.CollapsedTo != nil {
			row.Collapsed = t.CollapsedTo.String(a)
		}
		// JSON 无法表示 Inf/NaN：省略
		if t.Status == contract.StatusSolved && !math.IsInf(t.Fitness, 0) && !math.IsNaN(t.Fitness) {
			f := t.Fitness
			row.Fitness = &f
		}
		if t.Err != nil {
			row.Err = strings.TrimSpace(t.Err.Error())
		}
		_ = enc.Encode(&row)
	}
	return buf.Bytes()
}

func finite(f float64) float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

func sanity(c Components, s Settings) error {
	if c.Reader == nil || c.Normalizer == nil || c.Estimator == nil || c.Solver == nil || c.Decryptor == nil || c.Ranker == nil || c.Writer == nil {
		return fmt.Errorf("%w: pipeline missing components", contract.ErrInvalidInput)
	}
	if err := s.Profile.Validate(); err != nil {
		return err
	}
	return nil
}
