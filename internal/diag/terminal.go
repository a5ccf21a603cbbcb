package diag

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Terminal: 终端进度提示（非日志）。
// TTY 下单行 \r 覆盖；非 TTY 仅在关键节点分行打印。并发安全，写失败后转为 no-op。
type Terminal struct {
	w       io.Writer
	enabled bool
	isTTY   bool

	concurrency int
	profile     string
	filesDone   int
	filesFailed int
	runStart    time.Time

	curFileID string
	candTotal int
	candDone  int
	skipped   int

	lastLen   int
	lastFlush time.Time

	mu sync.Mutex
}

var (
	termMu sync.RWMutex
	term   *Terminal
)

// SetTerminal 设置全局终端指针（nil 可清除）。
func SetTerminal(t *Terminal) { termMu.Lock(); term = t; termMu.Unlock() }

// GetTerminal 返回全局终端（可能为 nil）。
func GetTerminal() *Terminal { termMu.RLock(); defer termMu.RUnlock(); return term }

// NewTerminal 构造终端提示器；enabled=false 时总是 no-op。
func NewTerminal(w io.Writer, enabled bool) *Terminal {
	if w == nil {
		w = os.Stderr
	}
	t := &Terminal{w: w, enabled: enabled}
	if os.Getenv("CI") == "" {
		if f, ok := w.(*os.File); ok {
			t.isTTY = isTerminal(f)
		}
	}
	return t
}

// RunStart 记录运行上下文。
func (t *Terminal) RunStart(concurrency int, profile string) {
	t.do(func() {
		t.concurrency = concurrency
		t.profile = safe(profile)
		t.filesDone, t.filesFailed = 0, 0
		t.runStart = time.Now()
		t.println(fmt.Sprintf("[run] 并发=%d | 语言=%s", concurrency, t.profile))
	})
}

// FileStart 标记当前密文与候选数。
func (t *Terminal) FileStart(fileID string, candidates int) {
	t.do(func() {
		t.curFileID = shortenBase(fileID, 48)
		t.candTotal = candidates
		t.candDone, t.skipped = 0, 0
		if !t.isTTY {
			t.println(fmt.Sprintf("[file] %s | 候选长度=%d", t.curFileID, candidates))
		}
	})
}

// FileProgress 候选求解进度（TTY 下 100ms 节流）。
func (t *Terminal) FileProgress(done, total, skipped int) {
	t.do(func() {
		t.candDone, t.candTotal, t.skipped = done, total, skipped
		if !t.isTTY {
			return
		}
		now := time.Now()
		if now.Sub(t.lastFlush) < 100*time.Millisecond && done < total {
			return
		}
		t.lastFlush = now
		t.printInline(fmt.Sprintf("[file] %s | 候选 %d/%d | 跳过 %d | 并发 %d | 用时 %s",
			t.curFileID, done, total, skipped, t.concurrency, formatDur(time.Since(t.runStart))))
	})
}

// FileFinish 完成当前密文；key 为恢复出的密钥（失败时为空）。
func (t *Terminal) FileFinish(ok bool, key string, dur time.Duration) {
	t.do(func() {
		status := "done"
		if ok {
			t.filesDone++
		} else {
			t.filesFailed++
			status = "fail"
		}
		if t.isTTY && t.lastLen > 0 {
			t.printInline("")
		}
		line := fmt.Sprintf("[%s] %s | 候选 %d | 用时 %s", status, t.curFileID, t.candTotal, formatDur(dur))
		if key != "" {
			line += " | 密钥 " + safe(key)
		}
		t.println(line)
	})
}

// RunFinish 输出总览。
func (t *Terminal) RunFinish(ok bool, dur time.Duration) {
	t.do(func() {
		tag := "ok"
		if !ok {
			tag = "fail"
		}
		t.println(fmt.Sprintf("[%s] 完成 %d | 失败 %d | 总用时 %s", tag, t.filesDone, t.filesFailed, formatDur(dur)))
	})
}

func (t *Terminal) do(f func()) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.enabled {
		f()
	}
}

func (t *Terminal) println(s string) {
	if !t.enabled {
		return
	}
	if _, err := io.WriteString(t.w, s+"\n"); err != nil {
		t.enabled = false
	}
	t.lastLen = 0
}

func (t *Terminal) printInline(s string) {
	if !t.enabled {
		return
	}
	var b strings.Builder
	b.WriteByte('\r')
	b.WriteString(s)
	if l := visLen(s); t.lastLen > l {
		b.WriteString(strings.Repeat(" ", t.lastLen-l))
	}
	if _, err := io.WriteString(t.w, b.String()); err != nil {
		t.enabled = false
		return
	}
	t.lastLen = visLen(s)
}

// shortenBase 取基名并按 rune 数截断（尾部省略号）。
func shortenBase(s string, max int) string {
	if max <= 0 {
		return ""
	}
	base := filepath.Base(strings.TrimSpace(s))
	rs := []rune(base)
	if len(rs) <= max {
		return base
	}
	return string(rs[:max-1]) + "…"
}

func visLen(s string) int { return len([]rune(s)) }

func safe(s string) string {
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}

func formatDur(d time.Duration) string {
	if d < time.Second {
		ms := d.Milliseconds()
		if ms < 0 {
			ms = 0
		}
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
