package diag

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// 级别定义
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Logger 为最小结构化日志器：单行 JSON 写入轮转文件，写失败时回落 stderr。
type Logger struct {
	corrID string
	level  Level
	sink   *RotatingFile
	mu     sync.Mutex
}

// NewLogger 按 level 初始化；dir 为空时写入 logs/，10MiB 轮转。
func NewLogger(corrID, level, dir string) *Logger {
	if strings.TrimSpace(dir) == "" {
		dir = "logs"
	}
	return &Logger{corrID: corrID, level: ParseLevel(level), sink: NewRotatingFile(dir, 10*1024*1024)}
}

// WithKeep 设置日志历史文件保留数（<=0 不清理）。
func (l *Logger) WithKeep(n int) *Logger {
	if l != nil && l.sink != nil {
		l.sink.WithKeep(n)
	}
	return l
}

// NewStderrLogger 不落盘，直接写 stderr（测试与 --status 使用）。
func NewStderrLogger(corrID, level string) *Logger {
	return &Logger{corrID: corrID, level: ParseLevel(level)}
}

// ParseLevel 解析级别字符串；未知值视为 info。
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "warn":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

// Event 为标准事件结构。
type Event struct {
	Level  string            `json:"level"`
	TS     string            `json:"ts"`
	CorrID string            `json:"corr_id"`
	Comp   string            `json:"comp"`
	Stage  string            `json:"stage"` // start|finish|error|skip
	Code   string            `json:"code,omitempty"`
	DurMS  int64             `json:"dur_ms,omitempty"`
	Count  int64             `json:"count,omitempty"`
	FileID string            `json:"file_id,omitempty"`
	KeyLen string            `json:"key_len,omitempty"`
	Msg    string            `json:"msg"`
	KV     map[string]string `json:"kv,omitempty"`
}

func (l *Logger) log(lv Level, ev Event) {
	if l == nil || lv < l.level {
		return
	}
	ev.Level = lv.String()
	ev.TS = NowUTC()
	ev.CorrID = l.corrID
	b, _ := json.Marshal(ev)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sink == nil {
		_, _ = os.Stderr.Write(append(b, '\n'))
		return
	}
	if err := l.sink.WriteLine(b); err != nil {
		fmt.Fprintf(os.Stderr, "logger sink error: %v\n", err)
		_, _ = os.Stderr.Write(append(b, '\n'))
	}
}

// Close 关闭底层文件。
func (l *Logger) Close() error {
	if l == nil || l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg string) *Timer {
	return l.StartWithKV(comp, msg, "", "", nil)
}

// StartWith 记录带 file_id/key_len 的 start。
func (l *Logger) StartWith(comp, msg, fileID, keyLen string) *Timer {
	return l.StartWithKV(comp, msg, fileID, keyLen, nil)
}

// StartWithKV 记录带 file_id/key_len 与键值的 start。
func (l *Logger) StartWithKV(comp, msg, fileID, keyLen string, kv map[string]string) *Timer {
	if l == nil {
		return nil
	}
	l.log(Info, Event{Comp: comp, Stage: "start", FileID: fileID, KeyLen: keyLen, Msg: msg, KV: kv})
	return &Timer{l: l, comp: comp, fileID: fileID, keyLen: keyLen, t0: time.Now()}
}

// ErrorWith 记录 error 事件。
func (l *Logger) ErrorWith(comp, code, msg string, durSince *time.Time, fileID, keyLen string) {
	l.ErrorWithKV(comp, code, msg, durSince, fileID, keyLen, nil)
}

// ErrorWithKV 记录带键值的 error 事件。
func (l *Logger) ErrorWithKV(comp, code, msg string, durSince *time.Time, fileID, keyLen string, kv map[string]string) {
	var dur int64
	if durSince != nil {
		dur = time.Since(*durSince).Milliseconds()
	}
	l.log(Error, Event{Comp: comp, Stage: "error", Code: code, DurMS: dur, Msg: msg, FileID: fileID, KeyLen: keyLen, KV: kv})
}

// Skip 记录被跳过的单元（候选不可行等非终止性错误），级别 warn。
func (l *Logger) Skip(comp, code, msg, fileID, keyLen string) {
	l.log(Warn, Event{Comp: comp, Stage: "skip", Code: code, Msg: msg, FileID: fileID, KeyLen: keyLen})
}

// DebugKV 输出调试事件（仅 level=debug 时生效）。
func (l *Logger) DebugKV(comp, msg, fileID, keyLen string, kv map[string]string) {
	l.log(Debug, Event{Comp: comp, Stage: "debug", FileID: fileID, KeyLen: keyLen, Msg: msg, KV: kv})
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l      *Logger
	comp   string
	fileID string
	keyLen string
	t0     time.Time
}

// Finish 记录 finish；可选 count。同时累计耗时指标。
func (t *Timer) Finish(msg string, count int64) {
	if t == nil || t.l == nil {
		return
	}
	dur := time.Since(t.t0).Milliseconds()
	ObserveDuration(t.comp, msg, dur)
	t.l.log(Info, Event{Comp: t.comp, Stage: "finish", DurMS: dur, Count: count, FileID: t.fileID, KeyLen: t.keyLen, Msg: msg})
}
