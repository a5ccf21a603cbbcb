package diag

import (
	"sort"
	"strings"
	"sync"
)

// 进程内计数器：
// - op_total{comp,stage,result}
// - error_total{comp,code}
// - op_duration_ms_sum{comp,stage}
// 仅用于 --status 与测试观测，不导出到外部系统。
var (
	metricsMu sync.Mutex
	counters  = map[string]int64{}
)

func key(name string, labels ...string) string {
	return name + "{" + strings.Join(labels, ",") + "}"
}

func add(k string, v int64) {
	metricsMu.Lock()
	counters[k] += v
	metricsMu.Unlock()
}

// IncOp 累加操作计数（result=success|error|skip）。
func IncOp(comp, stage, result string) { add(key("op_total", comp, stage, result), 1) }

// IncError 按分类累加错误计数。
func IncError(comp, code string) { add(key("error_total", comp, code), 1) }

// ObserveDuration 累加阶段耗时（毫秒）。
func ObserveDuration(comp, stage string, durMS int64) {
	add(key("op_duration_ms_sum", comp, stage), durMS)
}

// Record 同时记录错误日志与计数，便于在各阶段统一调用。
func Record(l *Logger, comp, msg string, err error, fileID, keyLen string) {
	code := Classify(err)
	l.ErrorWithKV(comp, string(code), msg, nil, fileID, keyLen, map[string]string{"err": err.Error()})
	IncOp(comp, "error", "error")
	if code != CodeUnknown {
		IncError(comp, string(code))
	}
}

// Metric 为快照中的一项。
type Metric struct {
	Name  string
	Value int64
}

// Snapshot 返回当前计数（按名称排序）。
func Snapshot() []Metric {
	metricsMu.Lock()
	out := make([]Metric, 0, len(counters))
	for k, v := range counters {
		out = append(out, Metric{Name: k, Value: v})
	}
	metricsMu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ResetMetrics 清空计数（测试使用）。
func ResetMetrics() {
	metricsMu.Lock()
	counters = map[string]int64{}
	metricsMu.Unlock()
}
