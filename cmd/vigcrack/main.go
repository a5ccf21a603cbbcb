package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	cfgpkg "vigcrack/internal/config"
	"vigcrack/internal/diag"
	"vigcrack/internal/pipeline"
	"vigcrack/pkg/contract"
	"vigcrack/plugins/writer/filesystem"
)

var pipelineRun = pipeline.Run

// 退出码
const (
	exitOK       = 0
	exitRuntime  = 1
	exitAnalysis = 2
	exitConfig   = 3
)

// 简化的 CLI：默认子命令 run。
// 位置参数为 roots（文件/目录 或 "-" 表示 STDIN，不能与其他根混用）。
func main() {
	os.Exit(run())
}

func run() int {
	start := time.Now()
	corrID := uuid.NewString()
	// 在任何 ENV 读取前，尝试加载工作目录下的 .env（不覆盖已有 ENV）。
	_ = loadDotEnv(".env")
	// 配置合并前无法得知日志目录，先写 stderr
	logger := diag.NewStderrLogger(corrID, "warn")
	var (
		flagConfig        string
		flagLang          string
		flagProfile       string
		flagConcurrency   int
		flagMaxKeyLen     int
		flagMinRepeat     int
		flagMaxCandidates int
		flagLogLevel      string
		flagInitDir       string
		flagStatus        bool
	)
	flag.StringVar(&flagConfig, "config", "", "配置文件路径（JSON）；缺省读取 ./config.json（若存在）")
	flag.StringVar(&flagLang, "lang", "", "内置语言分布 pt|en（覆盖配置）")
	flag.StringVar(&flagProfile, "profile", "", "YAML 频率表路径（优先于 --lang）")
	flag.IntVar(&flagConcurrency, "concurrency", 0, "候选求解并发度（覆盖配置）")
	flag.IntVar(&flagMaxKeyLen, "max-key-len", 0, "密钥长度上界（覆盖配置）")
	flag.IntVar(&flagMinRepeat, "min-repeat", 0, "Kasiski 重复子串最小长度（覆盖配置）")
	// max-candidates 允许显式设置为 0（全部）；默认 -1 表示“未覆盖”。
	flag.IntVar(&flagMaxCandidates, "max-candidates", -1, "参与求解的候选数上限（0 表示全部）")
	flag.StringVar(&flagLogLevel, "log-level", "", "日志级别 debug|info|warn|error（覆盖配置）")
	flag.StringVar(&flagInitDir, "init-config", "", "在指定目录生成默认配置 config.json 和 .env 模板（若已存在则跳过，不覆盖）；不带值时默认当前目录")
	flag.BoolVar(&flagStatus, "status", true, "终端状态提示（stderr）。TTY 动态刷新；非 TTY 打点输出")
	normalizeInitArg()
	// 旗标错误归入配置类退出码
	flag.CommandLine.Init(os.Args[0], flag.ContinueOnError)
	if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}

	roots := flag.Args()

	// --init-config: 生成模板并退出
	if initDir := strings.TrimSpace(flagInitDir); initDir != "" {
		if err := os.MkdirAll(initDir, 0o755); err != nil {
			fprintf(os.Stderr, "生成默认配置失败: %v\n", err)
			logger.ErrorWith("config", string(diag.Classify(err)), "init-config", &start, "", "")
			return exitConfig
		}
		if err := writeConfig(filepath.Join(initDir, "config.json"), cfgpkg.DefaultTemplateConfig()); err != nil {
			fprintf(os.Stderr, "生成默认配置失败: %v\n", err)
			logger.ErrorWith("config", string(diag.Classify(err)), "init-config", &start, "", "")
			return exitConfig
		}
		if err := writeDotEnv(filepath.Join(initDir, ".env")); err != nil {
			fprintf(os.Stderr, "提示：.env 生成失败（已跳过）：%v\n", err)
		}
		return exitOK
	}

	// JSON 配置（文件或 ENV: VIGCRACK_CONFIG_JSON）
	var cfgJSON []byte
	if s := os.Getenv(cfgpkg.EnvPrefix + "CONFIG_JSON"); s != "" {
		cfgJSON = []byte(s)
	}
	if flagConfig == "" {
		flagConfig = os.Getenv(cfgpkg.EnvPrefix + "CONFIG_FILE")
	}
	// 默认读取工作目录下 config.json（若存在）
	if flagConfig == "" {
		if _, err := os.Stat("config.json"); err == nil {
			flagConfig = "config.json"
		}
	}

	cfg := cfgpkg.Defaults()
	if flagConfig != "" || len(cfgJSON) > 0 {
		base, err := cfgpkg.LoadJSON(flagConfig, cfgJSON)
		if err != nil {
			fprintf(os.Stderr, "配置解析失败: %v\n", err)
			logger.ErrorWith("config", string(diag.Classify(err)), "load", &start, "", "")
			return exitConfig
		}
		cfg = cfgpkg.Merge(cfg, base)
	}

	overEnv, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		fprintf(os.Stderr, "环境变量解析失败: %v\n", err)
		logger.ErrorWith("config", string(diag.Classify(err)), "env", &start, "", "")
		return exitConfig
	}
	cfg = cfgpkg.Merge(cfg, overEnv)

	// CLI 覆盖
	overCLI := cfgpkg.Config{
		Inputs:        roots,
		Concurrency:   flagConcurrency,
		Language:      flagLang,
		ProfilePath:   flagProfile,
		MinRepeatLen:  flagMinRepeat,
		MaxKeyLen:     flagMaxKeyLen,
		MaxCandidates: flagMaxCandidates,
		Logging:       cfgpkg.Logging{Level: flagLogLevel},
	}
	cfg = cfgpkg.Merge(cfg, overCLI)

	if err := cfgpkg.Validate(cfg); err != nil {
		fprintf(os.Stderr, "配置校验失败: %v\n", err)
		// 打印有效配置，便于诊断
		_ = dumpConfig(cfg)
		logger.ErrorWith("config", string(diag.Classify(err)), "validate", &start, "", "")
		return exitConfig
	}

	// 使用最终配置重建 logger
	logger = diag.NewLogger(corrID, cfg.Logging.Level, cfg.Logging.Dir).WithKeep(cfg.Logging.Keep)
	defer logger.Close()

	if err := checkOutputDir(cfg); err != nil {
		fprintf(os.Stderr, "输出目录不可写或无法创建: %v\n", err)
		logger.ErrorWith("config", string(diag.Classify(err)), "preflight", &start, "", "")
		return exitConfig
	}

	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		fprintf(os.Stderr, "装配失败: %v\n", err)
		logger.ErrorWith("config", string(diag.Classify(err)), "assemble", &start, "", "")
		return exitConfig
	}

	term := diag.NewTerminal(os.Stderr, flagStatus)
	diag.SetTerminal(term)
	defer diag.SetTerminal(nil)
	term.RunStart(set.Concurrency, set.Profile.Name)

	logger.DebugKV("config", "effective", "", "", map[string]string{
		"inputs_count":   strconv.Itoa(len(cfg.Inputs)),
		"concurrency":    strconv.Itoa(cfg.Concurrency),
		"profile":        set.Profile.Name,
		"profile_path":   cfg.ProfilePath,
		"min_repeat_len": strconv.Itoa(cfg.MinRepeatLen),
		"max_key_len":    strconv.Itoa(cfg.MaxKeyLen),
		"min_column_len": strconv.Itoa(cfg.MinColumnLen),
		"max_candidates": strconv.Itoa(cfg.MaxCandidates),
		"reader":         cfg.Components.Reader,
		"normalizer":     cfg.Components.Normalizer,
		"estimator":      cfg.Components.Estimator,
		"solver":         cfg.Components.Solver,
		"decryptor":      cfg.Components.Decryptor,
		"ranker":         cfg.Components.Ranker,
		"writer":         cfg.Components.Writer,
	})
	defer dumpMetrics(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	t := logger.Start("pipeline", "run")
	if err := pipelineRun(ctx, comp, set, logger); err != nil {
		code := string(diag.Classify(err))
		logger.ErrorWith("pipeline", code, "first error", &start, "", "")
		diag.IncOp("pipeline", "error", "error")
		if code != string(diag.CodeUnknown) {
			diag.IncError("pipeline", code)
		}
		if !errors.Is(err, context.Canceled) {
			fprintf(os.Stderr, "运行失败: %v\n", err)
		}
		term.RunFinish(false, time.Since(start))
		if errors.Is(err, contract.ErrAnalysisImpossible) || errors.Is(err, contract.ErrInsufficientData) {
			return exitAnalysis
		}
		return exitRuntime
	}
	t.Finish("run", int64(len(set.Inputs)))
	diag.IncOp("pipeline", "finish", "success")
	term.RunFinish(true, time.Since(start))
	return exitOK
}

func fprintf(w *os.File, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

// dumpMetrics: debug 级别下输出进程内计数快照。
func dumpMetrics(l *diag.Logger) {
	kv := map[string]string{}
	for _, m := range diag.Snapshot() {
		kv[m.Name] = strconv.FormatInt(m.Value, 10)
	}
	if len(kv) > 0 {
		l.DebugKV("metrics", "snapshot", "", "", kv)
	}
}

func dumpConfig(c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	_, _ = os.Stderr.Write(append([]byte("有效配置:\n"), b...))
	_, _ = os.Stderr.Write([]byte("\n"))
	return nil
}

func writeConfig(path string, c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = os.Stdout.Write(append(b, '\n'))
		return err
	}
	// 不覆盖已存在文件
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(b, '\n'))
	return err
}

// loadDotEnv 把 .env 中尚未设置的变量注入进程环境；文件不存在时忽略。
func loadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	entries, err := cfgpkg.ReadDotEnv(f)
	for _, kv := range entries {
		k, v, _ := strings.Cut(kv, "=")
		if _, set := os.LookupEnv(k); !set {
			_ = os.Setenv(k, v)
		}
	}
	return err
}

// normalizeInitArg: 允许 --init-config 在未提供路径值时采用当前目录 "."。
//
//	--init-config                => --init-config .
//	--init-config=out
//	--init-config out
func normalizeInitArg() {
	args := os.Args
	if len(args) <= 1 {
		return
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[0])
	for i := 1; i < len(args); i++ {
		a := args[i]
		out = append(out, a)
		if a == "--init-config" || a == "-init-config" {
			if i == len(args)-1 || strings.HasPrefix(args[i+1], "-") {
				out = append(out, ".")
			}
		}
	}
	os.Args = out
}

// writeDotEnv 生成 .env 模板（若文件已存在则跳过）。
func writeDotEnv(path string) error {
	var b strings.Builder
	b.WriteString("# vigcrack .env 模板（由 --init-config 生成）\n")
	b.WriteString("# 优先级：CLI > ENV(.env) > JSON\n")
	b.WriteString("# 空值表示未设置。\n\n")

	b.WriteString("# 配置来源（可二选一）\n")
	for _, k := range []string{"CONFIG_FILE", "CONFIG_JSON"} {
		b.WriteString(cfgpkg.EnvPrefix + k + "=\n")
	}
	b.WriteString("\n# 运行参数覆盖\n")
	for _, k := range []string{
		"INPUTS", "CONCURRENCY", "LANGUAGE", "PROFILE_PATH",
		"MIN_REPEAT_LEN", "MAX_KEY_LEN", "MIN_COLUMN_LEN", "MAX_CANDIDATES",
		"LOG_LEVEL", "LOG_DIR", "LOG_KEEP",
	} {
		b.WriteString(cfgpkg.EnvPrefix + k + "=\n")
	}
	b.WriteString("\n# 组件选择\n")
	for _, k := range []string{"READER", "NORMALIZER", "ESTIMATOR", "SOLVER", "DECRYPTOR", "RANKER", "WRITER"} {
		b.WriteString(cfgpkg.EnvPrefix + "COMPONENTS_" + k + "=\n")
	}
	b.WriteString("\n# 组件选项（原样 JSON）\n")
	b.WriteString(cfgpkg.EnvPrefix + "OPTIONS_WRITER_JSON=\n")

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	_, err = f.WriteString(b.String())
	return err
}

// checkOutputDir: fs Writer 在启动前检查输出目录；output_dir 缺失时留给装配阶段报错。
func checkOutputDir(cfg cfgpkg.Config) error {
	if name := strings.TrimSpace(cfg.Components.Writer); name != "" && name != "fs" {
		return nil
	}
	var opts filesystem.Options
	if len(cfg.Options.Writer) > 0 {
		_ = json.Unmarshal(cfg.Options.Writer, &opts)
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return nil
	}
	return filesystem.CheckWritable(opts.OutputDir)
}
