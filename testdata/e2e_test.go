package testdata

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cfgpkg "vigcrack/internal/config"
	"vigcrack/internal/pipeline"
	"vigcrack/pkg/contract"
	"vigcrack/plugins/decryptor/vigenere"
)

var latin = contract.MustAlphabet(contract.Latin26)

// encryptRaw 以逆密钥调用 DecryptRaw，得到保留排版的密文。
func encryptRaw(t *testing.T, plain, key string) string {
	t.Helper()
	inv := make(contract.Key, 0, len(key))
	for _, r := range key {
		i, ok := latin.Index(r)
		if !ok {
			t.Fatalf("bad key symbol %q", r)
		}
		inv = append(inv, (latin.Size()-i)%latin.Size())
	}
	c, err := vigenere.New().DecryptRaw(latin, plain, inv)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	return c
}

// prepare 把明文样本加密后写入临时目录，返回 (输入目录, 原文)。
func prepare(t *testing.T, sample, name, key string) (string, string) {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("files", sample))
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(encryptRaw(t, string(b), key)), 0o644); err != nil {
		t.Fatalf("write cipher: %v", err)
	}
	return dir, string(b)
}

func baseConfig(input, outDir string) cfgpkg.Config {
	cfg := cfgpkg.DefaultTemplateConfig()
	cfg.Inputs = []string{input}
	cfg.Concurrency = 4
	cfg.Logging.Level = "error"
	cfg.Options.Writer = json.RawMessage(fmt.Sprintf(`{"output_dir":%q,"atomic":true,"flat":true}`, outDir))
	return cfg
}

func runPipeline(t *testing.T, cfg cfgpkg.Config) error {
	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return pipeline.Run(context.Background(), comp, set, nil)
}

type traceLine struct {
	FileID string   `json:"file_id"`
	Digest string   `json:"input_blake2b"`
	KeyLen int      `json:"key_len"`
	Status string   `json:"status"`
	Key    string   `json:"key"`
	Fit    *float64 `json:"fitness"`
	Best   bool     `json:"best"`
}

func readTrace(t *testing.T, path string) []traceLine {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read trace: %v", err)
	}
	var out []traceLine
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		var row traceLine
		if err := json.Unmarshal(sc.Bytes(), &row); err != nil {
			t.Fatalf("trace line %q: %v", sc.Text(), err)
		}
		out = append(out, row)
	}
	return out
}

func TestE2EEnglish(t *testing.T) {
	in, plain := prepare(t, "english.txt", "harbour.txt", "ORACLE")
	outDir := t.TempDir()
	cfg := baseConfig(in, outDir)
	cfg.Language = "en"
	if err := runPipeline(t, cfg); err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	key, err := os.ReadFile(filepath.Join(outDir, "harbour.txt"+pipeline.SuffixKey))
	if err != nil {
		t.Fatalf("read key: %v", err)
	}
	if got := strings.TrimSpace(string(key)); got != "ORACLE" {
		t.Fatalf("key=%q want ORACLE", got)
	}
	got, err := os.ReadFile(filepath.Join(outDir, "harbour.txt"+pipeline.SuffixPlain))
	if err != nil {
		t.Fatalf("read plaintext: %v", err)
	}
	if string(got) != plain {
		t.Fatalf("plaintext mismatch\nwant:\n%s\ngot:\n%s", plain, got)
	}

	rows := readTrace(t, filepath.Join(outDir, "harbour.txt"+pipeline.SuffixTrace))
	if len(rows) == 0 {
		t.Fatalf("empty trace")
	}
	best := 0
	for _, r := range rows {
		if r.Digest == "" || len(r.Digest) != 64 {
			t.Fatalf("bad digest %q", r.Digest)
		}
		if r.Best {
			best++
			if r.Status != string(contract.StatusSolved) || r.Fit == nil {
				t.Fatalf("best row not solved: %+v", r)
			}
		}
	}
	if best != 1 {
		t.Fatalf("expect exactly one best row, got %d", best)
	}
}

func TestE2EPortugueseYAMLProfile(t *testing.T) {
	in, plain := prepare(t, "portuguese.txt", "livraria.txt", "CHAVE")
	outDir := t.TempDir()
	cfg := baseConfig(in, outDir)
	cfg.ProfilePath = filepath.Join("profiles", "pt.yaml")
	if err := runPipeline(t, cfg); err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	key, _ := os.ReadFile(filepath.Join(outDir, "livraria.txt"+pipeline.SuffixKey))
	if got := strings.TrimSpace(string(key)); got != "CHAVE" {
		t.Fatalf("key=%q want CHAVE", got)
	}
	// 变音字母不属于字母表：原样保留
	got, _ := os.ReadFile(filepath.Join(outDir, "livraria.txt"+pipeline.SuffixPlain))
	if string(got) != plain {
		t.Fatalf("plaintext mismatch")
	}
}

// 同一批次中过短的文件不影响其他文件的产出
func TestE2EMixedBatch(t *testing.T) {
	in, _ := prepare(t, "english.txt", "good.txt", "KEY")
	if err := os.WriteFile(filepath.Join(in, "short.txt"), []byte("Xq, z!"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	outDir := t.TempDir()
	cfg := baseConfig(in, outDir)
	cfg.Language = "en"
	err := runPipeline(t, cfg)
	if !errors.Is(err, contract.ErrInsufficientData) {
		t.Fatalf("expect insufficient data, got %v", err)
	}
	if !strings.Contains(err.Error(), "short.txt") {
		t.Fatalf("error should name the file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "good.txt"+pipeline.SuffixKey)); err != nil {
		t.Fatalf("good file not processed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "short.txt"+pipeline.SuffixPlain)); err == nil {
		t.Fatalf("short file should not produce plaintext")
	}
	if _, err := os.Stat(filepath.Join(outDir, "short.txt"+pipeline.SuffixTrace)); err != nil {
		t.Fatalf("short file should still produce a trace: %v", err)
	}
}

// 开启 no_clobber 时重复运行失败且保留首次产物
func TestE2ENoClobber(t *testing.T) {
	in, _ := prepare(t, "english.txt", "again.txt", "LEMON")
	outDir := t.TempDir()
	cfg := baseConfig(in, outDir)
	cfg.Language = "en"
	cfg.Options.Writer = json.RawMessage(fmt.Sprintf(`{"output_dir":%q,"no_clobber":true}`, outDir))
	if err := runPipeline(t, cfg); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := runPipeline(t, cfg); err == nil {
		t.Fatalf("second run should refuse to overwrite")
	}
}
