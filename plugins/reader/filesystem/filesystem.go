package filesystem

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vigcrack/pkg/contract"
)

// Options 为密文文件 Reader 的可选配置（最小必要）。
type Options struct {
	// BufSize 为读缓冲区大小（字节）。默认 64KiB。
	BufSize int `json:"buf_size"`
	// ExcludeDirNames: 扫描目录时跳过的目录基名（大小写不敏感），如 [".git"]。
	ExcludeDirNames []string `json:"exclude_dir_names"`
	// Extensions: 目录扫描时仅接受这些扩展名（如 [".txt",".enc"]）；空表示全部。
	// 显式列出的单文件 root 不受影响。
	Extensions []string `json:"extensions"`
	// MaxBytes: 单份密文的字节上限；超出时该文件读取报错。<=0 表示不限。
	MaxBytes int64 `json:"max_bytes"`
}

// FileSystem 从文件、目录或 STDIN 读取密文。
type FileSystem struct {
	bufSize    int
	maxBytes   int64
	excludeDir map[string]struct{}
	exts       map[string]struct{}
}

// ErrTooLarge: 密文超过 MaxBytes。
var ErrTooLarge = errors.New("ciphertext exceeds max_bytes")

// New 创建 FileSystem Reader。
func New(opts *Options) *FileSystem {
	r := &FileSystem{bufSize: 64 * 1024, excludeDir: map[string]struct{}{}, exts: map[string]struct{}{}}
	if opts == nil {
		return r
	}
	if opts.BufSize > 0 {
		r.bufSize = opts.BufSize
	}
	r.maxBytes = opts.MaxBytes
	for _, name := range opts.ExcludeDirNames {
		if name = strings.Trim(name, `/\`); name != "" {
			r.excludeDir[strings.ToLower(name)] = struct{}{}
		}
	}
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		r.exts[ext] = struct{}{}
	}
	return r
}

var _ contract.Reader = (*FileSystem)(nil)

type yieldFunc = func(contract.FileID, io.ReadCloser) error

// Iterate 按稳定顺序对每份密文调用 yield。
// roots 为空或仅含 "-" 时读取 STDIN；"-" 不得与其他 root 混用。
func (r *FileSystem) Iterate(ctx context.Context, roots []string, yield yieldFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(roots) == 0 || (len(roots) == 1 && roots[0] == "-") {
		return yield(contract.FileID("stdin"), r.wrap(os.Stdin))
	}
	for _, s := range roots {
		if s == "-" {
			return fmt.Errorf("%w: stdin '-' cannot be mixed with other roots", contract.ErrInvalidInput)
		}
	}
	for _, root := range roots {
		if err := r.iterateOne(ctx, root, yield); err != nil {
			return err
		}
	}
	return nil
}

func (r *FileSystem) iterateOne(ctx context.Context, root string, yield yieldFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Stat 跟随符号链接：失效链接报错，指向目录的链接不展开
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	linfo, err := os.Lstat(root)
	if err != nil {
		return err
	}
	if info.IsDir() {
		if linfo.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		return r.walkDir(ctx, root, yield)
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	return r.emit(root, yield)
}

func (r *FileSystem) walkDir(ctx context.Context, dir string, yield yieldFunc) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	// 先子目录，再文件
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.IsDir() {
			continue
		}
		if _, skip := r.excludeDir[strings.ToLower(e.Name())]; skip {
			continue
		}
		if err := r.walkDir(ctx, filepath.Join(dir, e.Name()), yield); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() || !r.accept(e.Name()) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		// 指向目录的链接、设备、FIFO 等均忽略
		if !info.Mode().IsRegular() {
			continue
		}
		if err := r.emit(p, yield); err != nil {
			return err
		}
	}
	return nil
}

func (r *FileSystem) accept(name string) bool {
	if len(r.exts) == 0 {
		return true
	}
	_, ok := r.exts[strings.ToLower(filepath.Ext(name))]
	return ok
}

func (r *FileSystem) emit(p string, yield yieldFunc) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	rc := r.wrap(f)
	if err := yield(contract.NormalizeFileID(p), rc); err != nil {
		_ = rc.Close()
		return err
	}
	return nil
}

func (r *FileSystem) wrap(c io.ReadCloser) io.ReadCloser {
	var rd io.Reader = bufio.NewReaderSize(c, r.bufSize)
	if r.maxBytes > 0 {
		rd = &limitReader{r: rd, left: r.maxBytes}
	}
	return &readCloser{Reader: rd, c: c}
}

type readCloser struct {
	io.Reader
	c io.Closer
}

func (b *readCloser) Close() error { return b.c.Close() }

// limitReader 与 io.LimitReader 不同：超限时报错而非静默截断。
type limitReader struct {
	r    io.Reader
	left int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	if l.left < 0 {
		return 0, ErrTooLarge
	}
	if int64(len(p)) > l.left+1 {
		p = p[:l.left+1]
	}
	n, err := l.r.Read(p)
	l.left -= int64(n)
	if l.left < 0 {
		return n + int(l.left), ErrTooLarge
	}
	return n, err
}
