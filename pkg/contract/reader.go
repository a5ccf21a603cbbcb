package contract

import (
	"context"
	"io"
)

// Reader: 密文来源抽象（文件/目录/STDIN）。
// 约束：
// 1) 按文件维度回调，调用方负责读取与关闭；
// 2) FileID 稳定且去平台差异化；
// 3) 不做解码/规范化，仅提供字节流；
// 4) 不在内部起并发。
type Reader interface {
	Iterate(ctx context.Context, roots []string, yield func(fileID FileID, r io.ReadCloser) error) error
}
