package compressor

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4Compressor 使用 lz4 帧格式。帧内记录了原始长度与校验和，
// 解压时不需要预估缓冲区大小。
type LZ4Compressor struct {
	level lz4.CompressionLevel
}

var _ Compressor = (*LZ4Compressor)(nil)

func NewLZ4Compressor() *LZ4Compressor {
	return &LZ4Compressor{level: lz4.Fast}
}

func (c *LZ4Compressor) Code() Code { return CodeLZ4 }

func (c *LZ4Compressor) Compress(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst[:0])
	w := lz4.NewWriter(buf)
	if err := w.Apply(lz4.CompressionLevelOption(c.level), lz4.ChecksumOption(true)); err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	// 必须在读取 buf 之前 Close，否则帧尾尚未写出。
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *LZ4Compressor) Decompress(dst, src []byte, limit int) ([]byte, error) {
	if err := checkLimit(0, limit); err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(dst[:0])
	// 多读一个字节用于判断是否超出 limit。
	r := io.LimitReader(lz4.NewReader(bytes.NewReader(src)), int64(limit)+1)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}
	if err := checkLimit(buf.Len(), limit); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
