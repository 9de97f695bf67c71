// Package inspect 解码对象流并统计其结构，不关心具体实体的内容。
package inspect

import (
	"bytes"
	"context"
	"io"

	"github.com/lk2023060901/objgraph-go/internal/json"
	"github.com/lk2023060901/objgraph-go/internal/snapshot"
	"github.com/lk2023060901/objgraph-go/internal/snapshot/compressor"
	"github.com/lk2023060901/objgraph-go/pkg/objstream"
)

// Report 是一段对象流的结构统计。
type Report struct {
	Source         string         `json:"source,omitempty"`
	Roots          int            `json:"roots"`
	Objects        int            `json:"objects"`
	BackReferences int            `json:"backReferences"`
	Nulls          int            `json:"nulls"`
	Bytes          int64          `json:"bytes"`
	MaxDepth       int            `json:"maxDepth"`
	Types          map[string]int `json:"types"`

	// 以下字段仅在检查快照时填写。
	Version    string `json:"version,omitempty"`
	RootType   string `json:"rootType,omitempty"`
	Flags      uint64 `json:"flags,omitempty"`
	Compressor string `json:"compressor,omitempty"`
	Timestamp  int64  `json:"timestamp,omitempty"`
}

// JSON 以缩进格式输出报告。
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

var _ objstream.Tracer = (*collector)(nil)

// collector 按 Tracer 事件累计类型计数与嵌套深度。
type collector struct {
	types    map[string]int
	depth    int
	maxDepth int
}

func (c *collector) OnNull() {}

func (c *collector) OnBackReference(int32) {}

func (c *collector) OnObjectBegin(_ int32, typeName string, _ bool) {
	c.types[typeName]++
	c.depth++
	if c.depth > c.maxDepth {
		c.maxDepth = c.depth
	}
}

func (c *collector) OnObjectEnd(int32) {
	c.depth--
}

// Inspect 逐个解码 r 中的顶层记录直到流结束。registry 必须能够构造流中出现的所有类型。
func Inspect(r io.Reader, registry *objstream.Registry, opts ...objstream.Option) (*Report, error) {
	c := &collector{types: make(map[string]int)}
	opts = append(opts, objstream.WithRegistry(registry), objstream.WithTracer(c))
	dec := objstream.NewDecoder(r, opts...)

	report := &Report{}
	for dec.More() {
		if _, err := dec.ReadObject(); err != nil {
			return nil, err
		}
		report.Roots++
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}

	st := dec.Stats()
	report.Objects = st.Objects
	report.BackReferences = st.BackReferences
	report.Nulls = st.Nulls
	report.Bytes = st.Bytes
	report.MaxDepth = c.maxDepth
	report.Types = c.types
	return report, nil
}

// InspectSnapshot 读取一帧快照，检查其中的对象流并附上头部信息。
func InspectSnapshot(ctx context.Context, codec *snapshot.Codec, r io.Reader) (*Report, error) {
	header, raw, err := codec.DecodeRaw(ctx, r)
	if err != nil {
		return nil, err
	}
	report, err := Inspect(bytes.NewReader(raw), codec.Registry())
	if err != nil {
		return nil, err
	}
	report.Version = header.Version
	report.RootType = header.RootType
	report.Flags = header.Flags
	report.Timestamp = header.Timestamp
	report.Compressor = compressor.Code(header.Compressor).String()
	return report, nil
}
