package objstream

// Tracer 观察编解码过程中的每条记录，编码与解码触发相同的事件序列。
type Tracer interface {
	OnNull()
	OnBackReference(id int32)
	// OnObjectBegin 在对象登记编号后、字段读写前触发，newType 表示类型名首次出现。
	OnObjectBegin(id int32, typeName string, newType bool)
	OnObjectEnd(id int32)
}

// NopTracer 忽略所有事件。
type NopTracer struct{}

func (NopTracer) OnNull() {}
func (NopTracer) OnBackReference(int32) {}
func (NopTracer) OnObjectBegin(int32, string, bool) {}
func (NopTracer) OnObjectEnd(int32) {}

// Stats 汇总一次会话中的记录数量。
type Stats struct {
	Objects        int   `json:"objects"`
	BackReferences int   `json:"backReferences"`
	Nulls          int   `json:"nulls"`
	Types          int   `json:"types"`
	Bytes          int64 `json:"bytes"`
}
