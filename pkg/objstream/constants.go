// Package objstream 将任意对象图编码为紧凑的二进制流并还原。
//
// 流由一串记录组成，每条对象记录形如：
//
//	object := PtrNull
//	        | PtrIndexed id:int32
//	        | PtrObject '[' (NameIndexed id:int32 | NameClass name:lstring) fields ']'
//
// 同一个会话内，同一实体只完整写出一次，之后以编号回溯引用，
// 因此共享引用与循环引用在还原后保持原有的拓扑。类型名同样只写出一次。
package objstream

// 指针标记，位于每个可空对象引用之前。
const (
	PtrNull    uint8 = 0
	PtrIndexed uint8 = 1
	PtrObject  uint8 = 2
)

// 类型名标记，位于前缀标记之后。
const (
	NameIndexed uint8 = 0
	NameClass   uint8 = 1
)

// 对象记录的边界标记。
const (
	PrefixMark uint8 = '['
	SuffixMark uint8 = ']'
)

const defaultMaxDepth = 10000
