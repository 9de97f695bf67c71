package log

import (
	"go.uber.org/zap"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNameDirection = "direction"
	FieldNameTypeName  = "typeName"
	FieldNameObjectID  = "objectID"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldTypeName 返回一个包含注册类型名的 zap 字段。
func FieldTypeName(name string) zap.Field {
	return zap.String(FieldNameTypeName, name)
}

// FieldObjectID 返回一个包含会话内对象编号的 zap 字段。
func FieldObjectID(id int32) zap.Field {
	return zap.Int32(FieldNameObjectID, id)
}
