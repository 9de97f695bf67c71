// Package json 基于 bytedance/sonic 提供与 encoding/json 兼容的编解码入口。
package json

import (
	"github.com/bytedance/sonic"
)

// api 使用标准库兼容配置，map 的键按字典序输出。
var api = sonic.ConfigStd

func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}
