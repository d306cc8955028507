//go:build stdjson || !(amd64 && (linux || windows || darwin))

// Package json 选择响应渲染使用的 JSON 实现：amd64 下使用 sonic，其他平台或带 stdjson 标签时使用标准库。
package json

import "encoding/json"

// Name 是生效的 JSON 包名。
const Name = "encoding/json"

var (
	// Marshal 是 PrintJSON 使用的标准库编码实现。
	Marshal = json.Marshal
	// Unmarshal 是标准库解码实现，主要用于校验输出。
	Unmarshal = json.Unmarshal
)
