//go:build (linux || windows || darwin) && amd64 && !stdjson

// Package json 选择响应渲染使用的 JSON 实现：amd64 下使用 sonic，其他平台或带 stdjson 标签时使用标准库。
package json

import "github.com/bytedance/sonic"

// Name 是生效的 JSON 包名。
const Name = "sonic"

var (
	json = sonic.ConfigStd
	// Marshal 是 PrintJSON 使用的 sonic 编码实现。
	Marshal = json.Marshal
	// Unmarshal 是 sonic 解码实现，主要用于校验输出。
	Unmarshal = json.Unmarshal
)
