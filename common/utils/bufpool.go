// Package utils 提供刷新驱动使用的拷贝工具。
package utils

import "sync"

// CopyBufPool 拷贝缓冲池。默认长度为 4KB。
var CopyBufPool = sync.Pool{
	New: func() any {
		return make([]byte, 4096)
	},
}
