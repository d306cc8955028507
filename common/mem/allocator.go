// Package mem 定义响应组装使用的内存分配器。
//
// Printf 等操作的临时缓冲区都经由分配器申请、扩容与释放，
// 刷新驱动在写出"缓冲区自有"的条目后将其归还给同一个分配器。
package mem

import (
	"github.com/bytedance/gopkg/lang/mcache"
)

// Allocator 是缓冲区的分配、扩容与释放接口。
type Allocator interface {
	// Allocate 分配长度为 n 的缓冲区。
	Allocate(n int) ([]byte, error)

	// Grow 将 b 扩容至长度 n，保留原有内容。
	// 成功后不得再访问 b；失败时 b 仍归调用方所有。
	Grow(b []byte, n int) ([]byte, error)

	// Release 归还 b。归还后不得再访问 b。
	Release(b []byte)
}

// Default 返回基于 mcache 的分配器，所有响应共享。
func Default() Allocator {
	return mcacheAllocator{}
}

type mcacheAllocator struct{}

func (mcacheAllocator) Allocate(n int) ([]byte, error) {
	return mcache.Malloc(n), nil
}

func (mcacheAllocator) Grow(b []byte, n int) ([]byte, error) {
	if n <= cap(b) {
		return b[:n], nil
	}
	nb := mcache.Malloc(n)
	copy(nb, b)
	mcache.Free(b)
	return nb, nil
}

func (mcacheAllocator) Release(b []byte) {
	// mcache 只回收容量为 2 的幂的切片，其余交给 GC
	mcache.Free(b)
}
