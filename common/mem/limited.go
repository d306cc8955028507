package mem

import (
	errs "github.com/favbox/spool/common/errors"
)

var errAllocLimit = errs.New(errs.ErrAllocLimit, errs.ErrorTypeResource, nil)

// Limited 是有字节预算的分配器，按容量记账。
//
// 每个响应持有一个 Limited，用于限制单个响应占用的内存，
// 预算耗尽时 Allocate 和 Grow 返回 ErrAllocLimit。非并发安全。
type Limited struct {
	parent Allocator
	max    int
	used   int
}

// NewLimited 创建最多持有 max 字节的分配器。max <= 0 表示不限制。
func NewLimited(parent Allocator, max int) *Limited {
	if parent == nil {
		parent = Default()
	}
	return &Limited{parent: parent, max: max}
}

// Used 返回当前持有的字节数。
func (l *Limited) Used() int {
	return l.used
}

func (l *Limited) Allocate(n int) ([]byte, error) {
	if l.max > 0 && l.used+n > l.max {
		return nil, errAllocLimit
	}
	b, err := l.parent.Allocate(n)
	if err != nil {
		return nil, err
	}
	l.used += cap(b)
	return b, nil
}

func (l *Limited) Grow(b []byte, n int) ([]byte, error) {
	if n <= cap(b) {
		return b[:n], nil
	}
	if l.max > 0 && l.used-cap(b)+n > l.max {
		return nil, errAllocLimit
	}
	old := cap(b)
	nb, err := l.parent.Grow(b, n)
	if err != nil {
		return nil, err
	}
	l.used += cap(nb) - old
	return nb, nil
}

func (l *Limited) Release(b []byte) {
	l.used -= cap(b)
	if l.used < 0 {
		l.used = 0
	}
	l.parent.Release(b)
}

// Heap 是直接使用 make 分配的分配器，释放交给 GC，容量与请求长度一致。
type Heap struct{}

func (Heap) Allocate(n int) ([]byte, error) {
	return make([]byte, n), nil
}

func (Heap) Grow(b []byte, n int) ([]byte, error) {
	if n <= cap(b) {
		return b[:n], nil
	}
	nb := make([]byte, n)
	copy(nb, b)
	return nb, nil
}

func (Heap) Release([]byte) {}
