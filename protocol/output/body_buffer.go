package output

import (
	errs "github.com/favbox/spool/common/errors"
	"github.com/favbox/spool/common/mem"
)

var (
	errBufferFull      = errs.New(errs.ErrBufferFull, errs.ErrorTypeResource, nil)
	errBufferExhausted = errs.New(errs.ErrBufferExhausted, errs.ErrorTypeResource, nil)
)

// Entry 是正文缓冲区中的一段数据。
//
// Owned 为真表示内存来自分配器，写出后由刷新驱动归还；否则属于调用方，从不释放。
type Entry struct {
	Data  []byte
	Owned bool
}

// BodyBuffer 是可扩容的正文条目数组。
//
// 条目数达到容量后 Append 失败，必须先调用 Expand。
type BodyBuffer struct {
	entries []Entry
	factor  int
	max     int
	size    int64
}

// NewBodyBuffer 创建容量为 size 个条目的缓冲区，每次扩容乘以 factor，容量上限为 max。
func NewBodyBuffer(size, factor, max int) *BodyBuffer {
	if size <= 0 {
		size = 1
	}
	if factor < 2 {
		factor = 2
	}
	if max < size {
		max = size
	}
	return &BodyBuffer{
		entries: make([]Entry, 0, size),
		factor:  factor,
		max:     max,
	}
}

func (b *BodyBuffer) Kind() Kind { return KindBodyBuffer }

func (b *BodyBuffer) item() {}

// Size 返回已追加的字节总数。
func (b *BodyBuffer) Size() int64 {
	return b.size
}

// Len 返回条目数。
func (b *BodyBuffer) Len() int {
	return len(b.entries)
}

// Cap 返回当前容量。
func (b *BodyBuffer) Cap() int {
	return cap(b.entries)
}

// Full 报告缓冲区是否需要扩容。
func (b *BodyBuffer) Full() bool {
	return len(b.entries) >= cap(b.entries)
}

// Entries 返回全部条目，调用方不得修改返回的切片。
func (b *BodyBuffer) Entries() []Entry {
	return b.entries
}

// Append 追加一段数据。缓冲区已满时返回 ErrBufferFull，不做任何修改。
func (b *BodyBuffer) Append(data []byte, owned bool) error {
	if b.Full() {
		return errBufferFull
	}
	b.entries = append(b.entries, Entry{Data: data, Owned: owned})
	b.size += int64(len(data))
	return nil
}

// Expand 将容量乘以扩容倍数，保留原有条目及其归属标记。
// 新容量超过上限时返回 ErrBufferExhausted，缓冲区保持不变。
func (b *BodyBuffer) Expand() error {
	n := cap(b.entries) * b.factor
	if n > b.max {
		return errBufferExhausted
	}
	entries := make([]Entry, len(b.entries), n)
	copy(entries, b.entries)
	b.entries = entries
	return nil
}

// ReleaseEntry 归还第 i 个条目的自有内存。调用方的数据保持原样。
func (b *BodyBuffer) ReleaseEntry(i int, alloc mem.Allocator) {
	e := &b.entries[i]
	if e.Owned && e.Data != nil {
		alloc.Release(e.Data)
		e.Data = nil
	}
}

// Release 归还所有尚未归还的自有条目并清空缓冲区。
func (b *BodyBuffer) Release(alloc mem.Allocator) {
	for i := range b.entries {
		b.ReleaseEntry(i, alloc)
		b.entries[i] = Entry{}
	}
	b.entries = b.entries[:0]
	b.size = 0
}
