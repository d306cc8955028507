// Package output 实现响应的输出队列。
//
// 队列按发送顺序保存两类条目：内存中的正文缓冲区（BodyBuffer）和待流式发送的文件片段（SendFile）。
// 队列及其条目归单个响应独占，非并发安全。
package output

import (
	errs "github.com/favbox/spool/common/errors"
	"github.com/favbox/spool/common/mem"
)

// Kind 是队列条目的类型标记。
type Kind uint8

const (
	KindBodyBuffer Kind = iota + 1
	KindSendFile
)

func (k Kind) String() string {
	switch k {
	case KindBodyBuffer:
		return "body_buffer"
	case KindSendFile:
		return "sendfile"
	}
	return "unknown"
}

// Item 是队列条目，只有 *BodyBuffer 和 *SendFile 两种实现。
type Item interface {
	// Kind 返回构造时确定的条目类型。
	Kind() Kind

	// Size 返回条目将写出的正文字节数。
	Size() int64

	// Release 释放条目持有的资源，可重复调用。
	Release(alloc mem.Allocator)

	item()
}

var errQueueSealed = errs.New(errs.ErrQueueSealed, errs.ErrorTypeMisuse, nil)

// Queue 是先进先出的输出队列。
type Queue struct {
	items  []Item
	sealed bool
}

// NewQueue 创建空队列。
func NewQueue() *Queue {
	return &Queue{}
}

// Append 在队尾追加条目。队列封存后返回 ErrQueueSealed。
func (q *Queue) Append(it Item) error {
	if q.sealed {
		return errQueueSealed
	}
	q.items = append(q.items, it)
	return nil
}

// Last 返回队尾条目，队列为空时返回 nil。
func (q *Queue) Last() Item {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[len(q.items)-1]
}

// Len 返回条目数。
func (q *Queue) Len() int {
	return len(q.items)
}

// Items 按发送顺序返回全部条目，调用方不得修改返回的切片。
func (q *Queue) Items() []Item {
	return q.items
}

// Size 返回当前排队的正文总字节数。
func (q *Queue) Size() (n int64) {
	for _, it := range q.items {
		n += it.Size()
	}
	return
}

// Seal 封存队列，此后不再接受任何修改。
func (q *Queue) Seal() {
	q.sealed = true
}

func (q *Queue) Sealed() bool {
	return q.sealed
}

// Release 释放所有条目的资源并清空队列，队列保持封存。
func (q *Queue) Release(alloc mem.Allocator) {
	for i, it := range q.items {
		it.Release(alloc)
		q.items[i] = nil
	}
	q.items = q.items[:0]
	q.sealed = true
}
