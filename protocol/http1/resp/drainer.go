package resp

import (
	"io"

	errs "github.com/favbox/spool/common/errors"
	"github.com/favbox/spool/common/hlog"
	"github.com/favbox/spool/common/mem"
	"github.com/favbox/spool/network"
	"github.com/favbox/spool/protocol/http1/ext"
	"github.com/favbox/spool/protocol/output"
)

// Drainer 按顺序将输出队列写出到连接，可分多轮完成。
//
// 内存条目写出并刷新后，自有条目立即归还分配器；文件片段写完即关闭。
// 同一时刻只能有一个协程调用 Drain。
type Drainer struct {
	w       network.Writer
	alloc   mem.Allocator
	quantum int64

	q         *output.Queue
	announced int64
	chunked   bool

	// 续写游标
	item    int
	entry   int
	offset  int64
	written int64
	overrun bool
	done    bool
}

// NewDrainer 创建写入 w 的刷新驱动。quantum 是单轮最多写出的正文字节数，<= 0 表示不限。
func NewDrainer(w network.Writer, alloc mem.Allocator, quantum int) *Drainer {
	if alloc == nil {
		alloc = mem.Default()
	}
	return &Drainer{w: w, alloc: alloc, quantum: int64(quantum)}
}

// Reset 绑定待刷新的队列。contentLength 是响应头中声明的长度，-1 表示分块传输。
func (d *Drainer) Reset(q *output.Queue, contentLength int64) {
	d.q = q
	d.announced = contentLength
	d.chunked = contentLength < 0
	d.item, d.entry, d.offset, d.written = 0, 0, 0, 0
	d.overrun, d.done = false, false
}

// Written 返回已写出的正文字节数（不含分块编码开销）。
func (d *Drainer) Written() int64 {
	return d.written
}

// Overrun 报告定长响应写出的正文是否超过了响应头声明的长度。
//
// 超出的字节会被客户端当作下一个响应的开头，连接不能再复用。
func (d *Drainer) Overrun() bool {
	return d.overrun
}

// Drain 执行一轮刷新，本轮额度用完时返回 FlushPending。
//
// 写出失败时返回 FlushDone 和传输错误，不做重试。
func (d *Drainer) Drain() (output.FlushStatus, error) {
	if d.done {
		return output.FlushDone, nil
	}

	budget := d.quantum
	items := d.q.Items()
	for d.item < len(items) {
		var (
			finished bool
			err      error
		)
		switch it := items[d.item].(type) {
		case *output.BodyBuffer:
			finished, err = d.drainBuffer(it, &budget)
		case *output.SendFile:
			finished, err = d.drainFile(it, &budget)
		}
		if err != nil {
			d.done = true
			return output.FlushDone, errs.New(err, errs.ErrorTypeTransport, nil)
		}
		if !finished {
			return output.FlushPending, nil
		}
		d.item++
		d.entry, d.offset = 0, 0
	}

	d.done = true
	if d.chunked {
		if err := ext.WriteLastChunk(d.w); err != nil {
			return output.FlushDone, errs.New(err, errs.ErrorTypeTransport, nil)
		}
	} else if err := d.w.Flush(); err != nil {
		return output.FlushDone, errs.New(err, errs.ErrorTypeTransport, nil)
	}
	return output.FlushDone, nil
}

func (d *Drainer) drainBuffer(b *output.BodyBuffer, budget *int64) (bool, error) {
	entries := b.Entries()
	start := d.entry
	for d.entry < len(entries) {
		if d.quantum > 0 && *budget <= 0 {
			break
		}
		data := entries[d.entry].Data
		if err := d.write(data); err != nil {
			return false, err
		}
		*budget -= int64(len(data))
		d.entry++
	}

	// 写入器可能引用 data 而不拷贝，刷新后才能归还
	if err := d.w.Flush(); err != nil {
		return false, err
	}
	for i := start; i < d.entry; i++ {
		b.ReleaseEntry(i, d.alloc)
	}
	return d.entry == len(entries), nil
}

func (d *Drainer) drainFile(f *output.SendFile, budget *int64) (bool, error) {
	if d.quantum > 0 && *budget <= 0 {
		return false, nil
	}
	remain := f.Size() - d.offset
	n := remain
	if d.quantum > 0 && *budget < n {
		n = *budget
	}

	r := io.LimitReader(f.Reader(d.offset), n)
	var err error
	if d.chunked {
		err = ext.WriteBodyChunked(d.w, r)
	} else {
		err = ext.WriteBodyFixedSize(d.w, r, n)
	}
	if err != nil {
		return false, err
	}

	d.offset += n
	*budget -= n
	d.count(n)
	if d.offset < f.Size() {
		return false, nil
	}
	f.Release(d.alloc)
	return true, nil
}

func (d *Drainer) write(p []byte) (err error) {
	if d.chunked {
		err = ext.WriteChunk(d.w, p, false)
	} else {
		_, err = d.w.WriteBinary(p)
	}
	if err == nil {
		d.count(int64(len(p)))
	}
	return
}

func (d *Drainer) count(n int64) {
	d.written += n
	if !d.chunked && !d.overrun && d.written > d.announced {
		d.overrun = true
		hlog.SystemLogger().Warnf("正文已超过响应头声明的长度：Content-Length=%d，已写出=%d", d.announced, d.written)
	}
}
