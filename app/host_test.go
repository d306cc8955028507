package app

import (
	"time"

	"github.com/favbox/spool/common/config"
	"github.com/favbox/spool/common/mem"
	"github.com/favbox/spool/common/mock"
	"github.com/favbox/spool/network"
	"github.com/favbox/spool/protocol/http1/resp"
	"github.com/favbox/spool/protocol/output"
)

// recordingAllocator 记录分配、扩容与归还。
type recordingAllocator struct {
	mem.Heap
	allocs   []int
	grows    []int
	released int
}

func (a *recordingAllocator) Allocate(n int) ([]byte, error) {
	a.allocs = append(a.allocs, n)
	return a.Heap.Allocate(n)
}

func (a *recordingAllocator) Grow(b []byte, n int) ([]byte, error) {
	a.grows = append(a.grows, n)
	return a.Heap.Grow(b, n)
}

func (a *recordingAllocator) Release(b []byte) {
	a.released++
}

// testHost 把响应写到内存连接，刷新使用真实的刷新驱动。
type testHost struct {
	conn    network.Conn
	poller  *mock.Poller
	alloc   mem.Allocator
	drainer *resp.Drainer

	// async 为真时 FlushQueue 只返回 FlushPending，由 finish 完成刷新
	async       bool
	transmitErr error
	transmits   int
	ended       int
}

func newTestHost(conn network.Conn) *testHost {
	alloc := &recordingAllocator{}
	return &testHost{
		conn:    conn,
		poller:  mock.NewPoller(),
		alloc:   alloc,
		drainer: resp.NewDrainer(conn, alloc, 0),
	}
}

func (h *testHost) TransmitHeader(statusCode int, contentLength int64, lines [][]byte) error {
	if h.transmitErr != nil {
		return h.transmitErr
	}
	h.transmits++
	return resp.WriteHeader(h.conn, statusCode, contentLength, lines)
}

func (h *testHost) ChangeMode(mode network.Mode, timeout time.Duration) error {
	return h.poller.ChangeMode(h.conn, mode, timeout)
}

func (h *testHost) FlushQueue(r *ResponseContext) (output.FlushStatus, error) {
	h.drainer.Reset(r.Queue(), r.ContentLength())
	if h.async {
		return output.FlushPending, nil
	}
	return h.drainer.Drain()
}

func (h *testHost) finish(r *ResponseContext) {
	for {
		status, err := h.drainer.Drain()
		if status == output.FlushDone {
			r.Flushed(err)
			return
		}
	}
}

func (h *testHost) ServiceEnd(*ResponseContext) {
	h.ended++
}

func (h *testHost) WriteRaw(p []byte) (int, error) {
	n, err := h.conn.WriteBinary(p)
	if err != nil {
		return n, err
	}
	return n, h.conn.Flush()
}

func (h *testHost) Allocator() mem.Allocator {
	return h.alloc
}

func newTestResponse(opts ...config.Option) (*ResponseContext, *testHost, *mock.Conn) {
	conn := mock.NewConn("")
	h := newTestHost(conn)
	return NewResponseContext(h, config.NewOptions(opts)), h, conn
}
