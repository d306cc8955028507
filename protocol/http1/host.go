package http1

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bytedance/gopkg/util/gopool"
	"github.com/favbox/spool/app"
	"github.com/favbox/spool/common/mem"
	"github.com/favbox/spool/internal/bytestr"
	"github.com/favbox/spool/network"
	"github.com/favbox/spool/protocol/consts"
	"github.com/favbox/spool/protocol/http1/resp"
	"github.com/favbox/spool/protocol/output"
)

// 响应相对于 Serve 循环的位置。
const (
	hostServing  int32 = iota // 处理器执行中
	hostDetached              // 处理器已返回，响应未结束
	hostEnded                 // 响应在处理器返回之前结束
)

var _ app.Host = (*connHost)(nil)

// connHost 为单个响应实现 app.Host，绑定所在的连接。
type connHost struct {
	s       *Server
	ctx     context.Context
	conn    network.Conn
	alloc   *mem.Limited
	drainer *resp.Drainer
	p       *pipeline

	keepAlive bool
	state     int32
	err       error
}

func newConnHost(s *Server, c context.Context, conn network.Conn, p *pipeline) *connHost {
	alloc := mem.NewLimited(mem.Default(), s.Options.MaxAllocBytes)
	return &connHost{
		s:       s,
		ctx:     c,
		conn:    conn,
		alloc:   alloc,
		drainer: resp.NewDrainer(conn, alloc, s.Options.FlushQuantum),
		p:       p,
	}
}

func (h *connHost) TransmitHeader(statusCode int, contentLength int64, lines [][]byte) error {
	if h.s.ServerName != nil || !h.keepAlive {
		extra := make([][]byte, 0, len(lines)+2)
		extra = append(extra, lines...)
		if h.s.ServerName != nil {
			extra = append(extra, append([]byte(consts.HeaderServer+": "), h.s.ServerName...))
		}
		if !h.keepAlive {
			extra = append(extra, append([]byte(consts.HeaderConnection+": "), bytestr.StrClose...))
		}
		lines = extra
	}
	return resp.WriteHeader(h.conn, statusCode, contentLength, lines)
}

func (h *connHost) ChangeMode(mode network.Mode, timeout time.Duration) error {
	if h.s.Poller == nil {
		return errNoPoller
	}
	return h.s.Poller.ChangeMode(h.conn, mode, timeout)
}

// FlushQueue 同步执行第一轮刷新，剩余部分在 gopool 协程中继续。
func (h *connHost) FlushQueue(r *app.ResponseContext) (output.FlushStatus, error) {
	h.drainer.Reset(r.Queue(), r.ContentLength())
	status, err := h.drainer.Drain()
	if status == output.FlushPending {
		gopool.CtxGo(h.ctx, func() {
			for {
				status, err := h.drainer.Drain()
				if status == output.FlushDone {
					r.Flushed(err)
					return
				}
			}
		})
	}
	return status, err
}

func (h *connHost) ServiceEnd(r *app.ResponseContext) {
	h.err = r.Err()
	// 结束前未唤醒的连接不再保持挂起状态
	if h.s.Poller != nil && h.s.Poller.Parked(h.conn) {
		_ = h.s.Poller.ChangeMode(h.conn, network.ModeWakeup, network.NoTimeout)
	}
	if atomic.CompareAndSwapInt32(&h.state, hostServing, hostEnded) {
		// 由 Serve 循环继续处理
		return
	}
	h.s.resume(h)
}

func (h *connHost) WriteRaw(p []byte) (int, error) {
	n, err := h.conn.WriteBinary(p)
	if err != nil {
		return n, err
	}
	return n, h.conn.Flush()
}

func (h *connHost) Allocator() mem.Allocator {
	return h.alloc
}

// result 返回响应结束后连接的去留：非 nil 时连接必须关闭。
func (h *connHost) result() error {
	if h.err != nil {
		return h.err
	}
	if h.drainer.Overrun() {
		// 多出的正文已写入连接，客户端无法再正确分帧后续响应
		return errShortConnection
	}
	if !h.keepAlive {
		return errShortConnection
	}
	return nil
}

// detach 在处理器返回后调用，响应尚未结束时返回 true。
func (h *connHost) detach() bool {
	return atomic.CompareAndSwapInt32(&h.state, hostServing, hostDetached)
}
