// Package http1 是 HTTP/1.1 服务器：逐个读取连接上的请求，为每个请求创建响应并交给处理链。
package http1

import (
	"context"
	"sync"

	"github.com/bytedance/gopkg/util/gopool"
	"github.com/favbox/spool/app"
	"github.com/favbox/spool/common/config"
	errs "github.com/favbox/spool/common/errors"
	"github.com/favbox/spool/common/hlog"
	"github.com/favbox/spool/network"
	"github.com/favbox/spool/protocol"
	"github.com/favbox/spool/protocol/http1/req"
)

// 单个连接上最多暂存的请求数。
const defaultMaxBacklog = 64

var (
	errShortConnection = errs.New(errs.ErrShortConnection, errs.ErrorTypePublic, "服务器即将关闭该连接")
	errBacklogFull     = errs.New(errs.ErrBacklogFull, errs.ErrorTypePublic, "响应未结束期间到达的请求过多")
	errNoPoller        = errs.NewPublic("连接没有可用的轮询器")
)

var _ protocol.Server = (*Server)(nil)

// Core 是服务器依赖的上层能力，由路由引擎实现。
type Core interface {
	// ServeHTTP 执行处理链。
	ServeHTTP(c context.Context, r *app.ResponseContext)

	// Resume 在异步结束的响应之后要求关闭连接，err 说明原因。
	Resume(c context.Context, conn network.Conn, err error)

	// IsRunning 报告引擎是否仍在运行，退出中的连接不再保持。
	IsRunning() bool
}

// Server 表示 HTTP/1.1 服务器，实现 protocol.Server 协议接口。
//
// 同一连接上的请求严格按序响应。处理器返回时若响应尚未结束（挂起等待或仍在异步刷新），
// 后续到达的请求只读取并暂存，不占用协程等待；响应结束时由结束方依次服务暂存的请求。
type Server struct {
	Options *config.Options
	Core    Core
	Poller  network.Poller

	// ServerName 非空时作为 Server 标头发送。
	ServerName []byte

	DisableKeepalive bool

	// MaxBacklog 是响应未结束期间单个连接可暂存的请求数，超过即关闭连接。
	MaxBacklog int

	// 正在服务的连接
	pipes sync.Map // network.Conn -> *pipeline
}

// pipeline 是连接的服务权和暂存的请求。
type pipeline struct {
	mu      sync.Mutex
	dead    bool // 已从 Server 移除
	backlog []protocol.Request
}

// NewServer 创建 HTTP/1.1 服务器。
func NewServer(opts *config.Options, core Core, poller network.Poller) *Server {
	return &Server{
		Options:          opts,
		Core:             core,
		Poller:           poller,
		DisableKeepalive: opts.DisableKeepalive,
		MaxBacklog:       defaultMaxBacklog,
	}
}

// Serve 提供连接服务。
//
// 每次调用都会读完连接上已缓冲的请求再返回，网络层不会因未读数据反复回调。
func (s *Server) Serve(c context.Context, conn network.Conn) error {
	for served := 0; ; served++ {
		// 返回网络层，等待下一个请求触发
		if served > 0 && conn.Len() == 0 {
			return nil
		}

		var request protocol.Request
		if err := req.ReadRequest(conn, &request, s.Options.MaxHeaderBytes); err != nil {
			return err
		}
		_ = conn.Release()

		p, owner, err := s.claim(conn, &request)
		if err != nil {
			return err
		}
		if !owner {
			hlog.SystemLogger().Tracef("上一个响应尚未结束，请求已暂存：请求=%s %s", request.Method, request.URI)
			continue
		}
		if err = s.serve(c, conn, p, request); err != nil {
			return err
		}
	}
}

// claim 为新读取的请求争取连接的服务权。
//
// 连接上已有未结束的响应时，请求进入暂存并返回 owner 为 false。
func (s *Server) claim(conn network.Conn, request *protocol.Request) (p *pipeline, owner bool, err error) {
	for {
		v, loaded := s.pipes.LoadOrStore(conn, &pipeline{})
		p = v.(*pipeline)
		if !loaded {
			return p, true, nil
		}

		p.mu.Lock()
		if p.dead {
			// 刚被释放，重新争取
			p.mu.Unlock()
			continue
		}
		if len(p.backlog) >= s.MaxBacklog {
			p.mu.Unlock()
			return nil, false, errBacklogFull
		}
		p.backlog = append(p.backlog, *request)
		p.mu.Unlock()
		return p, false, nil
	}
}

// serve 依次服务 request 及之后暂存的请求，直到没有暂存请求或某个响应转为异步结束。
func (s *Server) serve(c context.Context, conn network.Conn, p *pipeline, request protocol.Request) error {
	for {
		h := newConnHost(s, c, conn, p)
		r := app.NewResponseContext(h, s.Options)
		r.Request = request
		h.keepAlive = !s.DisableKeepalive && r.Request.KeepAlive() && s.Core.IsRunning()

		// ⭐️ 处理请求。所有中间件和业务处理器都将在此执行。
		s.Core.ServeHTTP(c, r)

		if h.detach() {
			hlog.SystemLogger().Tracef("响应尚未结束，由结束方接续连接：请求=%s %s", r.Request.Method, r.Request.URI)
			return nil
		}
		if err := h.result(); err != nil {
			s.drop(conn, p)
			return err
		}

		var ok bool
		if request, ok = s.next(conn, p); !ok {
			return nil
		}
	}
}

// resume 在异步结束的响应之后接续连接。
func (s *Server) resume(h *connHost) {
	if err := h.result(); err != nil {
		s.drop(h.conn, h.p)
		s.Core.Resume(h.ctx, h.conn, err)
		return
	}

	request, ok := s.next(h.conn, h.p)
	if !ok {
		return
	}
	// 结束方可能是业务协程或刷新协程，不在其调用栈上执行处理链
	gopool.CtxGo(h.ctx, func() {
		if err := s.serve(h.ctx, h.conn, h.p, request); err != nil {
			s.Core.Resume(h.ctx, h.conn, err)
		}
	})
}

// next 取出下一个暂存的请求；没有时释放连接的服务权。
func (s *Server) next(conn network.Conn, p *pipeline) (protocol.Request, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.backlog) > 0 {
		request := p.backlog[0]
		p.backlog[0] = protocol.Request{}
		p.backlog = p.backlog[1:]
		return request, true
	}
	p.dead = true
	s.pipes.CompareAndDelete(conn, p)
	return protocol.Request{}, false
}

// drop 在连接即将关闭时丢弃暂存的请求。
func (s *Server) drop(conn network.Conn, p *pipeline) {
	p.mu.Lock()
	p.dead = true
	p.backlog = nil
	s.pipes.CompareAndDelete(conn, p)
	p.mu.Unlock()
}

// Pending 报告连接上是否有未结束的响应。
func (s *Server) Pending(conn network.Conn) bool {
	_, ok := s.pipes.Load(conn)
	return ok
}

// Backlog 返回连接上暂存的请求数。
func (s *Server) Backlog(conn network.Conn) int {
	v, ok := s.pipes.Load(conn)
	if !ok {
		return 0
	}
	p := v.(*pipeline)
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.backlog)
}
