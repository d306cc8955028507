package netpoll

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cloudwego/netpoll"
	"github.com/favbox/spool/common/config"
	"github.com/favbox/spool/common/hlog"
	"github.com/favbox/spool/network"
)

var _ network.Transporter = (*transport)(nil)

func init() {
	// 禁用 netpoll 的日志
	netpoll.SetLoggerOutput(io.Discard)
}

// 连接包装在 OnPrepare 时创建一次并存入上下文，之后每次回调复用同一个包装对象，
// 轮询器和服务端以它作为连接的身份。
type ctxKeyConn struct{}

func connFromContext(ctx context.Context, c netpoll.Connection) network.Conn {
	if conn, ok := ctx.Value(ctxKeyConn{}).(network.Conn); ok {
		return conn
	}
	return newConn(c)
}

type transport struct {
	sync.RWMutex
	network          string
	addr             string
	keepAliveTimeout time.Duration
	readTimeout      time.Duration
	writeTimeout     time.Duration
	listener         net.Listener
	eventLoop        netpoll.EventLoop
	listenConfig     *net.ListenConfig
	poller           *poller
	OnAccept         func(conn net.Conn) context.Context
}

// ListenAndServe 绑定监听地址并持续服务，除非出现错误或传输器关闭。
func (t *transport) ListenAndServe(onReq network.OnData) (err error) {
	_ = network.UnlinkUdsFile(t.network, t.addr)
	if t.listenConfig != nil {
		t.listener, err = t.listenConfig.Listen(context.Background(), t.network, t.addr)
	} else {
		t.listener, err = net.Listen(t.network, t.addr)
	}

	if err != nil {
		panic("创建 netpoll 监听器失败：" + err.Error())
	}

	opts := []netpoll.Option{
		netpoll.WithIdleTimeout(t.keepAliveTimeout),
		netpoll.WithOnPrepare(func(conn netpoll.Connection) context.Context {
			_ = conn.SetReadTimeout(t.readTimeout)
			if t.writeTimeout > 0 {
				_ = conn.SetWriteTimeout(t.writeTimeout)
			}
			wrapped := newConn(conn)
			_ = conn.AddCloseCallback(func(netpoll.Connection) error {
				t.poller.forget(wrapped)
				return nil
			})
			ctx := context.Background()
			if t.OnAccept != nil {
				ctx = t.OnAccept(wrapped)
			}
			return context.WithValue(ctx, ctxKeyConn{}, wrapped)
		}),
	}

	t.Lock()
	t.eventLoop, err = netpoll.NewEventLoop(func(ctx context.Context, connection netpoll.Connection) error {
		return onReq(ctx, connFromContext(ctx, connection))
	}, opts...)
	t.Unlock()
	if err != nil {
		panic("创建 netpoll event-loop 失败")
	}

	hlog.SystemLogger().Infof("HTTP服务器监听地址=%s", t.listener.Addr().String())
	t.RLock()
	err = t.eventLoop.Serve(t.listener)
	t.RUnlock()
	if err != nil {
		panic("netpoll event-loop 无法启动监听服务：" + err.Error())
	}

	return nil
}

// Close 强制传输器立即关闭（无超时等待）。
func (t *transport) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	return t.Shutdown(ctx)
}

// Shutdown 停止监听器并优雅关闭。将等待所有连接关闭，直到触达截止时间。
func (t *transport) Shutdown(ctx context.Context) error {
	defer func() {
		_ = network.UnlinkUdsFile(t.network, t.addr)
		t.RUnlock()
	}()
	t.RLock()
	if t.eventLoop == nil {
		return nil
	}
	return t.eventLoop.Shutdown(ctx)
}

// Poller 返回与该传输器事件循环配套的轮询器。
func (t *transport) Poller() network.Poller {
	return t.poller
}

// NewTransporter 创建 netpoll 网络传输器。
func NewTransporter(options *config.Options) network.Transporter {
	return &transport{
		network:          options.Network,
		addr:             options.Addr,
		keepAliveTimeout: options.KeepAliveTimeout,
		readTimeout:      options.ReadTimeout,
		writeTimeout:     options.WriteTimeout,
		listenConfig:     options.ListenConfig,
		poller:           newPoller(),
		OnAccept:         options.OnAccept,
	}
}
