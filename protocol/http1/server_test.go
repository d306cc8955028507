package http1

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/favbox/spool/app"
	"github.com/favbox/spool/common/config"
	errs "github.com/favbox/spool/common/errors"
	"github.com/favbox/spool/common/mock"
	"github.com/favbox/spool/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resumeCall struct {
	conn network.Conn
	err  error
}

// fakeCore 用给定的处理函数处理每个请求，并记录接续调用。
type fakeCore struct {
	handler app.HandlerFunc
	stopped bool
	resumed chan resumeCall
}

func newFakeCore(handler app.HandlerFunc) *fakeCore {
	return &fakeCore{handler: handler, resumed: make(chan resumeCall, 4)}
}

func (f *fakeCore) ServeHTTP(c context.Context, r *app.ResponseContext) {
	f.handler(c, r)
}

func (f *fakeCore) Resume(_ context.Context, conn network.Conn, err error) {
	f.resumed <- resumeCall{conn: conn, err: err}
}

func (f *fakeCore) IsRunning() bool {
	return !f.stopped
}

func echoPath(_ context.Context, r *app.ResponseContext) {
	_ = r.SetStatus(200)
	_ = r.Print([]byte(r.Request.Path()))
	_ = r.End(nil)
}

// flushFailConn 可以读取请求，但所有写出失败。
type flushFailConn struct {
	*mock.Conn
}

func (c *flushFailConn) Flush() error {
	return errs.ErrConnectionClosed
}

func TestServeSingleRequest(t *testing.T) {
	conn := mock.NewConn("GET /hello HTTP/1.1\r\nHost: a\r\n\r\n")
	s := NewServer(config.NewOptions(nil), newFakeCore(echoPath), mock.NewPoller())

	assert.Nil(t, s.Serve(context.Background(), conn))
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 6\r\n\r\n/hello", conn.Flushed())
	assert.False(t, s.Pending(conn))
}

func TestServePipelinedInOrder(t *testing.T) {
	conn := mock.NewConn("GET /a HTTP/1.1\r\n\r\nGET /bb HTTP/1.1\r\n\r\n")
	s := NewServer(config.NewOptions(nil), newFakeCore(echoPath), mock.NewPoller())

	assert.Nil(t, s.Serve(context.Background(), conn))
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\n/a"+
		"HTTP/1.1 200 OK\r\nContent-Length: 3\r\n\r\n/bb", conn.Flushed())
}

func TestServeConnectionClose(t *testing.T) {
	conn := mock.NewConn("GET /a HTTP/1.1\r\nConnection: close\r\n\r\nGET /b HTTP/1.1\r\n\r\n")
	s := NewServer(config.NewOptions(nil), newFakeCore(echoPath), mock.NewPoller())

	err := s.Serve(context.Background(), conn)
	assert.True(t, errors.Is(err, errs.ErrShortConnection))
	assert.Equal(t, "HTTP/1.1 200 OK\r\nConnection: close\r\nContent-Length: 2\r\n\r\n/a", conn.Flushed())
}

func TestServeHTTP10(t *testing.T) {
	conn := mock.NewConn("GET /a HTTP/1.0\r\n\r\n")
	s := NewServer(config.NewOptions(nil), newFakeCore(echoPath), mock.NewPoller())

	assert.True(t, errors.Is(s.Serve(context.Background(), conn), errs.ErrShortConnection))
}

func TestServeStoppedEngineClosesConnection(t *testing.T) {
	conn := mock.NewConn("GET /a HTTP/1.1\r\n\r\n")
	core := newFakeCore(echoPath)
	core.stopped = true
	s := NewServer(config.NewOptions(nil), core, mock.NewPoller())

	assert.True(t, errors.Is(s.Serve(context.Background(), conn), errs.ErrShortConnection))
	assert.Contains(t, conn.Flushed(), "Connection: close\r\n")
}

func TestServeServerName(t *testing.T) {
	conn := mock.NewConn("GET /a HTTP/1.1\r\n\r\n")
	s := NewServer(config.NewOptions(nil), newFakeCore(echoPath), mock.NewPoller())
	s.ServerName = []byte("spool")

	assert.Nil(t, s.Serve(context.Background(), conn))
	assert.Equal(t, "HTTP/1.1 200 OK\r\nServer: spool\r\nContent-Length: 2\r\n\r\n/a", conn.Flushed())
}

func TestServeBadRequestLine(t *testing.T) {
	conn := mock.NewConn("garbage\r\n\r\n")
	called := false
	s := NewServer(config.NewOptions(nil), newFakeCore(func(context.Context, *app.ResponseContext) {
		called = true
	}), mock.NewPoller())

	assert.NotNil(t, s.Serve(context.Background(), conn))
	assert.False(t, called)
	assert.Equal(t, "", conn.Flushed())
}

func TestServeTransportError(t *testing.T) {
	conn := &flushFailConn{mock.NewConn("GET /a HTTP/1.1\r\n\r\n")}
	s := NewServer(config.NewOptions(nil), newFakeCore(echoPath), mock.NewPoller())

	err := s.Serve(context.Background(), conn)
	assert.True(t, errors.Is(err, errs.ErrConnectionClosed))
	assert.False(t, s.Pending(conn))
}

func TestServeParkedResponse(t *testing.T) {
	conn := mock.NewConn("GET /slow HTTP/1.1\r\n\r\nGET /next HTTP/1.1\r\n\r\n")
	poller := mock.NewPoller()

	var parked *app.ResponseContext
	core := newFakeCore(func(_ context.Context, r *app.ResponseContext) {
		if r.Request.Path() == "/slow" {
			assert.Nil(t, r.Wait())
			parked = r
			return
		}
		echoPath(context.Background(), r)
	})
	s := NewServer(config.NewOptions(nil), core, poller)

	// 后续请求被读取并暂存，连接上不留未读数据
	assert.Nil(t, s.Serve(context.Background(), conn))
	require.NotNil(t, parked)
	assert.True(t, s.Pending(conn))
	assert.True(t, poller.Parked(conn))
	assert.Equal(t, 1, s.Backlog(conn))
	assert.Equal(t, 0, conn.Len())
	assert.Equal(t, "", conn.Flushed())

	assert.Nil(t, parked.Continue())
	assert.Nil(t, parked.SetStatus(200))
	assert.Nil(t, parked.Print([]byte("late")))
	assert.Nil(t, parked.End(nil))
	assert.Equal(t, []mock.ModeChange{
		{Mode: network.ModeSleep, Timeout: network.NoTimeout},
		{Mode: network.ModeWakeup, Timeout: network.NoTimeout},
	}, poller.Changes)

	// 暂存的请求由结束方接续服务
	assert.Eventually(t, func() bool { return !s.Pending(conn) }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 4\r\n\r\nlate"+
		"HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\n/next", conn.Flushed())
	assert.Len(t, core.resumed, 0)
}

func TestServeParkedEndWithoutContinue(t *testing.T) {
	conn := mock.NewConn("GET /slow HTTP/1.1\r\n\r\n")
	poller := mock.NewPoller()
	var parked *app.ResponseContext
	s := NewServer(config.NewOptions(nil), newFakeCore(func(_ context.Context, r *app.ResponseContext) {
		assert.Nil(t, r.Wait())
		parked = r
	}), poller)

	assert.Nil(t, s.Serve(context.Background(), conn))
	assert.Nil(t, parked.SetStatus(204))
	assert.Nil(t, parked.End(nil))

	assert.False(t, poller.Parked(conn))
	assert.False(t, s.Pending(conn))
	assert.Equal(t, network.ModeWakeup, poller.Changes[len(poller.Changes)-1].Mode)
}

func TestServeBacklogFull(t *testing.T) {
	conn := mock.NewConn("GET /slow HTTP/1.1\r\n\r\nGET /a HTTP/1.1\r\n\r\nGET /b HTTP/1.1\r\n\r\n")
	s := NewServer(config.NewOptions(nil), newFakeCore(func(_ context.Context, r *app.ResponseContext) {
		if r.Request.Path() == "/slow" {
			_ = r.Wait()
			return
		}
		echoPath(context.Background(), r)
	}), mock.NewPoller())
	s.MaxBacklog = 1

	err := s.Serve(context.Background(), conn)
	assert.True(t, errors.Is(err, errs.ErrBacklogFull))
	assert.Equal(t, 1, s.Backlog(conn))
	assert.Equal(t, "", conn.Flushed())
}

func TestServeOverrunClosesConnection(t *testing.T) {
	conn := mock.NewConn("GET /abc HTTP/1.1\r\n\r\nGET /next HTTP/1.1\r\n\r\n")
	s := NewServer(config.NewOptions(nil), newFakeCore(func(_ context.Context, r *app.ResponseContext) {
		if r.Request.Path() != "/abc" {
			echoPath(context.Background(), r)
			return
		}
		_ = r.SetStatus(200)
		_ = r.Print([]byte("A"))
		_ = r.Print([]byte("B"))
		_ = r.SendHeaders()
		_ = r.Print([]byte("C"))
		_ = r.End(nil)
	}), mock.NewPoller())

	// 多写出的字节之后不能再有响应
	err := s.Serve(context.Background(), conn)
	assert.True(t, errors.Is(err, errs.ErrShortConnection))
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nABC", conn.Flushed())
	assert.False(t, s.Pending(conn))
}

func TestServeOverrunAfterDetach(t *testing.T) {
	conn := mock.NewConn("GET /abc HTTP/1.1\r\n\r\nGET /next HTTP/1.1\r\n\r\n")
	var held *app.ResponseContext
	core := newFakeCore(func(_ context.Context, r *app.ResponseContext) {
		if r.Request.Path() != "/abc" {
			echoPath(context.Background(), r)
			return
		}
		held = r
	})
	s := NewServer(config.NewOptions(nil), core, mock.NewPoller())

	assert.Nil(t, s.Serve(context.Background(), conn))
	assert.Equal(t, 1, s.Backlog(conn))
	assert.Nil(t, held.SetStatus(200))
	assert.Nil(t, held.Print([]byte("A")))
	assert.Nil(t, held.SendHeaders())
	assert.Nil(t, held.Print([]byte("B")))
	assert.Nil(t, held.End(nil))

	call := <-core.resumed
	assert.True(t, errors.Is(call.err, errs.ErrShortConnection))
	assert.False(t, s.Pending(conn))
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 1\r\n\r\nAB", conn.Flushed())
}

func TestServeDetachedShortConnection(t *testing.T) {
	conn := mock.NewConn("GET /a HTTP/1.1\r\nConnection: close\r\n\r\n")
	var held *app.ResponseContext
	core := newFakeCore(func(_ context.Context, r *app.ResponseContext) {
		held = r
	})
	s := NewServer(config.NewOptions(nil), core, mock.NewPoller())

	assert.Nil(t, s.Serve(context.Background(), conn))
	assert.Nil(t, held.SetStatus(204))
	assert.Nil(t, held.End(nil))

	call := <-core.resumed
	assert.True(t, errors.Is(call.err, errs.ErrShortConnection))
	assert.Contains(t, conn.Flushed(), "Connection: close\r\n")
}

func TestServeQuantumFlush(t *testing.T) {
	conn := mock.NewConn("GET /a HTTP/1.1\r\n\r\n")
	var (
		wg     sync.WaitGroup
		endErr error
	)
	wg.Add(1)
	core := newFakeCore(func(_ context.Context, r *app.ResponseContext) {
		_ = r.SetStatus(200)
		_ = r.Print([]byte("hello world"))
		_ = r.End(func(err error) {
			endErr = err
			wg.Done()
		})
	})
	s := NewServer(config.NewOptions([]config.Option{{F: func(o *config.Options) {
		o.FlushQuantum = 4
	}}}), core, mock.NewPoller())

	assert.Nil(t, s.Serve(context.Background(), conn))
	wg.Wait()
	assert.Nil(t, endErr)
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 11\r\n\r\nhello world", conn.Flushed())
	assert.Eventually(t, func() bool { return !s.Pending(conn) }, time.Second, 10*time.Millisecond)
}

func TestServeWithoutPoller(t *testing.T) {
	conn := mock.NewConn("GET /a HTTP/1.1\r\n\r\n")
	var waitErr error
	s := NewServer(config.NewOptions(nil), newFakeCore(func(c context.Context, r *app.ResponseContext) {
		waitErr = r.Wait()
		echoPath(c, r)
	}), nil)

	assert.Nil(t, s.Serve(context.Background(), conn))
	assert.NotNil(t, waitErr)
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\n/a", conn.Flushed())
}

func TestServeDisableKeepalive(t *testing.T) {
	conn := mock.NewConn("GET /a HTTP/1.1\r\n\r\nGET /b HTTP/1.1\r\n\r\n")
	s := NewServer(config.NewOptions([]config.Option{{F: func(o *config.Options) {
		o.DisableKeepalive = true
	}}}), newFakeCore(echoPath), mock.NewPoller())

	assert.True(t, errors.Is(s.Serve(context.Background(), conn), errs.ErrShortConnection))
	assert.Equal(t, "HTTP/1.1 200 OK\r\nConnection: close\r\nContent-Length: 2\r\n\r\n/a", conn.Flushed())
}
