package netpoll

import (
	"context"
	"net"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/favbox/spool/common/config"
	"github.com/favbox/spool/network"
	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestTransport(t *testing.T) {
	const nw = "tcp"
	const addr = "localhost:10103"

	t.Run("TestDefault", func(t *testing.T) {
		var onAcceptFlag int32
		received := make(chan string, 2)
		conns := make(chan network.Conn, 2)

		transporter := NewTransporter(&config.Options{
			Addr:    addr,
			Network: nw,
			OnAccept: func(conn net.Conn) context.Context {
				atomic.StoreInt32(&onAcceptFlag, 1)
				return context.Background()
			},
			WriteTimeout: time.Second,
		})
		go transporter.ListenAndServe(func(ctx context.Context, conn any) error {
			c := conn.(network.Conn)
			p, err := c.ReadBinary(c.Len())
			if err != nil {
				return err
			}
			received <- string(p)
			conns <- c
			return nil
		})
		defer transporter.Close()
		time.Sleep(100 * time.Millisecond)

		conn, err := net.Dial(nw, addr)
		assert.Nil(t, err)
		defer conn.Close()

		_, err = conn.Write([]byte("123"))
		assert.Nil(t, err)
		assert.Equal(t, "123", <-received)
		first := <-conns

		_, err = conn.Write([]byte("456"))
		assert.Nil(t, err)
		assert.Equal(t, "456", <-received)
		second := <-conns

		assert.True(t, atomic.LoadInt32(&onAcceptFlag) == 1)
		// 同一条连接的多次回调复用同一个包装对象
		assert.True(t, first == second)
		assert.NotNil(t, transporter.Poller())
	})

	t.Run("TestListenConfig", func(t *testing.T) {
		listenCfg := &net.ListenConfig{Control: func(network, address string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, unix.SO_REUSEADDR, 1)
				syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
		}}
		transporter := NewTransporter(&config.Options{
			Addr:         addr,
			Network:      nw,
			ListenConfig: listenCfg,
		})
		go transporter.ListenAndServe(func(ctx context.Context, conn any) error {
			return nil
		})
		time.Sleep(100 * time.Millisecond)
		assert.Nil(t, transporter.Close())
	})

	t.Run("TestExceptionCase", func(t *testing.T) {
		assert.Panics(t, func() { // listen err
			transporter := NewTransporter(&config.Options{
				Network: "unknown",
			})
			transporter.ListenAndServe(func(ctx context.Context, conn any) error {
				return nil
			})
		})
	})
}
