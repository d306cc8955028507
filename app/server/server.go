// Package server 是 spool 的入口：组合路由引擎、默认中间件与优雅退出。
package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/favbox/spool/app/middlewares/server/recovery"
	"github.com/favbox/spool/common/config"
	"github.com/favbox/spool/common/errors"
	"github.com/favbox/spool/common/hlog"
	"github.com/favbox/spool/route"
)

// New 创建一个无默认中间件的 spool 实例。
func New(opts ...config.Option) *Spool {
	options := config.NewOptions(opts)
	return &Spool{
		Engine: route.NewEngine(options),
	}
}

// Default 创建默认带有 recovery 中间件的 spool 实例。
func Default(opts ...config.Option) *Spool {
	s := New(opts...)
	s.Use(recovery.Recovery())

	return s
}

// Spool 是 spool 的核心结构。
//
// 组合了路由引擎 route.Engine 和优雅退出函数。
type Spool struct {
	*route.Engine
	// 用于接收信号实现优雅退出
	signalWaiter func(err chan error) error
}

// Spin 运行服务器直至捕获 os.Signal 或 s.Run 返回错误。
// 支持优雅退出。
func (s *Spool) Spin() {
	errCh := make(chan error)
	go func() {
		errCh <- s.Run()
	}()

	signalWaiter := defaultSignalWaiter
	if s.signalWaiter != nil {
		signalWaiter = s.signalWaiter
	}

	if err := signalWaiter(errCh); err != nil {
		hlog.SystemLogger().Errorf("收到退出信号：错误=%v", err)
		if err = s.Engine.Close(); err != nil {
			hlog.SystemLogger().Errorf("退出错误：%v", err)
		}
		return
	}

	hlog.SystemLogger().Infof("开始优雅退出，最多等待 %d 秒...", s.GetOptions().ExitWaitTimeout/time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), s.GetOptions().ExitWaitTimeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		hlog.SystemLogger().Errorf("退出错误：%v", err)
	}
}

// SetCustomSignalWaiter 设置自定义的信号等待者。
// 若默认的信号等待实现不符要求，则可以自定义。
// Spool 在 f 返回错误后会立即退出，否则它将优雅退出。
func (s *Spool) SetCustomSignalWaiter(f func(err chan error) error) {
	s.signalWaiter = f
}

// 信号等待者的默认实现。
// SIGTERM 立即退出。
// SIGHUP|SIGINT 触发优雅退出。
func defaultSignalWaiter(errCh chan error) error {
	signalToNotify := []os.Signal{
		syscall.SIGINT,
		syscall.SIGHUP,
		syscall.SIGTERM,
	}
	if signal.Ignored(syscall.SIGHUP) {
		signalToNotify = []os.Signal{
			syscall.SIGINT,
			syscall.SIGTERM,
		}
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, signalToNotify...)

	select {
	case sig := <-signals:
		switch sig {
		case syscall.SIGTERM:
			// 强制退出
			return errors.NewPublic(sig.String())
		case syscall.SIGHUP, syscall.SIGINT:
			hlog.SystemLogger().Infof("收到退出信号：%s\n", sig)
			// 优雅退出
			return nil
		}
	case err := <-errCh:
		// 出现错误，立即退出
		return err
	}

	return nil
}
