package netpoll

import (
	"fmt"
	"sync"
	"time"

	"github.com/favbox/spool/common/hlog"
	"github.com/favbox/spool/network"
)

var _ network.Poller = (*poller)(nil)

// 挂起连接的状态。
type parking struct {
	conn  network.Conn
	timer *time.Timer
}

// poller 维护挂起连接的集合。
//
// netpoll 无法把连接移出事件循环，挂起期间到达的数据仍会触发回调，
// 由服务端读取并暂存，直到挂起的响应结束。
type poller struct {
	parked sync.Map // network.Conn -> *parking
}

func newPoller() *poller {
	return &poller{}
}

func (p *poller) ChangeMode(conn network.Conn, mode network.Mode, timeout time.Duration) error {
	switch mode {
	case network.ModeSleep:
		pk := &parking{conn: conn}
		if timeout > 0 {
			pk.timer = time.AfterFunc(timeout, func() {
				_ = p.ChangeMode(conn, network.ModeWakeup, network.NoTimeout)
			})
		}
		if old, loaded := p.parked.Swap(conn, pk); loaded {
			old.(*parking).stop()
		}
		hlog.SystemLogger().Tracef("连接已挂起：remoteAddr=%v", conn.RemoteAddr())
		return nil
	case network.ModeWakeup:
		v, ok := p.parked.LoadAndDelete(conn)
		if !ok {
			return nil
		}
		v.(*parking).stop()
		hlog.SystemLogger().Tracef("连接已唤醒：remoteAddr=%v", conn.RemoteAddr())
		return nil
	}
	return fmt.Errorf("未知的轮询模式：%d", mode)
}

func (p *poller) Parked(conn network.Conn) bool {
	_, ok := p.parked.Load(conn)
	return ok
}

// 连接关闭时丢弃挂起状态。
func (p *poller) forget(conn network.Conn) {
	if v, ok := p.parked.LoadAndDelete(conn); ok {
		v.(*parking).stop()
	}
}

func (pk *parking) stop() {
	if pk.timer != nil {
		pk.timer.Stop()
	}
}
