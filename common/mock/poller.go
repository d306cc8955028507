package mock

import (
	"time"

	"github.com/favbox/spool/network"
)

// ModeChange 记录一次轮询模式切换。
type ModeChange struct {
	Mode    network.Mode
	Timeout time.Duration
}

// Poller 记录所有模式切换的轮询器，可注入失败。
type Poller struct {
	Changes []ModeChange
	Err     error

	parked map[network.Conn]bool
}

func NewPoller() *Poller {
	return &Poller{parked: make(map[network.Conn]bool)}
}

func (p *Poller) ChangeMode(conn network.Conn, mode network.Mode, timeout time.Duration) error {
	if p.Err != nil {
		return p.Err
	}
	p.Changes = append(p.Changes, ModeChange{Mode: mode, Timeout: timeout})
	p.parked[conn] = mode == network.ModeSleep
	return nil
}

func (p *Poller) Parked(conn network.Conn) bool {
	return p.parked[conn]
}
