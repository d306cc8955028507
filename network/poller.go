package network

import "time"

// Mode 是连接在事件循环中的轮询模式。
type Mode uint8

const (
	// ModeSleep 将连接移出活跃轮询，到达的数据不会触发处理。
	ModeSleep Mode = iota + 1
	// ModeWakeup 将连接恢复到活跃轮询。
	ModeWakeup
)

// NoTimeout 表示挂起的连接没有截止时间，只能由显式唤醒恢复。
const NoTimeout time.Duration = -1

func (m Mode) String() string {
	switch m {
	case ModeSleep:
		return "sleep"
	case ModeWakeup:
		return "wakeup"
	}
	return "unknown"
}

// Poller 管理连接的轮询模式。
//
// ChangeMode 必须立即返回，不得阻塞调用方等待事件发生。
type Poller interface {
	ChangeMode(conn Conn, mode Mode, timeout time.Duration) error

	// Parked 报告连接当前是否已被移出活跃轮询。
	Parked(conn Conn) bool
}
