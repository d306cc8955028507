package app

import (
	"time"

	"github.com/favbox/spool/common/mem"
	"github.com/favbox/spool/network"
	"github.com/favbox/spool/protocol/output"
)

// Host 是响应所在连接提供的协作方，在创建响应时注入。
//
// 响应只通过 Host 接触连接、轮询器和内存，从不直接访问它们。
type Host interface {
	// TransmitHeader 向连接写出响应头。contentLength 为 -1 表示分块传输。
	TransmitHeader(statusCode int, contentLength int64, lines [][]byte) error

	// ChangeMode 切换连接的轮询模式，必须立即返回。
	ChangeMode(mode network.Mode, timeout time.Duration) error

	// FlushQueue 开始将 r 的输出队列写出到连接。
	//
	// 返回 FlushDone 表示已同步写完（或失败）；返回 FlushPending 时，
	// 写完后由刷新方调用 r.Flushed 通知结束。
	FlushQueue(r *ResponseContext) (output.FlushStatus, error)

	// ServiceEnd 在响应结束、资源释放后调用，通知连接可以继续处理下一个请求。
	ServiceEnd(r *ResponseContext)

	// WriteRaw 绕过输出队列直接写出并刷新 p。
	WriteRaw(p []byte) (int, error)

	// Allocator 返回响应使用的分配器。
	Allocator() mem.Allocator
}
