package recovery

import (
	"context"

	"github.com/favbox/spool/app"
	"github.com/favbox/spool/common/hlog"
	"github.com/favbox/spool/protocol/consts"
)

// 表示一个恐慌恢复的自定义选项结构体。
type options struct {
	// 恐慌恢复处理器。
	recoveryHandler func(c context.Context, r *app.ResponseContext, err any, stack []byte)
}

// Option 自定义选项的应用函数。
type Option func(o *options)

// 默认的恐慌恢复处理器。
//
// 响应头尚未发送时丢弃已排队的正文，以空的 500 结束响应；
// 已发送的响应无法更正，只能按原样结束。
func defaultRecoveryHandler(c context.Context, r *app.ResponseContext, err any, stack []byte) {
	hlog.SystemLogger().CtxErrorf(c, "[恐慌恢复] 恐慌=%v\n堆栈=%s", err, stack)
	r.Abort()
	if r.Ended() {
		return
	}
	if !r.HeadersSent() {
		_ = r.ResetBody()
		_ = r.SetStatus(consts.StatusInternalServerError)
	}
	_ = r.End(nil)
}

// 创建一个自定义恐慌恢复的结构，并应用自定义选项。
func newOptions(opts ...Option) *options {
	cfg := &options{recoveryHandler: defaultRecoveryHandler}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// WithRecoveryHandler 自定义恐慌恢复处理器。
func WithRecoveryHandler(f func(c context.Context, r *app.ResponseContext, err any, stack []byte)) Option {
	return func(o *options) {
		o.recoveryHandler = f
	}
}
