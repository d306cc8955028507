package app

import (
	"context"
)

// HandlerFunc 是请求处理器函数。
type HandlerFunc func(c context.Context, r *ResponseContext)

// HandlersChain 是一组请求处理器函数。
type HandlersChain []HandlerFunc

// Last 获取处理链的最后一个处理器函数（主函数）。
func (c HandlersChain) Last() HandlerFunc {
	if length := len(c); length > 0 {
		return c[length-1]
	}
	return nil
}
