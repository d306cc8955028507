package server

import (
	"context"
	"net"
	"time"

	"github.com/favbox/spool/common/config"
	"github.com/favbox/spool/network"
)

// WithHostPorts 指定监听的地址和端口。默认值：":8888"。
func WithHostPorts(addr string) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.Addr = addr
	}}
}

// WithNetwork 设置网络协议，可选：tcp，udp，unix（unix domain socket）。默认值：tcp。
func WithNetwork(nw string) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.Network = nw
	}}
}

// WithReadTimeout 设置网络库读取数据超时时间。默认值 3 分钟。
//
// 当读超时时连接将关闭。
func WithReadTimeout(t time.Duration) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.ReadTimeout = t
	}}
}

// WithWriteTimeout 设置网络库写入数据超时时间。默认值：无限长。
//
// 当写超时时连接将关闭。
func WithWriteTimeout(t time.Duration) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.WriteTimeout = t
	}}
}

// WithKeepAliveTimeout 设置长连接闲置超时时间。默认值：1 分钟。
func WithKeepAliveTimeout(t time.Duration) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.KeepAliveTimeout = t
	}}
}

// WithKeepAlive 设置是否保持长连接。默认值：true。
func WithKeepAlive(b bool) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.DisableKeepalive = !b
	}}
}

// WithExitWaitTime 设置优雅退出的等待时间。默认值：5 秒。
func WithExitWaitTime(t time.Duration) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.ExitWaitTimeout = t
	}}
}

// WithMaxHeaderBytes 设置请求头的最大字节数。默认值：8KB。
func WithMaxHeaderBytes(n int) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.MaxHeaderBytes = n
	}}
}

// WithInitialPrintfSize 设置 Printf 临时缓冲区的初始字节数。默认值：128。
func WithInitialPrintfSize(n int) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.InitialPrintfSize = n
	}}
}

// WithBodyBufferSize 设置新建正文缓冲区的初始条目数。默认值：8。
func WithBodyBufferSize(n int) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.BodyBufferSize = n
	}}
}

// WithBodyBufferGrowFactor 设置正文缓冲区的扩容倍数，必须大于 1。默认值：2。
func WithBodyBufferGrowFactor(n int) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.BodyBufferGrowFactor = n
	}}
}

// WithMaxBodyBufferSize 设置单个正文缓冲区的最大条目数。默认值：64K。
func WithMaxBodyBufferSize(n int) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.MaxBodyBufferSize = n
	}}
}

// WithMaxAllocBytes 设置单个响应通过分配器持有的最大字节数。默认值：0，即不限制。
func WithMaxAllocBytes(n int) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.MaxAllocBytes = n
	}}
}

// WithChunkedAfterHeaders 设置结束响应前显式发送响应头时是否使用分块传输。默认值：false。
func WithChunkedAfterHeaders(b bool) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.ChunkedAfterHeaders = b
	}}
}

// WithFlushQuantum 设置刷新单轮最多写出的正文字节数，剩余部分异步刷新。默认值：0，即一轮写完。
func WithFlushQuantum(n int) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.FlushQuantum = n
	}}
}

// WithListenConfig 设置监听器的配置项。
func WithListenConfig(l *net.ListenConfig) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.ListenConfig = l
	}}
}

// WithTransport 设置自定义的网络传输器。
func WithTransport(transporter func(opts *config.Options) network.Transporter) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.TransporterNewer = transporter
	}}
}

// WithOnAccept 设置在 netpoll 中接受新连接之后、加入 epoll 之前调用的回调。
func WithOnAccept(fn func(conn net.Conn) context.Context) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.OnAccept = fn
	}}
}
