package config

import (
	"context"
	"net"
	"time"

	"github.com/favbox/spool/network"
)

const (
	defaultKeepAliveTimeout  = 1 * time.Minute
	defaultReadTimeout       = 3 * time.Minute
	defaultWaitExitTimeout   = 5 * time.Second
	defaultNetwork           = "tcp"
	defaultAddr              = ":8888"
	defaultMaxHeaderBytes    = 8 * 1024
	defaultInitialPrintfSize = 128
	defaultBodyBufferSize    = 8
	defaultGrowFactor        = 2
	defaultMaxBodyBufferSize = 64 * 1024
)

// Option 是用于配置 Options 唯一结构体。
type Option struct {
	F func(o *Options)
}

// Options 是配置项的结构体。
type Options struct {
	// InitialPrintfSize 是 Printf 临时缓冲区的初始字节数，放不下时按倍数增长。默认 128。
	InitialPrintfSize int

	// BodyBufferSize 是新建正文缓冲区可容纳的初始条目数。默认 8。
	BodyBufferSize int

	// BodyBufferGrowFactor 是正文缓冲区满时的扩容倍数，必须大于 1。默认 2。
	BodyBufferGrowFactor int

	// MaxBodyBufferSize 是单个正文缓冲区最多可容纳的条目数，超过即扩容失败。默认 64K。
	MaxBodyBufferSize int

	// MaxAllocBytes 是单个响应通过分配器持有的最大字节数，0 表示不限制。
	MaxAllocBytes int

	// ChunkedAfterHeaders 为真时，在结束响应前显式发送的响应头使用分块传输，
	// 之后追加的正文仍能正确分帧。默认为假，即仅按发送响应头时已排队的字节计算 Content-Length。
	ChunkedAfterHeaders bool

	// FlushQuantum 是刷新驱动单轮最多写出的正文字节数，超过后剩余部分异步刷新。0 表示一轮写完。
	FlushQuantum int

	KeepAliveTimeout time.Duration // 长连接的闲置超时，默认 1 分钟
	ReadTimeout      time.Duration // 网络库读取的超时时间，默认 3 分钟，0 代表永不超时
	WriteTimeout     time.Duration // 网络库写入的超时时间，默认为 0，即永不超时
	ExitWaitTimeout  time.Duration // 优雅退出的等待时间，默认 5s
	MaxHeaderBytes   int           // 请求头的最大字节数，默认 8KB
	DisableKeepalive bool          // 是否禁用长连接，默认 false
	Network          string        // 网络协议，可选 "tcp", "unix"(unix domain socket)，默认 "tcp"
	Addr             string        // 监听地址，默认 ":8888"
	ListenConfig     *net.ListenConfig

	// TransporterNewer 是传输器的自定义创建函数。
	TransporterNewer func(opt *Options) network.Transporter

	// OnAccept 在接受连接之后、加入 epoll 之前调用。
	OnAccept func(conn net.Conn) context.Context
}

// Apply 将指定的一组配置方法 opts 应用到配置项上。
func (o *Options) Apply(opts []Option) {
	for _, opt := range opts {
		opt.F(o)
	}
}

// NewOptions 创建基于给定配置函数的配置项。
func NewOptions(opts []Option) *Options {
	options := &Options{
		InitialPrintfSize:    defaultInitialPrintfSize,
		BodyBufferSize:       defaultBodyBufferSize,
		BodyBufferGrowFactor: defaultGrowFactor,
		MaxBodyBufferSize:    defaultMaxBodyBufferSize,
		KeepAliveTimeout:     defaultKeepAliveTimeout,
		ReadTimeout:          defaultReadTimeout,
		ExitWaitTimeout:      defaultWaitExitTimeout,
		MaxHeaderBytes:       defaultMaxHeaderBytes,
		Network:              defaultNetwork,
		Addr:                 defaultAddr,
	}
	options.Apply(opts)
	return options
}
