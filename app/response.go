package app

import (
	"context"
	"fmt"
	"os"

	"github.com/favbox/spool/common/config"
	errs "github.com/favbox/spool/common/errors"
	"github.com/favbox/spool/common/hlog"
	"github.com/favbox/spool/common/mem"
	"github.com/favbox/spool/internal/nocopy"
	"github.com/favbox/spool/network"
	"github.com/favbox/spool/protocol"
	"github.com/favbox/spool/protocol/output"
	rConsts "github.com/favbox/spool/route/consts"
)

var (
	errHeadersSent   = errs.New(errs.ErrHeadersSent, errs.ErrorTypeMisuse, nil)
	errDirectWrite   = errs.New(errs.ErrDirectWrite, errs.ErrorTypeMisuse, nil)
	errResponseEnded = errs.New(errs.ErrResponseEnded, errs.ErrorTypeMisuse, nil)
	errMissingStatus = errs.New(errs.ErrMissingStatus, errs.ErrorTypeMisuse, nil)
)

// abort 在未设置状态码就结束响应时终止进程。
//
// 发送状态码为 0 的响应只会让客户端收到无效数据，这是调用方的缺陷，不做恢复。
var abort = func() { os.Exit(1) }

type state uint8

const (
	stateInit state = iota
	stateHeadersSent
	stateFlushing
	stateEnded
)

// EndFunc 在响应结束、资源释放之后调用。err 是写出过程中的错误。
type EndFunc func(err error)

// ResponseContext 表示一个响应。
//
// 处理器按调用顺序把正文排入输出队列：Print 和 Printf 连续调用时合并进同一个正文缓冲区，
// SendFile 总是单独成为一个条目。End 发送响应头（如尚未发送）并触发刷新，
// 刷新完成后释放队列、通知连接，最后调用结束回调。
//
// 同一个响应只能由一个协程操作，Wait 和 Continue 只改变连接的轮询状态，不影响队列。
type ResponseContext struct {
	noCopy nocopy.NoCopy

	Request protocol.Request

	// 所有失败调用的错误链。
	Errors errs.ErrorChain

	host  Host
	opts  *config.Options
	alloc mem.Allocator
	queue *output.Queue

	statusCode       int
	headers          [][]byte
	headersSent      bool
	directWriteCount int
	contentLength    int64
	state            state
	onEnd            EndFunc
	err              error

	handlers HandlersChain
	index    int8
}

// NewResponseContext 创建绑定到 host 的响应。opts 为 nil 时使用默认配置。
func NewResponseContext(host Host, opts *config.Options) *ResponseContext {
	if opts == nil {
		opts = config.NewOptions(nil)
	}
	alloc := host.Allocator()
	if alloc == nil {
		alloc = mem.Default()
	}
	return &ResponseContext{
		host:  host,
		opts:  opts,
		alloc: alloc,
		queue: output.NewQueue(),
		index: -1,
	}
}

// SetStatus 设置状态码，响应头发送后调用无效。
func (r *ResponseContext) SetStatus(statusCode int) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if r.headersSent {
		return r.fail(errHeadersSent)
	}
	r.statusCode = statusCode
	return nil
}

// AddHeader 追加一行完整的标头，如 "Content-Type: text/plain"，不含结尾的 CRLF。
//
// line 会被拷贝，调用后即可复用。
func (r *ResponseContext) AddHeader(line []byte) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if r.headersSent {
		return r.fail(errHeadersSent)
	}
	r.headers = append(r.headers, append([]byte(nil), line...))
	return nil
}

// Header 追加标头 key: value。
func (r *ResponseContext) Header(key, value string) error {
	return r.AddHeader([]byte(key + ": " + value))
}

// ResetBody 丢弃已排队的正文并释放其资源，响应头发送后调用无效。已设置的状态码和标头保持不变。
func (r *ResponseContext) ResetBody() error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if r.headersSent {
		return r.fail(errHeadersSent)
	}
	r.queue.Release(r.alloc)
	r.queue = output.NewQueue()
	return nil
}

// SendHeaders 立即发送响应头，Content-Length 取当前已排队的正文字节数。
//
// 只能成功调用一次，直接写出过正文后也不能再调用。
// 启用 ChunkedAfterHeaders 时改为声明分块传输，之后排队的正文也能正确分帧。
func (r *ResponseContext) SendHeaders() error {
	return r.sendHeaders(r.opts.ChunkedAfterHeaders)
}

// SendChunkedHeaders 立即发送声明分块传输的响应头，不受 ChunkedAfterHeaders 影响。
//
// 适用于边生成边直接写出分块正文的流式响应，结束时由刷新方写出结束块。
func (r *ResponseContext) SendChunkedHeaders() error {
	return r.sendHeaders(true)
}

func (r *ResponseContext) sendHeaders(chunked bool) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if r.headersSent {
		hlog.SystemLogger().Warnf("重复发送响应头：状态码=%d", r.statusCode)
		return r.fail(errHeadersSent)
	}
	if r.directWriteCount > 0 {
		return r.fail(errDirectWrite)
	}
	if r.statusCode == 0 {
		return r.fail(errMissingStatus)
	}

	contentLength := r.queue.Size()
	if chunked {
		contentLength = -1
	}
	if err := r.host.TransmitHeader(r.statusCode, contentLength, r.headers); err != nil {
		return r.fail(errs.New(err, errs.ErrorTypeTransport, nil))
	}

	r.headersSent = true
	r.contentLength = contentLength
	r.state = stateHeadersSent
	return nil
}

// Print 将调用方持有的 p 排入队列。p 在响应结束前不得修改。
func (r *ResponseContext) Print(p []byte) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	return r.appendEntry(p, false)
}

// Printf 格式化后排入队列。
//
// 直接格式化到分配器申请的临时缓冲区中，从 InitialPrintfSize 开始，
// 放不下时按倍数扩容后重新格式化。失败时释放临时缓冲区，队列保持不变。
func (r *ResponseContext) Printf(format string, args ...any) error {
	if err := r.checkWritable(); err != nil {
		return err
	}

	scratch, err := r.alloc.Allocate(r.initialPrintfSize())
	if err != nil {
		return r.fail(err)
	}
	for {
		// 超出容量时 Appendf 改用新分配的内存，结果作废
		out := fmt.Appendf(scratch[:0], format, args...)
		if len(out) < len(scratch) {
			scratch = scratch[:len(out)]
			break
		}
		grown, err := r.alloc.Grow(scratch, len(scratch)*2)
		if err != nil {
			r.alloc.Release(scratch)
			return r.fail(err)
		}
		scratch = grown
	}

	if err = r.appendEntry(scratch, true); err != nil {
		r.alloc.Release(scratch)
		return err
	}
	return nil
}

func (r *ResponseContext) initialPrintfSize() int {
	if r.opts.InitialPrintfSize <= 0 {
		return 1
	}
	return r.opts.InitialPrintfSize
}

// printOwned 把 p 拷贝到分配器的内存后排入队列。
func (r *ResponseContext) printOwned(p []byte) error {
	size := r.initialPrintfSize()
	scratch, err := r.alloc.Allocate(size)
	if err != nil {
		return r.fail(err)
	}
	for len(p) >= len(scratch) {
		size *= 2
		grown, err := r.alloc.Grow(scratch, size)
		if err != nil {
			r.alloc.Release(scratch)
			return r.fail(err)
		}
		scratch = grown
	}

	n := copy(scratch, p)
	if err = r.appendEntry(scratch[:n], true); err != nil {
		r.alloc.Release(scratch)
		return err
	}
	return nil
}

// appendEntry 追加到队尾的正文缓冲区，队尾不是正文缓冲区时新建一个。
func (r *ResponseContext) appendEntry(data []byte, owned bool) error {
	buf, ok := r.queue.Last().(*output.BodyBuffer)
	if !ok {
		buf = output.NewBodyBuffer(r.opts.BodyBufferSize, r.opts.BodyBufferGrowFactor, r.opts.MaxBodyBufferSize)
		if err := r.queue.Append(buf); err != nil {
			return r.fail(err)
		}
	}
	if buf.Full() {
		if err := buf.Expand(); err != nil {
			return r.fail(err)
		}
	}
	if err := buf.Append(data, owned); err != nil {
		return r.fail(err)
	}
	return nil
}

// SendFile 将绝对路径 path 指向的文件排入队列。文件无法打开时不入队。
func (r *ResponseContext) SendFile(path string) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	sf, err := output.NewSendFile(path)
	if err != nil {
		return r.fail(err)
	}
	if err = r.queue.Append(sf); err != nil {
		sf.Release(r.alloc)
		return r.fail(err)
	}
	return nil
}

// WriteRaw 绕过队列直接写出 p。之后不能再调用 SendHeaders。
func (r *ResponseContext) WriteRaw(p []byte) (int, error) {
	if err := r.checkWritable(); err != nil {
		return 0, err
	}
	r.directWriteCount++
	n, err := r.host.WriteRaw(p)
	if err != nil {
		return n, r.fail(errs.New(err, errs.ErrorTypeTransport, nil))
	}
	return n, nil
}

// Wait 请求将连接移出轮询且不设超时，立即返回。只有 Continue 能恢复。
func (r *ResponseContext) Wait() error {
	return r.changeMode(network.ModeSleep)
}

// Continue 请求将连接恢复轮询。
func (r *ResponseContext) Continue() error {
	return r.changeMode(network.ModeWakeup)
}

func (r *ResponseContext) changeMode(mode network.Mode) error {
	if r.state == stateEnded {
		return r.fail(errResponseEnded)
	}
	if err := r.host.ChangeMode(mode, network.NoTimeout); err != nil {
		return r.fail(errs.New(err, errs.ErrorTypeTransport, nil))
	}
	return nil
}

// End 结束响应。
//
// 必须先设置状态码，否则记录日志后终止进程。响应头尚未发送时先发送，
// 然后封存队列并触发刷新。同步刷新完成时立即结束；否则在刷新方调用 Flushed 时结束。
// 结束时依次释放队列、通知连接、调用 cb。
func (r *ResponseContext) End(cb EndFunc) error {
	if r.state >= stateFlushing {
		return r.fail(errResponseEnded)
	}
	if r.statusCode == 0 {
		hlog.SystemLogger().Errorf("结束响应前未设置状态码，进程即将终止：请求=%s %s", r.Request.Method, r.Request.URI)
		abort()
		return r.fail(errMissingStatus)
	}

	r.onEnd = cb
	if !r.headersSent && r.directWriteCount == 0 {
		if err := r.sendHeaders(false); err != nil {
			r.queue.Seal()
			r.state = stateFlushing
			r.finalize(err)
			return err
		}
	}

	r.queue.Seal()
	r.state = stateFlushing
	status, err := r.host.FlushQueue(r)
	if status == output.FlushPending && err == nil {
		return nil
	}
	if err != nil {
		r.fail(err)
	}
	r.finalize(err)
	return err
}

// Flushed 由异步刷新方在队列写完后调用，只生效一次。
func (r *ResponseContext) Flushed(err error) {
	if r.state != stateFlushing {
		return
	}
	if err != nil {
		r.fail(err)
	}
	r.finalize(err)
}

func (r *ResponseContext) finalize(err error) {
	r.err = err
	r.state = stateEnded
	r.queue.Release(r.alloc)
	r.host.ServiceEnd(r)
	if r.onEnd != nil {
		r.onEnd(err)
	}
}

// checkWritable 确认响应尚未结束。
func (r *ResponseContext) checkWritable() error {
	if r.state >= stateFlushing {
		return r.fail(errResponseEnded)
	}
	return nil
}

// fail 记录错误到错误链并原样返回。
func (r *ResponseContext) fail(err error) error {
	e, ok := err.(*errs.Error)
	if !ok {
		e = errs.New(err, errs.ErrorTypeAny, nil)
	}
	r.Errors = append(r.Errors, e)
	return err
}

// StatusCode 返回已设置的状态码，未设置时为 0。
func (r *ResponseContext) StatusCode() int {
	return r.statusCode
}

// HeadersSent 报告响应头是否已发送。
func (r *ResponseContext) HeadersSent() bool {
	return r.headersSent
}

// ContentLength 返回响应头中声明的长度，分块传输时为 -1。响应头发送前无意义。
func (r *ResponseContext) ContentLength() int64 {
	return r.contentLength
}

// Queue 返回输出队列。
func (r *ResponseContext) Queue() *output.Queue {
	return r.queue
}

// DirectWrites 返回绕过队列的写出次数。
func (r *ResponseContext) DirectWrites() int {
	return r.directWriteCount
}

// Ended 报告响应是否已结束。
func (r *ResponseContext) Ended() bool {
	return r.state == stateEnded
}

// Err 返回结束时的写出错误。
func (r *ResponseContext) Err() error {
	return r.err
}

// SetHandlers 设置处理链。
func (r *ResponseContext) SetHandlers(handlers HandlersChain) {
	r.handlers = handlers
	r.index = -1
}

// Next 执行处理链中剩余的处理器，仅在中间件内部使用。
func (r *ResponseContext) Next(c context.Context) {
	r.index++
	for r.index < int8(len(r.handlers)) {
		r.handlers[r.index](c, r)
		r.index++
	}
}

// Abort 阻止调用处理链中剩余的处理器，不影响当前处理器。
func (r *ResponseContext) Abort() {
	r.index = rConsts.AbortIndex
}

// IsAborted 报告处理链是否已中止。
func (r *ResponseContext) IsAborted() bool {
	return r.index >= rConsts.AbortIndex
}
