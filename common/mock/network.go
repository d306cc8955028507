package mock

import (
	"bytes"
	"io"
	"net"
	"strings"
	"time"

	"github.com/cloudwego/netpoll"
	errs "github.com/favbox/spool/common/errors"
	"github.com/favbox/spool/network"
)

var (
	ErrReadTimeout  = errs.New(errs.ErrTimeout, errs.ErrorTypePublic, "read timeout")
	ErrWriteTimeout = errs.New(errs.ErrTimeout, errs.ErrorTypePublic, "write timeout")
)

type Recorder interface {
	network.Reader
	WroteLen() int
}

type recorder struct {
	c *Conn
	network.Reader
}

func (r *recorder) WroteLen() int {
	return r.c.wroteLen
}

// Conn 是内存中的连接：读取端是给定的原始请求，写入端刷新后的数据记录在 out 中。
type Conn struct {
	readTimeout time.Duration
	zr          network.Reader
	zw          network.ReadWriter
	out         *bytes.Buffer
	wroteLen    int
	flushes     int
	closed      bool
}

// --- 实现 network.Conn ---

func (m *Conn) SetReadTimeout(t time.Duration) error {
	m.readTimeout = t
	return nil
}

func (m *Conn) SetWriteTimeout(t time.Duration) error {
	return nil
}

// --- 实现 network.Reader ---

func (m *Conn) Peek(n int) ([]byte, error) {
	b, err := m.zr.Peek(n)
	if err != nil || len(b) != n {
		if m.readTimeout > 0 {
			time.Sleep(m.readTimeout)
		}
		return nil, errs.ErrTimeout
	}
	return b, err
}

func (m *Conn) Skip(n int) error {
	return m.zr.Skip(n)
}

func (m *Conn) Release() error {
	return nil
}

func (m *Conn) Len() int {
	return m.zr.Len()
}

func (m *Conn) ReadByte() (byte, error) {
	return m.zr.ReadByte()
}

func (m *Conn) ReadBinary(n int) (p []byte, err error) {
	return m.zr.(netpoll.Reader).ReadBinary(n)
}

// --- 实现 network.Writer ---

func (m *Conn) Malloc(n int) (buf []byte, err error) {
	m.wroteLen += n
	return m.zw.Malloc(n)
}

func (m *Conn) WriteBinary(b []byte) (n int, err error) {
	n, err = m.zw.WriteBinary(b)
	m.wroteLen += n
	return n, err
}

func (m *Conn) Flush() error {
	m.flushes++
	return m.zw.Flush()
}

// --- 实现 net.Conn ---

func (m *Conn) Read(b []byte) (n int, err error) {
	return netpoll.NewIOReader(m.zr.(netpoll.Reader)).Read(b)
}

func (m *Conn) Write(b []byte) (n int, err error) {
	return netpoll.NewIOWriter(m.zw.(netpoll.ReadWriter)).Write(b)
}

func (m *Conn) Close() error {
	m.closed = true
	return nil
}

func (m *Conn) LocalAddr() net.Addr {
	return nil
}

func (m *Conn) RemoteAddr() net.Addr {
	return nil
}

func (m *Conn) SetDeadline(t time.Time) error {
	return nil
}

func (m *Conn) SetReadDeadline(t time.Time) error {
	m.readTimeout = -time.Since(t)
	return nil
}

func (m *Conn) SetWriteDeadline(t time.Time) error {
	return nil
}

// --- 其他扩展 ---

func (m *Conn) WriterRecorder() Recorder {
	return &recorder{
		c:      m,
		Reader: m.zw,
	}
}

// Flushed 返回迄今为止已刷新至对端的全部数据。
func (m *Conn) Flushed() string {
	return m.out.String()
}

// Flushes 返回 Flush 被调用的次数。
func (m *Conn) Flushes() int {
	return m.flushes
}

// Closed 报告连接是否已被关闭。
func (m *Conn) Closed() bool {
	return m.closed
}

// NewConn 创建指定原始请求字符串的连接。
func NewConn(source string) *Conn {
	zr := netpoll.NewReader(strings.NewReader(source))
	out := &bytes.Buffer{}
	zw := netpoll.NewReadWriter(out)

	return &Conn{
		zr:  zr,
		zw:  zw,
		out: out,
	}
}

// BrokenConn 模拟对端已断开的连接：读取失败，刷新失败。
type BrokenConn struct {
	*Conn
}

func (c *BrokenConn) Peek(n int) ([]byte, error) {
	return nil, io.ErrUnexpectedEOF
}

func (c *BrokenConn) Read(b []byte) (n int, err error) {
	return 0, io.ErrUnexpectedEOF
}

func (c *BrokenConn) Flush() error {
	return errs.ErrConnectionClosed
}

func NewBrokenConn(source string) *BrokenConn {
	return &BrokenConn{NewConn(source)}
}
