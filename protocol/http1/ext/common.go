package ext

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	errs "github.com/favbox/spool/common/errors"
	"github.com/favbox/spool/common/utils"
	"github.com/favbox/spool/internal/bytesconv"
	"github.com/favbox/spool/internal/bytestr"
	"github.com/favbox/spool/network"
)

var errTimeout = errs.New(errs.ErrTimeout, errs.ErrorTypePublic, "读取请求头")

// MustPeekBuffered 必须返回 r 中全部数据，若无数据或出错就触发恐慌。
func MustPeekBuffered(r network.Reader) []byte {
	l := r.Len()
	buf, err := r.Peek(l)
	if len(buf) == 0 || err != nil {
		panic(fmt.Sprintf("network.Reader.Peek() 返回异常数据 (%q, %v)", buf, err))
	}

	return buf
}

// MustDiscard 必须跳过 r 的前 n 个字节，否则就触发恐慌。
func MustDiscard(r network.Reader, n int) {
	if err := r.Skip(n); err != nil {
		panic(fmt.Sprintf("network.Reader.Skip(%d) failed: %s", n, err))
	}
}

// BufferSnippet 返回字节切片的片段。
//
// 形如: <前缀 20 位>...<后缀=总长度-20位>
//
// 若前缀长 >= 后缀长，则直接返回原始切片。
func BufferSnippet(b []byte) string {
	n := len(b)
	start := 20
	end := n - start
	if start >= end {
		start = n
		end = n
	}
	bStart, bEnd := b[:start], b[end:]
	if len(bEnd) == 0 {
		return fmt.Sprintf("%q", b)
	}
	return fmt.Sprintf("%q...%q", bStart, bEnd)
}

// ReadRawHeaders 从 buf 中截取以空行结尾的原始头部，追加到 dst 并返回消耗的字节数。
//
// 头部不完整时返回 ErrNeedMore。
func ReadRawHeaders(dst, buf []byte) ([]byte, int, error) {
	n := bytes.IndexByte(buf, '\n')
	if n < 0 {
		return dst[:0], 0, errNeedMore
	}
	if (n == 1 && buf[0] == '\r') || n == 0 {
		// 空标头
		return dst, n + 1, nil
	}

	n++
	b := buf
	m := n
	for {
		b = b[m:]
		m = bytes.IndexByte(b, '\n')
		if m < 0 {
			return dst, 0, errNeedMore
		}
		m++
		n += m
		if (m == 2 && b[0] == '\r') || m == 1 {
			dst = append(dst, buf[:n]...)
			return dst, n, nil
		}
	}
}

// ReadHead 从 r 中读取一个完整的原始头部（含结尾空行）并跳过这些字节。
//
// 头部超过 max 字节时返回错误；r 已关闭时返回 io.EOF。
func ReadHead(r network.Reader, max int) ([]byte, error) {
	n := 1
	for {
		b, err := r.Peek(n)
		if len(b) == 0 {
			if err != nil && strings.Contains(err.Error(), "timeout") {
				return nil, errTimeout
			}
			// 只读 1 个字节时出错也当做 EOF
			if n == 1 || err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("错误发生于读取请求头：%s", err)
		}

		b = MustPeekBuffered(r)
		head, size, errParse := ReadRawHeaders(nil, b)
		if errParse == nil {
			MustDiscard(r, size)
			return head, nil
		}
		if max > 0 && len(b) >= max {
			return nil, headerErrorMsg("request", fmt.Errorf("超过 %d 字节", max), b)
		}
		if hErr := HeaderError("request", err, errParse, b); hErr != errNeedMore {
			return nil, hErr
		}

		// 无更多可用数据，尝试阻断 peek
		if n == r.Len() {
			n++
			continue
		}
		n = r.Len()
	}
}

// WriteChunk 将 b 作为一个数据块写入 w，空切片不写。
func WriteChunk(w network.Writer, b []byte, withFlush bool) (err error) {
	n := len(b)
	if n == 0 {
		return nil
	}
	if err = bytesconv.WriteHexInt(w, n); err != nil {
		return err
	}

	w.WriteBinary(bytestr.StrCRLF)
	if _, err = w.WriteBinary(b); err != nil {
		return err
	}
	w.WriteBinary(bytestr.StrCRLF)

	if !withFlush {
		return nil
	}
	return w.Flush()
}

// AppendChunk 向 dst 追加 b 的分块编码。b 为空时不追加，以免被当作结束块。
func AppendChunk(dst, b []byte) []byte {
	if len(b) == 0 {
		return dst
	}
	dst = bytesconv.AppendHexInt(dst, len(b))
	dst = append(dst, bytestr.StrCRLF...)
	dst = append(dst, b...)
	return append(dst, bytestr.StrCRLF...)
}

// WriteLastChunk 写入分块传输的结束块并刷新。
func WriteLastChunk(w network.Writer) error {
	if _, err := w.WriteBinary(bytestr.StrLastChunk); err != nil {
		return err
	}
	return w.Flush()
}

// WriteBodyFixedSize 从 r 中拷贝 size 个字节到 w。
func WriteBodyFixedSize(w network.Writer, r io.Reader, size int64) error {
	if size == 0 {
		return nil
	}

	n, err := utils.CopyZeroAlloc(w, io.LimitReader(r, size))
	if n != size && err == nil {
		err = fmt.Errorf("从正文流中拷贝了 %d 个字节而不是 %d 个字节", n, size)
	}
	return err
}

// WriteBodyChunked 将 r 的内容逐块写入 w，不写结束块。
func WriteBodyChunked(w network.Writer, r io.Reader) error {
	vBuf := utils.CopyBufPool.Get()
	buf := vBuf.([]byte)

	// 每块写完即刷新，buf 才能复用
	err := utils.ForEachChunk(r, buf, func(p []byte) error {
		return WriteChunk(w, p, true)
	})

	utils.CopyBufPool.Put(vBuf)
	return err
}

func isOnlyCRLF(b []byte) bool {
	for _, ch := range b {
		if ch != '\r' && ch != '\n' {
			return false
		}
	}
	return true
}
