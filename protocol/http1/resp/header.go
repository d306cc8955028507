// Package resp 是 HTTP/1.1 响应的默认写出实现：响应头写入器和输出队列的刷新驱动。
package resp

import (
	"github.com/favbox/spool/common/bytebufferpool"
	"github.com/favbox/spool/internal/bytesconv"
	"github.com/favbox/spool/internal/bytestr"
	"github.com/favbox/spool/network"
	"github.com/favbox/spool/protocol/consts"
)

// AppendHeader 向 dst 追加完整的响应头。
//
// contentLength 为负数时使用分块传输编码。每个标头行不含结尾的 CRLF。
func AppendHeader(dst []byte, statusCode int, contentLength int64, lines [][]byte) []byte {
	dst = append(dst, consts.StatusLine(statusCode)...)
	for _, line := range lines {
		dst = append(dst, line...)
		dst = append(dst, bytestr.StrCRLF...)
	}

	if contentLength >= 0 {
		dst = append(dst, bytestr.StrContentLength...)
		dst = append(dst, bytestr.StrColonSpace...)
		dst = bytesconv.AppendUint(dst, int(contentLength))
	} else {
		dst = append(dst, bytestr.StrTransferEncoding...)
		dst = append(dst, bytestr.StrColonSpace...)
		dst = append(dst, bytestr.StrChunked...)
	}
	dst = append(dst, bytestr.StrCRLF...)
	return append(dst, bytestr.StrCRLF...)
}

// WriteHeader 写入响应头到 w 并刷新。
func WriteHeader(w network.Writer, statusCode int, contentLength int64, lines [][]byte) error {
	buf := bytebufferpool.Get()
	buf.B = AppendHeader(buf.B, statusCode, contentLength, lines)

	// 拷贝进写入器自己的内存，buf 可立即归还
	p, err := w.Malloc(len(buf.B))
	if err == nil {
		copy(p, buf.B)
	}
	bytebufferpool.Put(buf)
	if err != nil {
		return err
	}
	return w.Flush()
}
