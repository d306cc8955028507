// Package req 读取 HTTP/1.x 请求。
package req

import (
	"bytes"
	"fmt"

	errs "github.com/favbox/spool/common/errors"
	"github.com/favbox/spool/internal/bytesconv"
	"github.com/favbox/spool/network"
	"github.com/favbox/spool/protocol"
	"github.com/favbox/spool/protocol/http1/ext"
)

// ReadRequest 从 r 读取一个请求到 req，含定长正文。
//
// 请求头超过 maxHeaderBytes 时返回错误；连接关闭时返回 io.EOF。
func ReadRequest(r network.Reader, req *protocol.Request, maxHeaderBytes int) error {
	req.Reset()

	var head []byte
	for len(head) == 0 {
		var err error
		// 跳过请求之间多余的空行
		if head, err = ext.ReadHead(r, maxHeaderBytes); err != nil {
			return err
		}
	}

	n := bytes.IndexByte(head, '\n')
	if err := parseFirstLine(req, bytes.TrimRight(head[:n], "\r")); err != nil {
		return err
	}
	req.Header = head[n+1:]

	if cl := req.ContentLength(); cl > 0 {
		body, err := r.ReadBinary(cl)
		if err != nil {
			return err
		}
		// 读取到的切片在 Release 之后失效
		req.Body = append([]byte(nil), body...)
	}
	return nil
}

func parseFirstLine(req *protocol.Request, line []byte) error {
	method, rest, ok := bytes.Cut(line, []byte{' '})
	if !ok || len(method) == 0 {
		return firstLineError(line)
	}
	uri, proto, ok := bytes.Cut(rest, []byte{' '})
	if !ok || len(uri) == 0 || !bytes.HasPrefix(proto, []byte("HTTP/")) {
		return firstLineError(line)
	}

	req.Method = string(method)
	req.URI = string(uri)
	req.Proto = string(proto)
	return nil
}

func firstLineError(line []byte) error {
	return errs.New(fmt.Errorf("无法解析请求行 %s", ext.BufferSnippet(line)), errs.ErrorTypePublic, bytesconv.B2s(line))
}
