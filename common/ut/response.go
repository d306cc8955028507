package ut

import (
	"bufio"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// ResponseRecorder 记录连接上写出的原始响应，并解析出状态码、标头和正文。
type ResponseRecorder struct {
	// Raw 是写出的全部字节。
	Raw string

	Code   int
	Header http.Header
	Body   []byte

	// Err 是解析响应时的错误，例如响应不完整。
	Err error
}

// NewRecorder 解析 raw 中的第一个响应。分块传输的正文会被解码。
func NewRecorder(raw string) *ResponseRecorder {
	r := &ResponseRecorder{Raw: raw}
	resp, err := http.ReadResponse(bufio.NewReader(strings.NewReader(raw)), nil)
	if err != nil {
		r.Err = err
		return r
	}
	defer resp.Body.Close()

	r.Code = resp.StatusCode
	r.Header = resp.Header
	r.Body, r.Err = io.ReadAll(resp.Body)
	if resp.ContentLength >= 0 {
		r.Header.Set("Content-Length", strconv.FormatInt(resp.ContentLength, 10))
	}
	if len(resp.TransferEncoding) > 0 {
		r.Header.Set("Transfer-Encoding", strings.Join(resp.TransferEncoding, ", "))
	}
	return r
}

// Chunked 报告响应是否使用分块传输。
func (r *ResponseRecorder) Chunked() bool {
	return r.Header.Get("Transfer-Encoding") == "chunked"
}
