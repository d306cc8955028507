package ext

import (
	"errors"
	"fmt"
	"io"

	errs "github.com/favbox/spool/common/errors"
)

var errNeedMore = errs.New(errs.ErrNeedMore, errs.ErrorTypePublic, "无法找到换行符")

// HeaderError 返回一个标头错误。
func HeaderError(typ string, err, errParse error, b []byte) error {
	if !errors.Is(errParse, errs.ErrNeedMore) {
		return headerErrorMsg(typ, errParse, b)
	}
	if err == nil {
		return errNeedMore
	}

	// 对端可能在上一个请求之后留下尾随的 CRLF，视为 EOF。
	if isOnlyCRLF(b) {
		return io.EOF
	}

	return headerErrorMsg(typ, err, b)
}

func headerErrorMsg(typ string, err error, b []byte) error {
	return errs.NewPublic(fmt.Sprintf("读取 %s 标头出错: %s。缓冲区大小=%d, 内容: %s", typ, err, len(b), BufferSnippet(b)))
}
