package sse

import (
	"io"
	"strconv"
)

// AppendEvent 将事件按 text/event-stream 格式追加到 dst。
//
// id 与 event 字段中的换行被转义；data 中的每个换行开始一个新的 data 行。
func AppendEvent(dst []byte, e *Event) []byte {
	if len(e.ID) > 0 {
		dst = appendField(dst, "id:", e.ID)
	}
	if len(e.Event) > 0 {
		dst = appendField(dst, "event:", e.Event)
	}
	if e.Retry > 0 {
		dst = append(dst, "retry:"...)
		dst = strconv.AppendUint(dst, e.Retry, 10)
		dst = append(dst, '\n')
	}

	dst = append(dst, "data:"...)
	for _, c := range e.Data {
		switch c {
		case '\n':
			dst = append(dst, "\ndata:"...)
		case '\r':
			dst = append(dst, `\r`...)
		default:
			dst = append(dst, c)
		}
	}
	return append(dst, "\n\n"...)
}

// Encode 将编码后的事件写入 w。
func Encode(w io.Writer, e *Event) error {
	_, err := w.Write(AppendEvent(nil, e))
	return err
}

func appendField(dst []byte, name, value string) []byte {
	dst = append(dst, name...)
	for i := 0; i < len(value); i++ {
		switch c := value[i]; c {
		case '\n':
			dst = append(dst, `\n`...)
		case '\r':
			dst = append(dst, `\r`...)
		default:
			dst = append(dst, c)
		}
	}
	return append(dst, '\n')
}
