package app

import (
	errs "github.com/favbox/spool/common/errors"
	"github.com/favbox/spool/common/json"
	"github.com/favbox/spool/protocol/consts"
	"google.golang.org/protobuf/proto"
)

// PrintJSON 将 v 编码为 JSON 后排入队列。
func (r *ResponseContext) PrintJSON(v any) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return r.fail(errs.New(err, errs.ErrorTypeInput, v))
	}
	return r.printOwned(data)
}

// PrintProtobuf 将 m 编码为 protobuf 后排入队列。
func (r *ResponseContext) PrintProtobuf(m proto.Message) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	data, err := proto.Marshal(m)
	if err != nil {
		return r.fail(errs.New(err, errs.ErrorTypeInput, nil))
	}
	return r.printOwned(data)
}

// JSON 设置状态码和 JSON 内容类型，并排入 v 的编码。
func (r *ResponseContext) JSON(code int, v any) error {
	return r.render(code, consts.MIMEApplicationJSONUTF8, func() error {
		return r.PrintJSON(v)
	})
}

// ProtoBuf 设置状态码和 protobuf 内容类型，并排入 m 的编码。
func (r *ResponseContext) ProtoBuf(code int, m proto.Message) error {
	return r.render(code, consts.MIMEApplicationProtobuf, func() error {
		return r.PrintProtobuf(m)
	})
}

// String 设置状态码和纯文本内容类型，并排入格式化结果。
func (r *ResponseContext) String(code int, format string, values ...any) error {
	return r.render(code, consts.MIMETextPlainUTF8, func() error {
		return r.Printf(format, values...)
	})
}

// Data 设置状态码和内容类型，并排入调用方持有的 data。
func (r *ResponseContext) Data(code int, contentType string, data []byte) error {
	return r.render(code, contentType, func() error {
		return r.Print(data)
	})
}

func (r *ResponseContext) render(code int, contentType string, body func() error) error {
	if err := r.SetStatus(code); err != nil {
		return err
	}
	if err := r.AddHeader(consts.ContentTypeLine(contentType)); err != nil {
		return err
	}
	return body()
}
