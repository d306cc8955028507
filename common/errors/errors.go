package errors

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// 协议误用
	ErrHeadersSent   = errors.New("响应头已发送")
	ErrDirectWrite   = errors.New("正文已被直接写入，无法再发送响应头")
	ErrResponseEnded = errors.New("响应已结束")
	ErrMissingStatus = errors.New("未设置 HTTP 响应状态码")

	// 资源耗尽
	ErrBufferFull      = errors.New("正文缓冲区已满")
	ErrBufferExhausted = errors.New("正文缓冲区无法继续扩容")
	ErrAllocLimit      = errors.New("内存分配超出限制")

	// 无效输入
	ErrInvalidPath = errors.New("无效的文件路径")

	// 传输
	ErrQueueSealed      = errors.New("输出队列已封存")
	ErrConnectionClosed = errors.New("连接已关闭")
	ErrShortConnection  = errors.New("短连接")
	ErrBacklogFull      = errors.New("积压的请求过多")
	ErrTimeout          = errors.New("timeout")
	ErrNeedMore         = errors.New("需要更多数据")
	ErrNothingRead      = errors.New("未读取任何内容")
)

type ErrorType uint64

// Error 表示一个带有错误类型和元信息的错误规范。
type Error struct {
	Err  error
	Type ErrorType
	Meta any
}

// 返回错误的消息字符串。
func (msg *Error) Error() string {
	return msg.Err.Error()
}

func (msg *Error) JSON() any {
	jsonData := make(map[string]any)
	if msg.Meta != nil {
		value := reflect.ValueOf(msg.Meta)
		switch value.Kind() {
		case reflect.Struct:
			return msg.Meta
		case reflect.Map:
			for _, key := range value.MapKeys() {
				jsonData[key.String()] = value.MapIndex(key).Interface()
			}
		default:
			jsonData["meta"] = msg.Meta
		}
	}
	if _, ok := jsonData["error"]; !ok {
		jsonData["error"] = msg.Error()
	}
	return jsonData
}

func (msg *Error) Unwrap() error {
	return msg.Err
}

func (msg *Error) IsType(flags ErrorType) bool {
	return (msg.Type & flags) > 0
}

func (msg *Error) SetType(flags ErrorType) *Error {
	msg.Type = flags
	return msg
}

func (msg *Error) SetMeta(data any) *Error {
	msg.Meta = data
	return msg
}

const (
	// ErrorTypeMisuse 调用方违反了响应的使用约定，属于程序缺陷。
	ErrorTypeMisuse ErrorType = 1 << iota
	// ErrorTypeResource 表示内存或缓冲区等资源耗尽，调用边界可恢复。
	ErrorTypeResource
	// ErrorTypeInput 表示调用方传入了无效参数，如不可达的文件路径。
	ErrorTypeInput
	// ErrorTypeTransport 表示向连接写入数据时出错。
	ErrorTypeTransport
	// ErrorTypePrivate 表示一个私有错误。
	ErrorTypePrivate
	// ErrorTypePublic 表示一个公开的错误。
	ErrorTypePublic
	// ErrorTypeAny 表示任何其他错误。
	ErrorTypeAny
)

var _ error = (*Error)(nil)

// New 新建一个指定错误和错误类型及元数据的自定义错误。
func New(err error, t ErrorType, meta any) *Error {
	return &Error{
		Err:  err,
		Type: t,
		Meta: meta,
	}
}

func NewPrivate(err string) *Error {
	return New(errors.New(err), ErrorTypePrivate, nil)
}

func NewPublic(err string) *Error {
	return New(errors.New(err), ErrorTypePublic, nil)
}

func Newf(t ErrorType, meta any, format string, v ...any) *Error {
	return New(fmt.Errorf(format, v...), t, meta)
}

func NewPublicf(format string, v ...any) *Error {
	return New(fmt.Errorf(format, v...), ErrorTypePublic, nil)
}

// TypeOf 返回 err 链上第一个 *Error 的错误类型，找不到则返回 ErrorTypeAny。
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeAny
}

// ErrorChain 错误链。
type ErrorChain []*Error

func (c ErrorChain) String() string {
	if len(c) == 0 {
		return ""
	}
	var buf strings.Builder
	for i, msg := range c {
		fmt.Fprintf(&buf, "Error #%02d: %s\n", i+1, msg.Err)
		if msg.Meta != nil {
			fmt.Fprintf(&buf, "     Meta: %v\n", msg.Meta)
		}
	}
	return buf.String()
}

// Errors 返回错误的消息字符串切片。
func (c ErrorChain) Errors() []string {
	if len(c) == 0 {
		return nil
	}
	errorStrings := make([]string, len(c))
	for i, err := range c {
		errorStrings[i] = err.Error()
	}
	return errorStrings
}

// ByType 返回按指定类型过滤的错误数组。支持位或|操作。
func (c ErrorChain) ByType(t ErrorType) ErrorChain {
	if len(c) == 0 {
		return nil
	}
	if t == ErrorTypeAny {
		return c
	}
	var result ErrorChain
	for _, msg := range c {
		if msg.IsType(t) {
			result = append(result, msg)
		}
	}
	return result
}

// Last 返回错误链中最后一个错误。
func (c ErrorChain) Last() *Error {
	if length := len(c); length > 0 {
		return c[length-1]
	}
	return nil
}

func (c ErrorChain) JSON() any {
	switch length := len(c); length {
	case 0:
		return nil
	case 1:
		return c.Last().JSON()
	default:
		jsonData := make([]any, length)
		for i, err := range c {
			jsonData[i] = err.JSON()
		}
		return jsonData
	}
}
