package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	baseError := errors.New("test error")
	err := &Error{
		Err:  baseError,
		Type: ErrorTypeResource,
	}
	assert.Equal(t, err.Error(), baseError.Error())
	assert.Equal(t, map[string]any{"error": baseError.Error()}, err.JSON())

	assert.Equal(t, err.SetType(ErrorTypeMisuse), err)
	assert.Equal(t, ErrorTypeMisuse, err.Type)

	assert.Equal(t, err.SetMeta("send_headers"), err)
	assert.Equal(t, "send_headers", err.Meta)
	assert.Equal(t, map[string]any{
		"error": baseError.Error(),
		"meta":  "send_headers",
	}, err.JSON())

	err.SetMeta(map[string]any{
		"op":   "printf",
		"size": 256,
	})
	assert.Equal(t, map[string]any{
		"error": baseError.Error(),
		"op":    "printf",
		"size":  256,
	}, err.JSON())
}

func TestErrorUnwrap(t *testing.T) {
	err := New(ErrBufferExhausted, ErrorTypeResource, "print")
	assert.True(t, errors.Is(err, ErrBufferExhausted))
	assert.Equal(t, ErrorTypeResource, TypeOf(err))
	assert.Equal(t, ErrorTypeResource, TypeOf(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, ErrorTypeAny, TypeOf(ErrBufferExhausted))
}

func TestErrorChain(t *testing.T) {
	errs := ErrorChain{
		{Err: errors.New("first"), Type: ErrorTypeMisuse},
		{Err: errors.New("second"), Type: ErrorTypeResource, Meta: "printf"},
		{Err: errors.New("third"), Type: ErrorTypeInput, Meta: map[string]any{"path": "/nope"}},
	}
	assert.Equal(t, errs, errs.ByType(ErrorTypeAny))
	assert.Equal(t, "third", errs.Last().Error())
	assert.Equal(t, []string{"first", "second", "third"}, errs.Errors())
	assert.Equal(t, []string{"third"}, errs.ByType(ErrorTypeInput).Errors())
	assert.Equal(t, []string{"first", "second"}, errs.ByType(ErrorTypeMisuse|ErrorTypeResource).Errors())
	assert.Equal(t, "", errs.ByType(ErrorTypeTransport).String())
	assert.Equal(t, `Error #01: first
Error #02: second
     Meta: printf
Error #03: third
     Meta: map[path:/nope]
`, errs.String())
	assert.Equal(t, []any{
		map[string]any{"error": "first"},
		map[string]any{"error": "second", "meta": "printf"},
		map[string]any{"error": "third", "path": "/nope"},
	}, errs.JSON())

	errs = ErrorChain{}
	assert.True(t, errs.Last() == nil)
	assert.Nil(t, errs.JSON())
	assert.Equal(t, "", errs.String())
}

func TestErrorFormat(t *testing.T) {
	err := Newf(ErrorTypeAny, nil, "caused by %s", "reason")
	assert.Equal(t, New(errors.New("caused by reason"), ErrorTypeAny, nil), err)
	publicErr := NewPublicf("caused by %s", "reason")
	assert.Equal(t, New(errors.New("caused by reason"), ErrorTypePublic, nil), publicErr)
}

func TestErrorPrivate(t *testing.T) {
	err := NewPrivate("engine is running")
	assert.True(t, err.IsType(ErrorTypePrivate))
	assert.False(t, err.IsType(ErrorTypePublic))
	assert.Equal(t, "engine is running", err.Error())
}
