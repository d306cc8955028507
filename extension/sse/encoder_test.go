package sse

import (
	"bytes"
	"errors"
	"testing"

	"github.com/favbox/spool/common/json"
	"github.com/stretchr/testify/assert"
)

func TestAppendEvent(t *testing.T) {
	payload, err := json.Marshal(map[string]any{"price": 1.5, "sym": "SPL"})
	assert.Nil(t, err)

	tests := []struct {
		name  string
		event *Event
		want  string
	}{
		{"空事件", &Event{}, "data:\n\n"},
		{"多行数据", &Event{Data: []byte("a\n\nb\n")}, "data:a\ndata:\ndata:b\ndata:\n\n"},
		{"回车转义", &Event{Data: []byte("a\rb")}, "data:a\\rb\n\n"},
		{"字段转义", &Event{ID: "1\n2", Event: "x\ry"}, "id:1\\n2\nevent:x\\ry\ndata:\n\n"},
		{"字段顺序", &Event{Data: []byte("d"), Retry: 3000, Event: "tick", ID: "7"}, "id:7\nevent:tick\nretry:3000\ndata:d\n\n"},
		{"JSON 数据", &Event{Event: "quote", Data: payload}, "event:quote\ndata:{\"price\":1.5,\"sym\":\"SPL\"}\n\n"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, string(AppendEvent(nil, tt.event)), tt.name)
	}
}

func TestAppendEventKeepsPrefix(t *testing.T) {
	b := AppendEvent([]byte("data:first\n\n"), &Event{Data: []byte("second")})
	assert.Equal(t, "data:first\n\ndata:second\n\n", string(b))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("写入失败")
}

func TestEncode(t *testing.T) {
	var w bytes.Buffer
	assert.Nil(t, Encode(&w, &Event{Event: "chat", Data: []byte("hi")}))
	assert.Nil(t, Encode(&w, &Event{ID: "2", Data: []byte("bye")}))
	assert.Equal(t, "event:chat\ndata:hi\n\nid:2\ndata:bye\n\n", w.String())

	assert.NotNil(t, Encode(failingWriter{}, &Event{}))
}

func BenchmarkAppendEvent(b *testing.B) {
	e := &Event{
		Event: "new_message",
		ID:    "13435",
		Retry: 10,
		Data:  []byte("hi! how are you?\nI am fine."),
	}
	buf := make([]byte, 0, 256)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf = AppendEvent(buf[:0], e)
	}
}
