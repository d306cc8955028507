package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestPeek(t *testing.T) {
	r := &Request{
		Method: "GET",
		URI:    "/hello?name=spool",
		Proto:  "HTTP/1.1",
		Header: []byte("Host: example.com\r\ncontent-length: 12\r\nX-Empty:\r\n"),
	}

	assert.Equal(t, "/hello", r.Path())
	assert.Equal(t, "example.com", r.Get("host"))
	assert.Equal(t, 12, r.ContentLength())
	assert.Equal(t, "", r.Get("X-Empty"))
	assert.Nil(t, r.Peek("X-Missing"))
	assert.True(t, r.KeepAlive())

	r.Reset()
	assert.Equal(t, "", r.Method)
	assert.Equal(t, 0, r.ContentLength())
}

func TestRequestKeepAlive(t *testing.T) {
	r := &Request{Proto: "HTTP/1.1", Header: []byte("Connection: Close\r\n")}
	assert.False(t, r.KeepAlive())

	r = &Request{Proto: "HTTP/1.0"}
	assert.False(t, r.KeepAlive())

	r = &Request{Proto: "HTTP/1.0", Header: []byte("Connection: keep-alive\r\n")}
	assert.True(t, r.KeepAlive())

	r = &Request{Proto: "HTTP/1.1", Header: []byte("Content-Length: abc\r\n")}
	assert.Equal(t, 0, r.ContentLength())
}
