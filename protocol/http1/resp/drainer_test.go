package resp

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	errs "github.com/favbox/spool/common/errors"
	"github.com/favbox/spool/common/hlog"
	"github.com/favbox/spool/common/mem"
	"github.com/favbox/spool/common/mock"
	"github.com/favbox/spool/protocol/output"
	"github.com/stretchr/testify/assert"
)

type recordingAllocator struct {
	mem.Heap
	released []string
}

func (a *recordingAllocator) Release(b []byte) {
	a.released = append(a.released, string(b))
}

func newBuffer(t *testing.T, entries ...output.Entry) *output.BodyBuffer {
	b := output.NewBodyBuffer(len(entries), 2, 64)
	for _, e := range entries {
		assert.Nil(t, b.Append(e.Data, e.Owned))
	}
	return b
}

func newFile(t *testing.T, content string) *output.SendFile {
	path := filepath.Join(t.TempDir(), "f.txt")
	assert.Nil(t, os.WriteFile(path, []byte(content), 0o644))
	sf, err := output.NewSendFile(path)
	assert.Nil(t, err)
	return sf
}

func TestDrainInOrder(t *testing.T) {
	alloc := &recordingAllocator{}
	q := output.NewQueue()
	assert.Nil(t, q.Append(newBuffer(t,
		output.Entry{Data: []byte("Hello, ")},
		output.Entry{Data: []byte("world"), Owned: true},
	)))
	sf := newFile(t, " from file ")
	assert.Nil(t, q.Append(sf))
	assert.Nil(t, q.Append(newBuffer(t, output.Entry{Data: []byte("!")})))

	conn := mock.NewConn("")
	d := NewDrainer(conn, alloc, 0)
	d.Reset(q, q.Size())

	status, err := d.Drain()
	assert.Nil(t, err)
	assert.Equal(t, output.FlushDone, status)
	assert.Equal(t, "Hello, world from file !", conn.Flushed())
	assert.Equal(t, int64(24), d.Written())
	assert.False(t, d.Overrun())

	// 只归还自有条目，文件写完即关闭
	assert.Equal(t, []string{"world"}, alloc.released)
	assert.Nil(t, sf.File())

	// 完成后再调用不会重复写出
	status, err = d.Drain()
	assert.Nil(t, err)
	assert.Equal(t, output.FlushDone, status)
	assert.Equal(t, "Hello, world from file !", conn.Flushed())
}

func TestDrainQuantum(t *testing.T) {
	q := output.NewQueue()
	assert.Nil(t, q.Append(newBuffer(t,
		output.Entry{Data: []byte("aaaa")},
		output.Entry{Data: []byte("bbbb")},
	)))
	assert.Nil(t, q.Append(newFile(t, "0123456789")))

	conn := mock.NewConn("")
	d := NewDrainer(conn, mem.Heap{}, 4)
	d.Reset(q, q.Size())

	var rounds []string
	for {
		status, err := d.Drain()
		assert.Nil(t, err)
		rounds = append(rounds, conn.Flushed())
		if status == output.FlushDone {
			break
		}
	}
	assert.Equal(t, []string{
		"aaaa",
		"aaaabbbb",
		"aaaabbbb0123",
		"aaaabbbb01234567",
		"aaaabbbb0123456789",
	}, rounds)
}

func TestDrainChunked(t *testing.T) {
	q := output.NewQueue()
	assert.Nil(t, q.Append(newBuffer(t,
		output.Entry{Data: []byte("AB")},
		output.Entry{Data: []byte("C")},
	)))
	assert.Nil(t, q.Append(newFile(t, "file")))

	conn := mock.NewConn("")
	d := NewDrainer(conn, mem.Heap{}, 0)
	d.Reset(q, -1)

	status, err := d.Drain()
	assert.Nil(t, err)
	assert.Equal(t, output.FlushDone, status)
	assert.Equal(t, "2\r\nAB\r\n1\r\nC\r\n4\r\nfile\r\n0\r\n\r\n", conn.Flushed())
	assert.Equal(t, int64(7), d.Written())
}

func TestDrainWarnsWhenOverAnnounced(t *testing.T) {
	var buf bytes.Buffer
	hlog.SetOutput(&buf)
	defer hlog.SetOutput(os.Stderr)

	q := output.NewQueue()
	assert.Nil(t, q.Append(newBuffer(t,
		output.Entry{Data: []byte("A")},
		output.Entry{Data: []byte("B")},
		output.Entry{Data: []byte("C")},
	)))

	conn := mock.NewConn("")
	d := NewDrainer(conn, mem.Heap{}, 0)
	d.Reset(q, 2)

	status, err := d.Drain()
	assert.Nil(t, err)
	assert.Equal(t, output.FlushDone, status)
	assert.Equal(t, "ABC", conn.Flushed())
	assert.True(t, d.Overrun())
	assert.Equal(t, 1, strings.Count(buf.String(), "正文已超过响应头声明的长度"))

	// 重新绑定后清除
	d.Reset(output.NewQueue(), 0)
	assert.False(t, d.Overrun())
}

func TestDrainBrokenConn(t *testing.T) {
	alloc := &recordingAllocator{}
	q := output.NewQueue()
	assert.Nil(t, q.Append(newBuffer(t, output.Entry{Data: []byte("owned"), Owned: true})))

	d := NewDrainer(mock.NewBrokenConn(""), alloc, 0)
	d.Reset(q, q.Size())

	status, err := d.Drain()
	assert.Equal(t, output.FlushDone, status)
	assert.True(t, errors.Is(err, errs.ErrConnectionClosed))
	assert.Equal(t, errs.ErrorTypeTransport, errs.TypeOf(err))
	// 写出失败的自有条目留给队列释放
	assert.Empty(t, alloc.released)

	q.Release(alloc)
	assert.Equal(t, []string{"owned"}, alloc.released)
}
