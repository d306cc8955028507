package output

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	errs "github.com/favbox/spool/common/errors"
	"github.com/favbox/spool/common/mem"
	"github.com/stretchr/testify/assert"
)

func TestQueueOrderAndSize(t *testing.T) {
	q := NewQueue()
	assert.Nil(t, q.Last())
	assert.Equal(t, int64(0), q.Size())

	b1 := NewBodyBuffer(2, 2, 8)
	assert.Nil(t, b1.Append([]byte("hello"), false))
	assert.Nil(t, q.Append(b1))

	f := writeTemp(t, "0123456789")
	sf, err := NewSendFile(f)
	assert.Nil(t, err)
	assert.Nil(t, q.Append(sf))

	b2 := NewBodyBuffer(2, 2, 8)
	assert.Nil(t, b2.Append([]byte("!"), false))
	assert.Nil(t, q.Append(b2))

	assert.Equal(t, 3, q.Len())
	assert.Equal(t, Item(b2), q.Last())
	assert.Equal(t, []Kind{KindBodyBuffer, KindSendFile, KindBodyBuffer},
		[]Kind{q.Items()[0].Kind(), q.Items()[1].Kind(), q.Items()[2].Kind()})
	assert.Equal(t, int64(16), q.Size())

	// 缓冲区在入队后继续追加，大小随之变化
	assert.Nil(t, b2.Append([]byte("?"), false))
	assert.Equal(t, int64(17), q.Size())

	q.Release(mem.Heap{})
	assert.Nil(t, sf.File())
}

func TestQueueSealed(t *testing.T) {
	q := NewQueue()
	q.Seal()
	assert.True(t, q.Sealed())

	err := q.Append(NewBodyBuffer(1, 2, 1))
	assert.True(t, errors.Is(err, errs.ErrQueueSealed))
	assert.Equal(t, errs.ErrorTypeMisuse, errs.TypeOf(err))
	assert.Equal(t, 0, q.Len())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "body_buffer", KindBodyBuffer.String())
	assert.Equal(t, "sendfile", KindSendFile.String())
	assert.Equal(t, "unknown", Kind(0).String())
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "body.txt")
	assert.Nil(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFlushStatusString(t *testing.T) {
	assert.Equal(t, "done", FlushDone.String())
	assert.Equal(t, "pending", FlushPending.String())
	assert.Equal(t, "unknown", FlushStatus(0).String())
}
