package utils

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/favbox/spool/common/mock"
	"github.com/stretchr/testify/assert"
)

func TestIOUtilCopyBuffer(t *testing.T) {
	str := "spool flushes in order"
	src := bytes.NewBufferString(str)
	dst := mock.NewConn("")
	srcLen := int64(src.Len())
	written, err := CopyBuffer(dst, src, nil)

	assert.Equal(t, srcLen, written)
	assert.Nil(t, err)
	assert.Nil(t, dst.Flush())
	assert.Equal(t, str, dst.Flushed())
}

func TestIOUtilCopyZeroAllocLimited(t *testing.T) {
	src := io.LimitReader(strings.NewReader("0123456789"), 4)
	dst := mock.NewConn("")
	written, err := CopyZeroAlloc(dst, src)

	assert.Nil(t, err)
	assert.Equal(t, int64(4), written)
	assert.Nil(t, dst.Flush())
	assert.Equal(t, "0123", dst.Flushed())
}

func TestIOUtilCopyBufferEmptyBufPanics(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = CopyBuffer(mock.NewConn(""), strings.NewReader("x"), []byte{})
	})
}

func TestForEachChunk(t *testing.T) {
	var got []string
	err := ForEachChunk(strings.NewReader("abcdefg"), make([]byte, 3), func(p []byte) error {
		got = append(got, string(p))
		return nil
	})
	assert.Nil(t, err)
	assert.Equal(t, []string{"abc", "def", "g"}, got)

	stop := errors.New("stop")
	err = ForEachChunk(strings.NewReader("abcdefg"), make([]byte, 3), func(p []byte) error {
		return stop
	})
	assert.Equal(t, stop, err)
}

func BenchmarkCopyZeroAlloc(b *testing.B) {
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			str := "spool flushes in order"
			src := bytes.NewBufferString(str)
			dst := mock.NewConn("")
			_, _ = CopyZeroAlloc(dst, src)
		}
	})
}
