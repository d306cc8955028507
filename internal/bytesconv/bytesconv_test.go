package bytesconv

import (
	"strconv"
	"testing"

	"github.com/favbox/spool/common/mock"
	"github.com/stretchr/testify/assert"
)

func TestB2s(t *testing.T) {
	t.Parallel()

	for _, v := range []struct {
		s string
		b []byte
	}{
		{"spool-http", []byte("spool-http")},
		{"spool", []byte("spool")},
		{"", []byte{}},
	} {
		assert.Equal(t, v.s, B2s(v.b))
		assert.Equal(t, v.b, S2b(v.s))
	}
}

func TestAppendUint(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 9, 10, 128, 65535, 1<<31 - 1} {
		assert.Equal(t, strconv.Itoa(n), string(AppendUint(nil, n)))
	}
	assert.Equal(t, "len=42", string(AppendUint([]byte("len="), 42)))
	assert.Panics(t, func() { AppendUint(nil, -1) })
}

func TestParseUint(t *testing.T) {
	t.Parallel()

	v, err := ParseUint([]byte("1024"))
	assert.Nil(t, err)
	assert.Equal(t, 1024, v)

	_, err = ParseUint([]byte(""))
	assert.NotNil(t, err)

	_, err = ParseUint([]byte("12a"))
	assert.NotNil(t, err)

	v, n, err := ParseUintBuf([]byte("200 OK"))
	assert.Nil(t, err)
	assert.Equal(t, 200, v)
	assert.Equal(t, 3, n)
}

func TestWriteHexInt(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 15, 16, 255, 4096, 0x7fffffff} {
		w := mock.NewConn("")
		assert.Nil(t, WriteHexInt(w, n))
		assert.Nil(t, w.Flush())
		assert.Equal(t, strconv.FormatInt(int64(n), 16), w.Flushed())
		assert.Equal(t, strconv.FormatInt(int64(n), 16), string(AppendHexInt(nil, n)))
	}
}
