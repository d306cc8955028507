package mem

import (
	"errors"
	"testing"

	errs "github.com/favbox/spool/common/errors"
	"github.com/stretchr/testify/assert"
)

func TestDefaultAllocator(t *testing.T) {
	a := Default()

	b, err := a.Allocate(128)
	assert.Nil(t, err)
	assert.Equal(t, 128, len(b))
	copy(b, "hello")

	b, err = a.Grow(b, 256)
	assert.Nil(t, err)
	assert.Equal(t, 256, len(b))
	assert.GreaterOrEqual(t, cap(b), 256)
	assert.Equal(t, "hello", string(b[:5]))

	a.Release(b)
}

func TestHeapGrowKeepsContent(t *testing.T) {
	var a Heap
	b, _ := a.Allocate(4)
	copy(b, "abcd")
	b, err := a.Grow(b, 8)
	assert.Nil(t, err)
	assert.Equal(t, 8, cap(b))
	assert.Equal(t, "abcd", string(b[:4]))

	// 缩小不重新分配
	c, _ := a.Grow(b, 2)
	assert.Equal(t, "ab", string(c))
}

func TestLimitedAllocator(t *testing.T) {
	l := NewLimited(Heap{}, 256)

	b, err := l.Allocate(128)
	assert.Nil(t, err)
	assert.Equal(t, 128, l.Used())

	b, err = l.Grow(b, 256)
	assert.Nil(t, err)
	assert.Equal(t, 256, l.Used())

	_, err = l.Grow(b, 512)
	assert.True(t, errors.Is(err, errs.ErrAllocLimit))
	assert.Equal(t, errs.ErrorTypeResource, errs.TypeOf(err))
	assert.Equal(t, 256, l.Used())

	_, err = l.Allocate(1)
	assert.True(t, errors.Is(err, errs.ErrAllocLimit))

	l.Release(b)
	assert.Equal(t, 0, l.Used())

	_, err = l.Allocate(200)
	assert.Nil(t, err)
}

func TestLimitedUnbounded(t *testing.T) {
	l := NewLimited(nil, 0)
	b, err := l.Allocate(1 << 16)
	assert.Nil(t, err)
	assert.Equal(t, 1<<16, len(b))
	l.Release(b)
	assert.Equal(t, 0, l.Used())
}
