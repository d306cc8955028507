package output

import (
	"errors"
	"io"
	"testing"

	errs "github.com/favbox/spool/common/errors"
	"github.com/stretchr/testify/assert"
)

func TestNewSendFile(t *testing.T) {
	path := writeTemp(t, "0123456789")
	sf, err := NewSendFile(path)
	assert.Nil(t, err)
	assert.Equal(t, KindSendFile, sf.Kind())
	assert.Equal(t, int64(10), sf.Size())
	assert.Equal(t, path, sf.Path())

	p, err := io.ReadAll(sf.Reader(4))
	assert.Nil(t, err)
	assert.Equal(t, "456789", string(p))

	sf.Release(nil)
	assert.Nil(t, sf.File())
	sf.Release(nil)
}

func TestNewSendFileInvalid(t *testing.T) {
	dir := t.TempDir()
	for _, path := range []string{
		"relative/file.txt",
		dir + "/missing.txt",
		dir,
	} {
		sf, err := NewSendFile(path)
		assert.Nil(t, sf)
		assert.True(t, errors.Is(err, errs.ErrInvalidPath), path)
		assert.Equal(t, errs.ErrorTypeInput, errs.TypeOf(err))
	}
}
