package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	errs "github.com/favbox/spool/common/errors"
	"github.com/favbox/spool/common/mem"
)

// SendFile 是作为正文流式发送的文件。构造时即打开并校验。
type SendFile struct {
	path string
	f    *os.File
	size int64
}

// NewSendFile 打开绝对路径 path 指向的普通文件。
//
// 相对路径、不存在、不可读或是目录时返回 ErrInvalidPath。
func NewSendFile(path string) (*SendFile, error) {
	if !filepath.IsAbs(path) {
		return nil, invalidPath(path, fmt.Errorf("不是绝对路径"))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, invalidPath(path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, invalidPath(path, err)
	}
	if fi.IsDir() {
		f.Close()
		return nil, invalidPath(path, fmt.Errorf("是目录"))
	}

	advise(f, fi.Size())
	return &SendFile{path: path, f: f, size: fi.Size()}, nil
}

func invalidPath(path string, cause error) error {
	return errs.New(fmt.Errorf("%w %q: %v", errs.ErrInvalidPath, path, cause), errs.ErrorTypeInput, path)
}

func (s *SendFile) Kind() Kind { return KindSendFile }

func (s *SendFile) item() {}

// Size 返回构造时的文件大小。
func (s *SendFile) Size() int64 {
	return s.size
}

func (s *SendFile) Path() string {
	return s.path
}

// File 返回已打开的文件，释放后为 nil。
func (s *SendFile) File() *os.File {
	return s.f
}

// Reader 返回从 offset 开始读取剩余内容的读取器。
func (s *SendFile) Reader(offset int64) io.Reader {
	return io.NewSectionReader(s.f, offset, s.size-offset)
}

// Release 关闭文件。
func (s *SendFile) Release(mem.Allocator) {
	if s.f != nil {
		s.f.Close()
		s.f = nil
	}
}
