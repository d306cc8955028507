package utils

import (
	"io"

	"github.com/favbox/spool/network"
)

// CopyZeroAlloc 借用池化缓冲区将 r 拷贝至 w。
func CopyZeroAlloc(w network.Writer, r io.Reader) (int64, error) {
	vBuf := CopyBufPool.Get()
	buf := vBuf.([]byte)
	n, err := CopyBuffer(w, r, buf)
	CopyBufPool.Put(vBuf)
	return n, err
}

// CopyBuffer 向 dst 写入 src。具体行为依据 dst 和 src 的类型而定。
func CopyBuffer(dst network.Writer, src io.Reader, buf []byte) (written int64, err error) {
	if buf != nil && len(buf) == 0 {
		panic("CopyBuffer 中的 buf 缓冲区为空")
	}
	return copyBuffer(dst, src, buf)
}

func copyBuffer(dst network.Writer, src io.Reader, buf []byte) (written int64, err error) {
	if wt, ok := src.(io.WriterTo); ok {
		if w, ok := dst.(io.Writer); ok {
			return wt.WriteTo(w)
		}
	}

	// sendfile 快路径
	if rf, ok := dst.(io.ReaderFrom); ok {
		return rf.ReadFrom(src)
	}

	if buf == nil {
		buf = make([]byte, bufSize(src))
	}
	err = ForEachChunk(src, buf, func(p []byte) error {
		nw, ew := dst.WriteBinary(p)
		if nw > 0 {
			written += int64(nw)
		}
		if ew != nil {
			return ew
		}
		if nw != len(p) {
			return io.ErrShortWrite
		}
		// buf 会被复用，写入的切片必须在下次读取前刷出
		return dst.Flush()
	})
	return
}

// ForEachChunk 用 buf 循环读取 src，对每次读到的数据调用 fn，直到 EOF。
//
// 传给 fn 的切片只在本次调用内有效。
func ForEachChunk(src io.Reader, buf []byte, fn func(p []byte) error) error {
	for {
		nr, er := src.Read(buf)
		if nr > 0 {
			if err := fn(buf[:nr]); err != nil {
				return err
			}
		}
		if er != nil {
			if er != io.EOF {
				return er
			}
			return nil
		}
	}
}

func bufSize(src io.Reader) int {
	size := 32 * 1024
	if l, ok := src.(*io.LimitedReader); ok && int64(size) > l.N {
		if l.N < 1 {
			return 1
		}
		return int(l.N)
	}
	return size
}
