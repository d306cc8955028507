package output

import (
	"os"

	"golang.org/x/sys/unix"
)

// advise 提示内核按顺序预读，失败不影响发送。
func advise(f *os.File, size int64) {
	_ = unix.Fadvise(int(f.Fd()), 0, size, unix.FADV_SEQUENTIAL)
}
