//go:build !linux

package output

import "os"

func advise(*os.File, int64) {}
