package bytesconv

import (
	"math/bits"
	"sync"
	"unsafe"

	"github.com/favbox/spool/network"
)

const lowerHex = "0123456789abcdef" // 小写的十六进制字符

// 十六进制整数的最大字符数
const maxHexIntChars = bits.UintSize / 4

var hexIntBufPool sync.Pool

// B2s 将字节切片转为字符串，且不分配内存。
//
// 注意：调用方需保证转换期间 b 不被修改。
func B2s(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// S2b 将字符串转为字节切片，且不分配内存。返回的切片只读。
func S2b(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// AppendUint 向 dst 追加正整数 n 并返回。
func AppendUint(dst []byte, n int) []byte {
	if n < 0 {
		panic("BUG：int 必须为正整数")
	}

	var b [20]byte
	buf := b[:]
	i := len(buf)
	var q int
	for n >= 10 {
		i--
		q = n / 10
		buf[i] = '0' + byte(n-q*10)
		n = q
	}
	i--
	buf[i] = '0' + byte(n)

	dst = append(dst, buf[i:]...)
	return dst
}

// ParseUintBuf 解析 b 开头的十进制整数，返回值与已消费的字节数。
func ParseUintBuf(b []byte) (v, n int, err error) {
	n = len(b)
	if n == 0 {
		return -1, 0, errEmptyInt
	}
	for i := 0; i < n; i++ {
		c := b[i]
		k := c - '0'
		if k > 9 {
			if i == 0 {
				return -1, i, errUnexpectedFirstChar
			}
			return v, i, nil
		}
		vNew := 10*v + int(k)
		// 测试溢出
		if vNew < v {
			return -1, i, errTooLongInt
		}
		v = vNew
	}
	return
}

// ParseUint 解析 b 中的整数，b 必须全部由数字组成。
func ParseUint(b []byte) (int, error) {
	v, n, err := ParseUintBuf(b)
	if n != len(b) {
		return -1, errUnexpectedTrailingChar
	}
	return v, err
}

// AppendHexInt 向 dst 追加 n 的小写十六进制形式。
func AppendHexInt(dst []byte, n int) []byte {
	if n < 0 {
		panic("BUG: int 必须为正整数")
	}
	var b [maxHexIntChars]byte
	i := len(b) - 1
	for {
		b[i] = lowerHex[n&0xf]
		n >>= 4
		if n == 0 {
			break
		}
		i--
	}
	return append(dst, b[i:]...)
}

// WriteHexInt 向 w 写入十六进制整数值 n。
func WriteHexInt(w network.Writer, n int) error {
	v := hexIntBufPool.Get()
	if v == nil {
		v = make([]byte, 0, maxHexIntChars)
	}
	buf := AppendHexInt(v.([]byte)[:0], n)
	safeBuf, err := w.Malloc(len(buf))
	if err == nil {
		copy(safeBuf, buf)
	}
	hexIntBufPool.Put(buf) //nolint:staticcheck
	return err
}
