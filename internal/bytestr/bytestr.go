// Package bytestr 定义响应组装过程中反复使用的字节切片常量。
package bytestr

var (
	DefaultServerName = []byte("spool")

	StrCRLF       = []byte("\r\n")
	StrColonSpace = []byte(": ")
	StrHTTP11     = []byte("HTTP/1.1")

	StrContentLength    = []byte("Content-Length")
	StrTransferEncoding = []byte("Transfer-Encoding")
	StrConnection       = []byte("Connection")

	StrChunked   = []byte("chunked")
	StrClose     = []byte("close")
	StrKeepAlive = []byte("keep-alive")

	// StrLastChunk 是分块传输的结束块（不含挂车）。
	StrLastChunk = []byte("0\r\n\r\n")
)
