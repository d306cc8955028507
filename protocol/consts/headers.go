package consts

// 响应组装用到的标头名称。
const (
	HeaderContentType      = "Content-Type"
	HeaderContentLength    = "Content-Length"
	HeaderTransferEncoding = "Transfer-Encoding"
	HeaderConnection       = "Connection"
	HeaderServer           = "Server"
	HeaderDate             = "Date"
)

// 常用的 MIME 类型。
const (
	MIMETextPlainUTF8          = "text/plain; charset=utf-8"
	MIMETextHTMLUTF8           = "text/html; charset=utf-8"
	MIMEApplicationJSONUTF8    = "application/json; charset=utf-8"
	MIMEApplicationProtobuf    = "application/x-protobuf"
	MIMEApplicationOctetStream = "application/octet-stream"
)

// ContentTypeLine 返回可直接用于 AddHeader 的 Content-Type 标头行。
func ContentTypeLine(mime string) []byte {
	return []byte(HeaderContentType + ": " + mime)
}
