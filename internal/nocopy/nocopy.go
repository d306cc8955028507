// Package nocopy 提供可嵌入的禁止拷贝标记，配合 go vet 的 copylocks 检查使用。
package nocopy

// NoCopy 嵌入结构体后，值拷贝将被 go vet 报告。
type NoCopy struct{}

func (*NoCopy) Lock()   {}
func (*NoCopy) Unlock() {}
