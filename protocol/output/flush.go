package output

// FlushStatus 是一轮刷新的结果。
type FlushStatus uint8

const (
	// FlushDone 表示队列已全部写出（或写出失败），响应可以结束。
	FlushDone FlushStatus = iota + 1
	// FlushPending 表示刷新尚未完成，完成时由刷新方通知响应。
	FlushPending
)

func (s FlushStatus) String() string {
	switch s {
	case FlushDone:
		return "done"
	case FlushPending:
		return "pending"
	}
	return "unknown"
}
