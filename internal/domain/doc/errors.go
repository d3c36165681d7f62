package doc

import "errors"

var (
	// ErrUpstream 远端调用失败（非成功状态码或响应格式错误）
	ErrUpstream = errors.New("upstream call failed")
	// ErrSyncInProgress 已有同步在执行
	ErrSyncInProgress = errors.New("document sync already in progress")
)
