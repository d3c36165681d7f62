package feishu

import (
	"fmt"

	"github.com/wupeiyao/larkchat/internal/domain/doc"
)

// 访问凭证失效相关错误码，命中后清空缓存，下一次同步重新换取
var tokenInvalidCodes = map[int]struct{}{
	99991661: {}, // Authorization 缺失或格式错误
	99991663: {}, // access token 无效
	99991668: {}, // access token 过期
}

// UpstreamError 飞书开放平台调用失败
type UpstreamError struct {
	Op     string // 调用的接口，如 list_files
	Status int    // HTTP 状态码，0 表示请求未发出或未收到响应
	Code   int    // 飞书业务错误码
	Msg    string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("feishu %s failed: status=%d code=%d msg=%s: %v", e.Op, e.Status, e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("feishu %s failed: status=%d code=%d msg=%s", e.Op, e.Status, e.Code, e.Msg)
}

// Unwrap 同时匹配 doc.ErrUpstream 与底层错误
func (e *UpstreamError) Unwrap() []error {
	if e.Err != nil {
		return []error{doc.ErrUpstream, e.Err}
	}
	return []error{doc.ErrUpstream}
}

func isTokenInvalid(code int) bool {
	_, ok := tokenInvalidCodes[code]
	return ok
}
