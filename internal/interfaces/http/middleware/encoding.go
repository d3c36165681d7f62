package middleware

import (
	"bytes"
	"io"
	"net/url"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// EnsureUTF8 将 GBK 编码的请求体和查询参数转换为 UTF-8
// Windows 中文环境下的 curl 默认以 GBK 发送中文
func EnsureUTF8() gin.HandlerFunc {
	return func(c *gin.Context) {
		normalizeQuery(c.Request.URL)
		normalizeBody(c)
		c.Next()
	}
}

// normalizeQuery 只有存在非 UTF-8 值时才重写 RawQuery
func normalizeQuery(u *url.URL) {
	if u.RawQuery == "" {
		return
	}
	values, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return
	}

	changed := false
	for key, vs := range values {
		for i, v := range vs {
			if utf8.ValidString(v) {
				continue
			}
			if converted, ok := gbkToUTF8([]byte(v)); ok {
				vs[i] = string(converted)
				changed = true
			}
		}
		values[key] = vs
	}
	if changed {
		u.RawQuery = values.Encode()
	}
}

func normalizeBody(c *gin.Context) {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	c.Request.Body.Close()
	if err != nil {
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		return
	}

	if !utf8.Valid(body) {
		if converted, ok := gbkToUTF8(body); ok {
			body = converted
			c.Request.ContentLength = int64(len(body))
		}
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
}

// gbkToUTF8 转换失败或结果仍非 UTF-8 时返回 false
func gbkToUTF8(b []byte) ([]byte, bool) {
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(b), simplifiedchinese.GBK.NewDecoder()))
	if err != nil || !utf8.Valid(out) {
		return nil, false
	}
	return out, true
}
