// Package singleton 通过独占 HTTP 端口保证单实例运行
package singleton

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// HealthPath 健康检查路径
	HealthPath = "/health"
	// ServiceName /health 响应中的服务名
	ServiceName = "larkchat"
	// HealthCheckTimeout 健康检查超时时间
	HealthCheckTimeout = 2 * time.Second
)

// ErrAlreadyRunning 已有健康实例占用端口
var ErrAlreadyRunning = errors.New("another larkchat instance is already running")

// healthResponse /health 响应体
type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// CheckAndLock 监听 addr 作为单实例锁
// 端口被健康的 larkchat 实例占用时返回 ErrAlreadyRunning；被其他进程占用时返回普通错误
func CheckAndLock(addr string) (net.Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err == nil {
		return listener, nil
	}

	if !isAddrInUse(err) {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if isInstanceRunning(addr) {
		return nil, ErrAlreadyRunning
	}
	return nil, fmt.Errorf("port %s is in use but health check failed: %w", addr, err)
}

// isAddrInUse 检查错误是否是地址已在使用
// Windows 的 WSAEADDRINUSE 为 10048
func isAddrInUse(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == 10048
}

// healthURL 监听地址 -> 本机健康检查地址
func healthURL(addr string) (string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", err
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + HealthPath, nil
}

// isInstanceRunning 端口上是否是健康的 larkchat 实例
func isInstanceRunning(addr string) bool {
	url, err := healthURL(addr)
	if err != nil {
		return false
	}

	var body healthResponse
	resp, err := resty.New().
		SetTimeout(HealthCheckTimeout).
		R().
		SetResult(&body).
		Get(url)
	if err != nil || resp.StatusCode() != 200 {
		return false
	}
	return body.Service == ServiceName
}
