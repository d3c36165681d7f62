package singleton

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthHandler(service string, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != HealthPath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", Service: service})
	})
}

func TestCheckAndLock_PortAvailable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	result, err := CheckAndLock(addr)
	require.NoError(t, err)
	require.NotNil(t, result)
	defer result.Close()
}

func TestCheckAndLock_HealthyInstance(t *testing.T) {
	server := httptest.NewServer(healthHandler(ServiceName, http.StatusOK))
	defer server.Close()

	result, err := CheckAndLock(strings.TrimPrefix(server.URL, "http://"))
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrAlreadyRunning))
}

func TestCheckAndLock_ForeignProcess(t *testing.T) {
	// 端口被占用但没有健康检查
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	result, err := CheckAndLock(listener.Addr().String())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.False(t, errors.Is(err, ErrAlreadyRunning))
	assert.Contains(t, err.Error(), "health check failed")
}

func TestIsAddrInUse(t *testing.T) {
	l1, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l1.Close()

	_, err = net.Listen("tcp", l1.Addr().String())
	assert.True(t, isAddrInUse(err), "应该检测到地址已在使用")

	_, err = net.Listen("tcp", "invalid")
	assert.False(t, isAddrInUse(err), "地址格式错误不是端口占用")

	assert.False(t, isAddrInUse(nil))
}

func TestHealthURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", "http://127.0.0.1:8080/health"},
		{"0.0.0.0:8080", "http://127.0.0.1:8080/health"},
		{"[::]:8080", "http://127.0.0.1:8080/health"},
		{"localhost:9000", "http://localhost:9000/health"},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			got, err := healthURL(tt.addr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := healthURL("no-port")
	assert.Error(t, err)
}

func TestIsInstanceRunning(t *testing.T) {
	t.Run("其他服务", func(t *testing.T) {
		server := httptest.NewServer(healthHandler("someone-else", http.StatusOK))
		defer server.Close()
		assert.False(t, isInstanceRunning(strings.TrimPrefix(server.URL, "http://")))
	})

	t.Run("非200状态码", func(t *testing.T) {
		server := httptest.NewServer(healthHandler(ServiceName, http.StatusInternalServerError))
		defer server.Close()
		assert.False(t, isInstanceRunning(strings.TrimPrefix(server.URL, "http://")))
	})
}
