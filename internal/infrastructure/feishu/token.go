package feishu

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jellydator/ttlcache/v3"
	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
	"github.com/wupeiyao/larkchat/internal/infrastructure/log"
	"golang.org/x/sync/singleflight"
)

const appAccessTokenPath = "/open-apis/auth/v3/app_access_token/internal"

// expireMargin 提前过期，避免使用临界失效的凭证
const expireMargin = time.Minute

// TokenProvider app_access_token 缓存
// 缓存未命中时换取新凭证，并发未命中合并为一次请求
type TokenProvider struct {
	http      *resty.Client
	appID     string
	appSecret string
	ttl       time.Duration
	cache     *ttlcache.Cache[string, string]
	group     singleflight.Group
	logger    *slog.Logger
}

// NewTokenProvider 创建凭证缓存
func NewTokenProvider(cfg *config.FeishuConfig, httpClient *resty.Client) *TokenProvider {
	capacity := cfg.TokenCacheCapacity
	if capacity == 0 {
		capacity = 1000
	}

	cache := ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](cfg.TokenTTL),
		ttlcache.WithCapacity[string, string](capacity),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)

	return &TokenProvider{
		http:      httpClient,
		appID:     cfg.AppID,
		appSecret: cfg.AppSecret,
		ttl:       cfg.TokenTTL,
		cache:     cache,
		logger:    log.NewModuleLogger("feishu", "token"),
	}
}

// Token 获取可用的 app_access_token
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	if item := p.cache.Get(p.appID); item != nil {
		return item.Value(), nil
	}

	v, err, _ := p.group.Do(p.appID, func() (any, error) {
		// 等待期间可能已被其他调用方刷新
		if item := p.cache.Get(p.appID); item != nil {
			return item.Value(), nil
		}

		token, expire, err := p.fetch(ctx)
		if err != nil {
			return "", err
		}

		ttl := p.effectiveTTL(expire)
		p.cache.Set(p.appID, token, ttl)
		p.logger.Debug("App access token refreshed", "ttl", ttl)
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate 丢弃缓存的凭证
func (p *TokenProvider) Invalidate() {
	p.cache.Delete(p.appID)
}

// effectiveTTL 取配置 TTL 与服务端有效期（减去余量）的较小值
func (p *TokenProvider) effectiveTTL(expire int) time.Duration {
	ttl := p.ttl
	if expire > 0 {
		server := time.Duration(expire)*time.Second - expireMargin
		if server > 0 && (ttl <= 0 || server < ttl) {
			ttl = server
		}
	}
	if ttl <= 0 {
		ttl = expireMargin
	}
	return ttl
}

// fetch 调用开放平台换取凭证
func (p *TokenProvider) fetch(ctx context.Context) (string, int, error) {
	const op = "app_access_token"

	resp, err := p.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json; charset=utf-8").
		SetBody(appAccessTokenRequest{AppID: p.appID, AppSecret: p.appSecret}).
		Post(appAccessTokenPath)
	if err != nil {
		return "", 0, &UpstreamError{Op: op, Err: err}
	}

	var out appAccessTokenResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", 0, &UpstreamError{Op: op, Status: resp.StatusCode(), Msg: "malformed response body", Err: err}
	}
	if resp.IsError() || out.Code != 0 {
		return "", 0, &UpstreamError{Op: op, Status: resp.StatusCode(), Code: out.Code, Msg: out.Msg}
	}
	if out.AppAccessToken == "" {
		return "", 0, &UpstreamError{Op: op, Status: resp.StatusCode(), Msg: "empty app_access_token"}
	}

	return out.AppAccessToken, out.Expire, nil
}
