package feishu

import "encoding/json"

// envelope 开放平台统一响应结构
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// appAccessTokenRequest 自建应用获取 app_access_token
type appAccessTokenRequest struct {
	AppID     string `json:"app_id"`
	AppSecret string `json:"app_secret"`
}

// appAccessTokenResponse 该接口不使用 data 包裹
type appAccessTokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	AppAccessToken    string `json:"app_access_token"`
	Expire            int    `json:"expire"` // 秒
	TenantAccessToken string `json:"tenant_access_token"`
}

// listFilesData 云空间文件夹清单
type listFilesData struct {
	Files         []driveFile `json:"files"`
	HasMore       bool        `json:"has_more"`
	NextPageToken string      `json:"next_page_token"`
}

type driveFile struct {
	Token        string `json:"token"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	URL          string `json:"url"`
	ParentToken  string `json:"parent_token"`
	CreatedTime  string `json:"created_time"`
	ModifiedTime string `json:"modified_time"`
}

// rawContentData 文档纯文本内容
type rawContentData struct {
	Content string `json:"content"`
}
