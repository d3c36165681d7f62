package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
)

func newDocRouter(svc DocService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewDocHandler(svc)
	router := gin.New()
	router.GET("/api/v1/doc/list", h.List)
	router.POST("/api/v1/doc/load", h.Load)
	router.GET("/api/v1/doc/load", h.Load)
	router.GET("/api/v1/doc/search", h.Search)
	return router
}

func TestDocHandler_List(t *testing.T) {
	svc := new(MockDocService)
	svc.On("List", mock.Anything).Return([]doc.DocView{
		{DocID: "A", Name: "入职指南", URL: "https://x/a"},
	}, nil)

	w := httptest.NewRecorder()
	newDocRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/doc/list", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, 0, int(body["code"].(float64)))
	data := body["data"].([]interface{})
	assert.Len(t, data, 1)
	assert.Equal(t, "入职指南", data[0].(map[string]interface{})["name"])
	assert.Equal(t, "A", data[0].(map[string]interface{})["docId"])
}

func TestDocHandler_Load(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		err            error
		expectedStatus int
		expectedCode   int
	}{
		{name: "POST 成功", method: http.MethodPost, expectedStatus: http.StatusOK, expectedCode: 0},
		{name: "GET 成功", method: http.MethodGet, expectedStatus: http.StatusOK, expectedCode: 0},
		{name: "飞书失败", method: http.MethodPost, err: fmt.Errorf("failed to list remote docs: %w", doc.ErrUpstream), expectedStatus: http.StatusBadGateway, expectedCode: 50200},
		{name: "同步进行中", method: http.MethodPost, err: doc.ErrSyncInProgress, expectedStatus: http.StatusConflict, expectedCode: 40900},
		{name: "其他错误", method: http.MethodPost, err: errors.New("disk full"), expectedStatus: http.StatusInternalServerError, expectedCode: 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDocService)
			if tt.err != nil {
				svc.On("Load", mock.Anything, doc.TriggerManual).Return(nil, tt.err)
			} else {
				svc.On("Load", mock.Anything, doc.TriggerManual).Return(&doc.SyncReport{
					Trigger: doc.TriggerManual, Added: []string{"A"}, Updated: []string{}, Removed: []string{},
				}, nil)
			}

			w := httptest.NewRecorder()
			newDocRouter(svc).ServeHTTP(w, httptest.NewRequest(tt.method, "/api/v1/doc/load", nil))

			assert.Equal(t, tt.expectedStatus, w.Code, "HTTP 状态码应该正确")
			body := decodeBody(t, w)
			assert.Equal(t, tt.expectedCode, int(body["code"].(float64)))
			if tt.err == nil {
				data := body["data"].(map[string]interface{})
				assert.Equal(t, []interface{}{"A"}, data["added"])
			} else {
				assert.Contains(t, body["detail"], tt.err.Error())
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDocHandler_Search(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		wantLimit      int
		expectedStatus int
	}{
		{name: "默认条数", query: "?query=" + url.QueryEscape("年假"), wantLimit: 0, expectedStatus: http.StatusOK},
		{name: "指定条数", query: "?query=" + url.QueryEscape("年假") + "&limit=3", wantLimit: 3, expectedStatus: http.StatusOK},
		{name: "非法条数", query: "?query=" + url.QueryEscape("年假") + "&limit=abc", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDocService)
			svc.On("Search", mock.Anything, "年假", tt.wantLimit).Return([]doc.SearchHit{
				{DocID: "A", Name: "假期制度", Score: 0.9},
			}, nil)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/doc/search"+tt.query, nil)
			newDocRouter(svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decodeBody(t, w)
			if tt.expectedStatus == http.StatusOK {
				assert.Len(t, body["data"], 1)
				svc.AssertExpectations(t)
			} else {
				assert.Equal(t, 40000, int(body["code"].(float64)))
				svc.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}
