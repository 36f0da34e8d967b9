package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"dtf-editor-api/internal/interfaces/http/dto"
)

func newDPITestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/dpi/check", NewDPIHandler().Check)
	return r
}

func TestDPICheck(t *testing.T) {
	router := newDPITestRouter()

	tests := []struct {
		name        string
		body        map[string]interface{}
		wantAvg     float64
		wantQuality string
	}{
		{
			name: "excellent print density",
			body: map[string]interface{}{
				"source_width":           3000,
				"source_height":          2400,
				"target_physical_width":  10,
				"target_physical_height": 8,
			},
			wantAvg:     300,
			wantQuality: "excellent",
		},
		{
			name: "poor print density",
			body: map[string]interface{}{
				"source_width":           1000,
				"source_height":          1000,
				"target_physical_width":  20,
				"target_physical_height": 20,
			},
			wantAvg:     50,
			wantQuality: "poor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/v1/dpi/check", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
			}

			var resp dto.Response[dto.DPICheckResponse]
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal response: %v", err)
			}
			if resp.Data.AverageDPI != tt.wantAvg {
				t.Errorf("AverageDPI = %v, want %v", resp.Data.AverageDPI, tt.wantAvg)
			}
			if resp.Data.Quality != tt.wantQuality {
				t.Errorf("Quality = %q, want %q", resp.Data.Quality, tt.wantQuality)
			}
		})
	}
}

func TestDPICheckRejectsInvalidInput(t *testing.T) {
	router := newDPITestRouter()

	bodies := []map[string]interface{}{
		{}, // 缺少全部字段
		{
			"source_width":           0,
			"source_height":          1000,
			"target_physical_width":  10,
			"target_physical_height": 8,
		},
		{
			"source_width":           1000,
			"source_height":          1000,
			"target_physical_width":  -5,
			"target_physical_height": 8,
		},
	}

	for _, body := range bodies {
		payload, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/v1/dpi/check", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400 for body %v", rec.Code, body)
		}
	}
}
