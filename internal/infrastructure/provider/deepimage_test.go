package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dtf-editor-api/internal/config"
	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/domain/service"
)

func newDeepImageTestClient(serverURL string) *DeepImageClient {
	return NewDeepImageClient(config.ProviderConfig{
		BaseURL: serverURL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
}

func TestDeepImageInvokeSyncComplete(t *testing.T) {
	var gotBody map[string]interface{}
	var gotAPIKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/process_result" {
			t.Errorf("path = %q, want /process_result", r.URL.Path)
		}
		gotAPIKey = r.Header.Get("x-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":     "complete",
			"result_url": "https://deep-image.ai/results/abc.png",
			"width":      2000,
			"height":     4000,
		})
	}))
	defer server.Close()

	client := newDeepImageTestClient(server.URL)
	inv, err := client.Invoke(context.Background(), &service.ProviderRequest{
		Operation: entity.OperationUpscale,
		ImageURL:  "https://example.com/in.png",
		Options:   map[string]string{"scale": "2"},
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	if gotAPIKey != "test-key" {
		t.Errorf("x-api-key = %q, want test-key", gotAPIKey)
	}
	if gotBody["url"] != "https://example.com/in.png" {
		t.Errorf("request url = %v", gotBody["url"])
	}
	// 倍率放大使用百分比语法
	if gotBody["width"] != "200%" || gotBody["height"] != "200%" {
		t.Errorf("request dimensions = %v x %v, want 200%% x 200%%", gotBody["width"], gotBody["height"])
	}

	if inv.Result == nil {
		t.Fatal("expected sync result")
	}
	if inv.Result.URL != "https://deep-image.ai/results/abc.png" {
		t.Errorf("URL = %q", inv.Result.URL)
	}
	if inv.Result.Width != 2000 || inv.Result.Height != 4000 {
		t.Errorf("dimensions = %dx%d, want 2000x4000", inv.Result.Width, inv.Result.Height)
	}
}

func TestDeepImageInvokeUsesAbsoluteTargetSize(t *testing.T) {
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":     "complete",
			"result_url": "https://deep-image.ai/results/abc.png",
		})
	}))
	defer server.Close()

	client := newDeepImageTestClient(server.URL)
	_, err := client.Invoke(context.Background(), &service.ProviderRequest{
		Operation:    entity.OperationUpscale,
		ImageURL:     "https://example.com/in.png",
		TargetWidth:  1200,
		TargetHeight: 2400,
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	// JSON 数字解码为 float64
	if gotBody["width"] != float64(1200) || gotBody["height"] != float64(2400) {
		t.Errorf("request dimensions = %v x %v, want 1200 x 2400", gotBody["width"], gotBody["height"])
	}
}

func TestDeepImageInvokeDeferred(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "received",
			"job":      "hash-123",
			"progress": 10,
		})
	}))
	defer server.Close()

	client := newDeepImageTestClient(server.URL)
	inv, err := client.Invoke(context.Background(), &service.ProviderRequest{
		Operation: entity.OperationUpscale,
		ImageURL:  "https://example.com/big.png",
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	if inv.Deferred == nil {
		t.Fatal("expected deferred handle")
	}
	if inv.Deferred.RemoteID != "hash-123" {
		t.Errorf("RemoteID = %q, want hash-123", inv.Deferred.RemoteID)
	}
	if inv.Deferred.Progress != 10 {
		t.Errorf("Progress = %d, want 10", inv.Deferred.Progress)
	}
}

func TestDeepImagePollComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/result/hash-123" {
			t.Errorf("path = %q, want /result/hash-123", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":     "complete",
			"result_url": "https://deep-image.ai/results/done.png",
		})
	}))
	defer server.Close()

	client := newDeepImageTestClient(server.URL)
	inv, err := client.Poll(context.Background(), &service.DeferredHandle{RemoteID: "hash-123"})
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if inv.Result == nil || inv.Result.URL != "https://deep-image.ai/results/done.png" {
		t.Errorf("Result = %+v, want completed URL", inv.Result)
	}
}

func TestDeepImageServerErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newDeepImageTestClient(server.URL)
	_, err := client.Invoke(context.Background(), &service.ProviderRequest{
		Operation: entity.OperationUpscale,
		ImageURL:  "https://example.com/in.png",
	})
	if err == nil {
		t.Fatal("Invoke() expected error")
	}

	var provErr *service.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("error type = %T, want *service.ProviderError", err)
	}
	if !provErr.Retryable {
		t.Error("5xx must be retryable")
	}
}

func TestDeepImageClientErrorNotRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid image url"})
	}))
	defer server.Close()

	client := newDeepImageTestClient(server.URL)
	_, err := client.Invoke(context.Background(), &service.ProviderRequest{
		Operation: entity.OperationUpscale,
		ImageURL:  "not-a-url",
	})
	if err == nil {
		t.Fatal("Invoke() expected error")
	}

	var provErr *service.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("error type = %T, want *service.ProviderError", err)
	}
	if provErr.Retryable {
		t.Error("4xx must not be retryable")
	}
}

func TestDeepImageRemoteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "failed",
			"message": "image too small",
		})
	}))
	defer server.Close()

	client := newDeepImageTestClient(server.URL)
	_, err := client.Invoke(context.Background(), &service.ProviderRequest{
		Operation: entity.OperationUpscale,
		ImageURL:  "https://example.com/tiny.png",
	})
	if err == nil {
		t.Fatal("Invoke() expected error for failed status")
	}

	var provErr *service.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("error type = %T, want *service.ProviderError", err)
	}
	if provErr.Retryable {
		t.Error("remote processing failure must not be retryable")
	}
}
