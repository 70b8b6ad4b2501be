package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "github.com/anime-shed/channel-engine/internal/errors"
)

// gray16PNG encodes a 2x1 16-bit grayscale frame holding 0 and 65535
func gray16PNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray16(image.Rect(0, 0, 2, 1))
	img.SetGray16(1, 0, color.Gray16{Y: 0xffff})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

// sequenceServer answers with the given status codes in order, serving body on 200
func sequenceServer(codes []int, body []byte, requests *int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := http.StatusInternalServerError
		if *requests < len(codes) {
			code = codes[*requests]
		}
		*requests++
		if code != http.StatusOK {
			w.WriteHeader(code)
			fmt.Fprintf(w, "status %d", code)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
}

func TestHTTPImageFetcher_RetryPolicy(t *testing.T) {
	body := gray16PNG(t)

	testCases := []struct {
		name         string
		codes        []int
		wantRequests int
		wantErr      string
	}{
		{"FirstAttempt", []int{200}, 1, ""},
		{"RecoversAfterServerError", []int{500, 200}, 2, ""},
		{"ClientErrorIsFinal", []int{404}, 1, "client error: status code 404"},
		{"ServerThenClientError", []int{500, 404}, 2, "client error: status code 404"},
		{"ExhaustsAttempts", []int{500, 502, 503}, 3, "server error: status code 503"},
		{"BadRequest", []int{400}, 1, "client error: status code 400"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			requests := 0
			server := sequenceServer(tc.codes, body, &requests)
			defer server.Close()

			img, err := NewHTTPImageFetcher(5*time.Second).WithBackoff(10*time.Millisecond).
				FetchImage(context.Background(), server.URL)

			if requests != tc.wantRequests {
				t.Errorf("Expected %d requests, got %d", tc.wantRequests, requests)
			}
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Errorf("Expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			plane, err := ExtractPlane(img, 0)
			if err != nil {
				t.Fatalf("Unexpected extract error: %v", err)
			}
			if plane.Samples[0] != 0 || plane.Samples[1] != 1 {
				t.Errorf("Expected samples [0 1], got %v", plane.Samples)
			}
		})
	}
}

func TestHTTPImageFetcher_NetworkError_Retry(t *testing.T) {
	body := gray16PNG(t)
	requestCount := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		if requestCount < 3 {
			// Simulate network error by closing connection
			hj, ok := w.(http.Hijacker)
			if ok {
				conn, _, _ := hj.Hijack()
				conn.Close()
			}
			return
		}
		// Success on third attempt
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer server.Close()

	fetcher := NewHTTPImageFetcher(5 * time.Second).WithBackoff(20 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	_, err := fetcher.FetchImage(ctx, server.URL)
	duration := time.Since(start)

	// Should succeed after retries
	if err != nil {
		t.Errorf("Expected success after retries, got error: %s", err.Error())
	}

	// Should have made 3 requests
	if requestCount != 3 {
		t.Errorf("Expected 3 requests, got %d", requestCount)
	}

	// Backoff grows linearly: 20ms + 40ms
	if duration < 60*time.Millisecond {
		t.Errorf("Expected at least 60ms due to backoff, took %v", duration)
	}
}

func TestHTTPImageFetcher_ErrorTypes(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		wantType apperrors.ErrorType
	}{
		{"NotFound", http.StatusNotFound, apperrors.ErrorTypeNotFound},
		{"Forbidden", http.StatusForbidden, apperrors.ErrorTypeNetwork},
		{"BadGateway", http.StatusBadGateway, apperrors.ErrorTypeNetwork},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			_, err := NewHTTPImageFetcher(5*time.Second).WithBackoff(time.Millisecond).FetchImage(context.Background(), server.URL)
			if !apperrors.IsType(err, tc.wantType) {
				t.Errorf("Expected %s error, got %v", tc.wantType, err)
			}
		})
	}
}

func TestHTTPImageFetcher_UndecodableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not an image"))
	}))
	defer server.Close()

	_, err := NewHTTPImageFetcher(5*time.Second).FetchImage(context.Background(), server.URL)
	if !apperrors.IsType(err, apperrors.ErrorTypeProcessing) {
		t.Errorf("Expected processing error, got %v", err)
	}
}
