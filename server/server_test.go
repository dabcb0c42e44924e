package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/hardhat/annotate"
	"github.com/nvr-ai/hardhat/config"
	"github.com/nvr-ai/hardhat/images"
	"github.com/nvr-ai/hardhat/inference"
	"github.com/nvr-ai/hardhat/service"
)

type stubDetector struct {
	detections []inference.Detection
	err        error
}

func (s *stubDetector) Detect(context.Context, image.Image) ([]inference.Detection, error) {
	return s.detections, s.err
}

func (s *stubDetector) Close() error { return nil }

func newTestServer(det inference.Detector) *Server {
	cfg := config.Default().Server
	cfg.Mode = gin.TestMode
	return New(cfg, service.NewPredictor(det, service.Options{}), nil)
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func uploadRequest(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "site.jpg")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, PredictURL, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRoot(t *testing.T) {
	w := do(newTestServer(nil), httptest.NewRequest(http.MethodGet, RootURL, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusRunning, decodeBody(t, w)["status"])
}

func TestHealth(t *testing.T) {
	w := do(newTestServer(nil), httptest.NewRequest(http.MethodGet, HealthURL, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["model_loaded"])

	w = do(newTestServer(&stubDetector{}), httptest.NewRequest(http.MethodGet, HealthURL, nil))
	assert.Equal(t, true, decodeBody(t, w)["model_loaded"])
}

func TestPredict_ModelNotLoaded(t *testing.T) {
	w := do(newTestServer(nil), uploadRequest(t, "file", jpegBytes(t, 8, 8)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, MsgModelNotLoaded, decodeBody(t, w)["error"])
}

func TestPredict_MissingFile(t *testing.T) {
	w := do(newTestServer(&stubDetector{}), uploadRequest(t, "image", jpegBytes(t, 8, 8)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, MsgNoFile, decodeBody(t, w)["error"])
}

func TestPredict_InvalidImage(t *testing.T) {
	w := do(newTestServer(&stubDetector{}), uploadRequest(t, "file", []byte("plain text")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "invalid image")
}

func TestPredict_DetectorFailure(t *testing.T) {
	w := do(newTestServer(&stubDetector{err: errors.New("runtime exploded")}), uploadRequest(t, "file", jpegBytes(t, 8, 8)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "runtime exploded")
}

func TestPredict_Success(t *testing.T) {
	det := &stubDetector{detections: []inference.Detection{
		{Box: images.Rect{X1: 10, Y1: 40, X2: 50, Y2: 90}, ClassID: 1, ClassName: "head", Confidence: 0.8},
	}}

	w := do(newTestServer(det), uploadRequest(t, "file", jpegBytes(t, 120, 100)))
	require.Equal(t, http.StatusOK, w.Code)

	var resp PredictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.AnnotatedImage, annotate.DataURIPrefix))
	assert.Equal(t, det.detections, resp.Detections)
	assert.Equal(t, map[string]int{"head": 1}, resp.Counts)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(&stubDetector{})
	do(s, uploadRequest(t, "file", jpegBytes(t, 16, 16)))

	w := do(s, httptest.NewRequest(http.MethodGet, MetricsURL, nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	timings, ok := body["timings"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, timings, service.OpDetect)
}

func TestCORS(t *testing.T) {
	s := newTestServer(nil)

	tests := []struct {
		name   string
		method string
		origin string
		allow  string
		status int
	}{
		{"preflight from allowed origin", http.MethodOptions, "http://localhost:5173", "http://localhost:5173", http.StatusNoContent},
		{"get from allowed origin", http.MethodGet, "http://localhost:3000", "http://localhost:3000", http.StatusOK},
		{"get from other origin", http.MethodGet, "http://evil.example", "", http.StatusOK},
		{"no origin", http.MethodGet, "", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, RootURL, nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			req.Header.Set("Access-Control-Request-Headers", "content-type")

			w := do(s, req)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.allow, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.allow != "" {
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
				assert.Equal(t, "content-type", w.Header().Get("Access-Control-Allow-Headers"))
			}
		})
	}
}

func TestCORS_Wildcard(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"*"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://anything.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "https://anything.example", w.Header().Get("Access-Control-Allow-Origin"))
}
