package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"snaplink/internal/controllers"
	"snaplink/internal/entities"
	"snaplink/internal/geoip"
	"snaplink/internal/middleware"
	"snaplink/internal/repository"
	"snaplink/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://short.test"

func newTestRouter(t *testing.T) (*gin.Engine, repository.LinkRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepository()
	svc := service.NewLinkService(repo, nil, geoip.NewNoopLocator(), zerolog.Nop())

	sc := controllers.NewShortenerController(svc, testBaseURL)
	qc := controllers.NewQRCodeController(testBaseURL)

	router := gin.New()
	router.Use(middleware.RequestLogger(zerolog.Nop()))
	router.GET("/health", controllers.HealthCheck)
	router.POST("/shorturls", sc.CreateShortLink)
	router.GET("/shorturls/:shortcode", sc.GetLinkStats)
	router.GET("/qrcode/:shortcode", qc.GenerateQRCode)
	router.GET("/:shortcode", sc.RedirectToURL)

	return router, repo
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createLink(t *testing.T, router *gin.Engine, body map[string]any) map[string]any {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/shorturls", body)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateShortLink(t *testing.T) {
	router, _ := newTestRouter(t)

	out := createLink(t, router, map[string]any{"url": "https://example.com/page", "validity": 1})

	code, _ := out["short_code"].(string)
	require.NotEmpty(t, code)
	assert.True(t, len(code) >= 4 && len(code) <= 32)
	assert.Equal(t, testBaseURL+"/"+code, out["short_link"])

	expiry, err := time.Parse(time.RFC3339, out["expiry"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiry, 5*time.Second)
}

func TestCreateRejectsBadRequests(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing url", map[string]any{}},
		{"not a url", map[string]any{"url": "notaurl"}},
		{"wrong scheme", map[string]any{"url": "ftp://example.com/file"}},
		{"bad custom code", map[string]any{"url": "https://example.com", "shortcode": "x!"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/shorturls", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCustomCodeConflict(t *testing.T) {
	router, _ := newTestRouter(t)

	createLink(t, router, map[string]any{"url": "https://example.com/a", "shortcode": "promo1"})

	rec := doJSON(t, router, http.MethodPost, "/shorturls", map[string]any{
		"url": "https://example.com/b", "shortcode": "promo1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRedirectRecordsClick(t *testing.T) {
	router, _ := newTestRouter(t)

	out := createLink(t, router, map[string]any{"url": "https://example.com/page"})
	code := out["short_code"].(string)

	req := httptest.NewRequest(http.MethodGet, "/"+code, nil)
	req.Header.Set("Referer", "https://news.example.org")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/page", rec.Header().Get("Location"))

	statsRec := doJSON(t, router, http.MethodGet, "/shorturls/"+code, nil)
	require.Equal(t, http.StatusOK, statsRec.Code)

	var stats struct {
		ShortCode   string `json:"shortcode"`
		OriginalURL string `json:"original_url"`
		TotalClicks int64  `json:"total_clicks"`
		Clicks      []struct {
			Referrer *string `json:"referrer"`
			Location string  `json:"location"`
		} `json:"clicks"`
	}
	require.NoError(t, json.Unmarshal(statsRec.Body.Bytes(), &stats))
	assert.Equal(t, code, stats.ShortCode)
	assert.Equal(t, "https://example.com/page", stats.OriginalURL)
	assert.Equal(t, int64(1), stats.TotalClicks)
	require.Len(t, stats.Clicks, 1)
	require.NotNil(t, stats.Clicks[0].Referrer)
	assert.Equal(t, "https://news.example.org", *stats.Clicks[0].Referrer)
	assert.Equal(t, geoip.UnknownLocation, stats.Clicks[0].Location)

	// The public view never exposes the client address
	assert.NotContains(t, statsRec.Body.String(), "ip_address")
	assert.NotContains(t, statsRec.Body.String(), "203.0.113.7")
}

func TestRedirectNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/doesnotexist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpiredLinkIsGone(t *testing.T) {
	router, repo := newTestRouter(t)

	// Seed an already-expired record the reaper has not removed yet
	expired := &entities.Link{
		ShortCode:   "bygone1",
		OriginalURL: "https://example.com/old",
		CreatedAt:   time.Now().Add(-2 * time.Hour),
		ExpiresAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.Create(t.Context(), expired))

	rec := doJSON(t, router, http.MethodGet, "/bygone1", nil)
	assert.Equal(t, http.StatusGone, rec.Code)

	statsRec := doJSON(t, router, http.MethodGet, "/shorturls/bygone1", nil)
	assert.Equal(t, http.StatusGone, statsRec.Code)
}

func TestStatsNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/shorturls/doesnotexist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQRCode(t *testing.T) {
	router, _ := newTestRouter(t)

	out := createLink(t, router, map[string]any{"url": "https://example.com"})
	code := out["short_code"].(string)

	rec := doJSON(t, router, http.MethodGet, "/qrcode/"+code, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
}
