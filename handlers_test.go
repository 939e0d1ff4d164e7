package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medspagpt/backend/config"
	"github.com/medspagpt/backend/generator"
	"github.com/medspagpt/backend/logging"
	"github.com/medspagpt/backend/pagespeed"
	"github.com/medspagpt/backend/parser"
	"github.com/medspagpt/backend/places"
	"github.com/medspagpt/backend/stats"
)

const fakeLighthouse = `{
	"lighthouseResult": {
		"categories": {"performance": {"score": 0.8}, "seo": {"score": 0.9}},
		"audits": {"largest-contentful-paint": {"numericValue": 1800}}
	}
}`

// fakePlacesHandler serves three matching competitors; C3 has no website.
func fakePlacesHandler(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.Contains(r.URL.Path, "nearbysearch"):
		if r.URL.Query().Get("type") != "beauty_salon" {
			fmt.Fprint(w, `{"results": [], "status": "OK"}`)
			return
		}
		fmt.Fprint(w, `{"status": "OK", "results": [
			{"place_id": "C1", "name": "Acme Laser Aesthetics", "types": ["spa"], "geometry": {"location": {"lat": 40.71, "lng": -74.01}}},
			{"place_id": "C2", "name": "Radiant Med Spa", "types": ["spa"], "geometry": {"location": {"lat": 40.72, "lng": -74.02}}},
			{"place_id": "C3", "name": "Glow Botox Studio", "types": ["spa"], "geometry": {"location": {"lat": 40.73, "lng": -74.03}}}
		]}`)
	case strings.Contains(r.URL.Path, "details"):
		id := r.URL.Query().Get("place_id")
		website := ""
		if id == "C1" || id == "C2" {
			website = fmt.Sprintf(`"website": "https://%s.example",`, id)
		}
		fmt.Fprintf(w, `{"status": "OK", "result": {
			"place_id": %q, "name": "Competitor %s", %s
			"formatted_address": "Somewhere", "rating": 4.5,
			"geometry": {"location": {"lat": 40.71, "lng": -74.01}}
		}}`, id, id, website)
	default:
		http.NotFound(w, r)
	}
}

func newTestApp(t *testing.T, placesURL, pagespeedURL string) *app {
	t.Helper()

	logger := logging.NewLogger()
	usage, err := stats.NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("stats storage: %v", err)
	}

	cfg := &config.Config{
		GooglePlacesAPIKey:     "test-key",
		PageSpeedAPIKey:        "test-key",
		CompetitorRadiusMeters: 8047,
		CompetitorLimit:        5,
		PageSpeedMaxRetries:    2,
		PageSpeedTimeout:       2 * time.Second,
		ParseTimeout:           2 * time.Second,
		ParseCacheTTL:          time.Minute,
	}

	placesClient := places.NewClient(cfg.GooglePlacesAPIKey, logger)
	placesClient.SetBaseURL(placesURL)

	psClient := pagespeed.NewClient(cfg.PageSpeedAPIKey, cfg.PageSpeedTimeout, cfg.PageSpeedMaxRetries, logger)
	psClient.SetBaseURL(pagespeedURL)

	return &app{
		cfg:       cfg,
		log:       logger,
		places:    placesClient,
		pagespeed: psClient,
		parser:    parser.New(cfg.ParseTimeout, cfg.ParseCacheTTL, logger),
		generator: generator.NewClient("", logger),
		usage:     usage,
	}
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSEOAnalysisEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)

	placesSrv := httptest.NewServer(http.HandlerFunc(fakePlacesHandler))
	defer placesSrv.Close()
	psSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, fakeLighthouse)
	}))
	defer psSrv.Close()

	router := newRouter(newTestApp(t, placesSrv.URL, psSrv.URL))

	w := postJSON(t, router, "/api/seo-analysis", `{
		"selectedMedspa": {
			"place_id": "P1",
			"name": "Target Med Spa",
			"website": "https://target.example",
			"geometry": {"location": {"lat": 40.7, "lng": -74.0}}
		}
	}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Competitors []struct {
			PlaceID   string `json:"place_id"`
			PageSpeed *struct {
				Error string `json:"error"`
			} `json:"pagespeed_data"`
			SEORank *int `json:"seo_rank"`
		} `json:"competitors"`
		Analysis struct {
			TotalCompetitors int `json:"totalCompetitors"`
			YourPosition     int `json:"yourPosition"`
		} `json:"analysis"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(resp.Competitors) != 3 {
		t.Fatalf("got %d competitors, want 3", len(resp.Competitors))
	}
	if resp.Analysis.TotalCompetitors != 3 {
		t.Errorf("analysis.totalCompetitors = %d, want 3", resp.Analysis.TotalCompetitors)
	}

	withPageSpeed := 0
	for _, comp := range resp.Competitors {
		if comp.PageSpeed != nil {
			withPageSpeed++
			if comp.PlaceID == "C3" {
				t.Error("the no-website competitor must never get a PageSpeed call")
			}
		}
	}
	if withPageSpeed != 2 {
		t.Errorf("%d competitors carry pagespeed_data, want 2", withPageSpeed)
	}

	// Everyone scores 84 (0.8*60 + 0.9*40); ties favor the target.
	if resp.Analysis.YourPosition != 1 {
		t.Errorf("yourPosition = %d, want 1", resp.Analysis.YourPosition)
	}
}

func TestSEOAnalysisMissingMedspa(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newRouter(newTestApp(t, "http://invalid.invalid", "http://invalid.invalid"))

	w := postJSON(t, router, "/api/seo-analysis", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestWebsiteParseEmbedsFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)

	siteSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer siteSrv.Close()

	router := newRouter(newTestApp(t, "http://invalid.invalid", "http://invalid.invalid"))

	w := postJSON(t, router, "/api/website-parse", fmt.Sprintf(`{"url": %q}`, siteSrv.URL))
	if w.Code != http.StatusOK {
		t.Fatalf("parse failures must return HTTP 200, got %d", w.Code)
	}

	var result parser.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Error == "" {
		t.Error("result should embed the upstream failure")
	}
}

func TestWebsiteParseMissingURL(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newRouter(newTestApp(t, "http://invalid.invalid", "http://invalid.invalid"))

	w := postJSON(t, router, "/api/website-parse", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestParseCacheStatsCoverAllParsingRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	siteSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Radiant Med Spa</title></head><body><h1>Botox</h1></body></html>`)
	}))
	defer siteSrv.Close()

	router := newRouter(newTestApp(t, "http://invalid.invalid", "http://invalid.invalid"))

	body := fmt.Sprintf(`{"url": %q}`, siteSrv.URL)
	if w := postJSON(t, router, "/api/website-parse", body); w.Code != http.StatusOK {
		t.Fatalf("website-parse status = %d", w.Code)
	}
	if w := postJSON(t, router, "/api/seo-analyzer", body); w.Code != http.StatusOK {
		t.Fatalf("seo-analyzer status = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/statistics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp struct {
		Current stats.MonthlyStats `json:"current"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode statistics: %v", err)
	}
	if resp.Current.ParseCacheMisses != 1 {
		t.Errorf("parse_cache_misses = %d, want 1", resp.Current.ParseCacheMisses)
	}
	// The second route hits the cache, and its counters must still land in
	// the statistics.
	if resp.Current.ParseCacheHits != 1 {
		t.Errorf("parse_cache_hits = %d, want 1", resp.Current.ParseCacheHits)
	}
}

func TestGenerateWebsiteMissingKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newRouter(newTestApp(t, "http://invalid.invalid", "http://invalid.invalid"))

	w := postJSON(t, router, "/api/generate-website", `{"prompt": "build me a site"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 when OpenAI key is missing", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newRouter(newTestApp(t, "http://invalid.invalid", "http://invalid.invalid"))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", w.Code)
	}
}
