package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medspagpt/backend/config"
	"github.com/medspagpt/backend/generator"
	"github.com/medspagpt/backend/logging"
	"github.com/medspagpt/backend/pagespeed"
	"github.com/medspagpt/backend/parser"
	"github.com/medspagpt/backend/places"
	"github.com/medspagpt/backend/seo"
	"github.com/medspagpt/backend/stats"
)

type app struct {
	cfg       *config.Config
	log       *logging.Logger
	places    *places.Client
	pagespeed *pagespeed.Client
	parser    *parser.Parser
	generator *generator.Client
	usage     *stats.Storage
}

func (a *app) handleSearchMedSpas(c *gin.Context) {
	var req struct {
		Query        string         `json:"query" binding:"required"`
		UserLocation *places.LatLng `json:"userLocation"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing search query"})
		return
	}
	if a.cfg.GooglePlacesAPIKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Places API key is not configured"})
		return
	}

	results, err := a.places.SearchMedSpas(c.Request.Context(), req.Query, req.UserLocation)
	if err != nil {
		a.log.Error("search-medspas: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search for med spas"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"total":   len(results),
	})
}

func (a *app) handleSEOAnalysis(c *gin.Context) {
	var req struct {
		SelectedMedspa *places.PlaceDetails `json:"selectedMedspa" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.SelectedMedspa == nil || req.SelectedMedspa.PlaceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing selected med spa"})
		return
	}
	if a.cfg.GooglePlacesAPIKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Places API key is not configured"})
		return
	}

	ctx := c.Request.Context()
	target := req.SelectedMedspa

	// The client may send a bare search result; resolve full details when
	// coordinates or the website are missing.
	if target.Geometry == nil || target.Website == "" {
		if details, err := a.places.Details(ctx, target.PlaceID); err == nil {
			details.Website = firstNonEmpty(details.Website, target.Website)
			target = details
		}
	}

	competitors, err := a.places.FindCompetitors(ctx, target, a.cfg.CompetitorRadiusMeters, a.cfg.CompetitorLimit)
	if err != nil {
		a.log.Error("seo-analysis: competitor discovery failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find nearby competitors"})
		return
	}

	targetPS, withSEO := a.analyzeWebsites(ctx, target, competitors)
	analysis := seo.Rank(target.Website != "", targetPS, withSEO)

	c.JSON(http.StatusOK, gin.H{
		"requestId":      uuid.NewString(),
		"selectedMedspa": target,
		"competitors":    withSEO,
		"analysis":       analysis,
	})
}

// analyzeWebsites fans out PageSpeed audits for the target and every
// competitor that has a website. The fan-out is bounded by the competitor
// count; businesses without a website never get a PageSpeed call.
func (a *app) analyzeWebsites(ctx context.Context, target *places.PlaceDetails, competitors []places.Competitor) (*pagespeed.Result, []*seo.CompetitorWithSEO) {
	withSEO := make([]*seo.CompetitorWithSEO, len(competitors))
	var targetPS *pagespeed.Result

	var wg sync.WaitGroup
	if target.Website != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			targetPS = a.pagespeed.Analyze(ctx, target.Website)
		}()
	}

	for i := range competitors {
		comp := &seo.CompetitorWithSEO{Competitor: competitors[i]}
		withSEO[i] = comp
		if comp.Website == "" {
			continue
		}
		wg.Add(1)
		go func(comp *seo.CompetitorWithSEO) {
			defer wg.Done()
			comp.PageSpeed = a.pagespeed.Analyze(ctx, comp.Website)
		}(comp)
	}
	wg.Wait()

	return targetPS, withSEO
}

func (a *app) handleCompetitorAnalysis(c *gin.Context) {
	var req struct {
		Medspa   string `json:"medspa" binding:"required"`
		Location string `json:"location" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing med spa name or location"})
		return
	}
	if a.cfg.GooglePlacesAPIKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Places API key is not configured"})
		return
	}

	ctx := c.Request.Context()
	results, err := a.places.SearchMedSpas(ctx, req.Medspa+" "+req.Location, nil)
	if err != nil {
		a.log.Error("competitor-analysis: search failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search for med spa"})
		return
	}
	if len(results) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No med spa found matching the query"})
		return
	}

	target, err := a.places.Details(ctx, results[0].PlaceID)
	if err != nil {
		// Text search already gave us usable fields; degrade instead of failing.
		target = &results[0]
	}

	competitors, err := a.places.FindCompetitors(ctx, target, a.cfg.CompetitorRadiusMeters, a.cfg.CompetitorLimit)
	if err != nil {
		a.log.Error("competitor-analysis: discovery failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find nearby competitors"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"selectedMedspa":  target,
		"competitors":     competitors,
		"analysisMetrics": competitorMetrics(target, competitors),
	})
}

// competitorMetrics summarizes the rating landscape around the target.
// Market position uses the same tie rule as the SEO ranking: a competitor
// must strictly exceed the target's rating to outrank it.
func competitorMetrics(target *places.PlaceDetails, competitors []places.Competitor) gin.H {
	position := 1
	var ratingSum float64
	var reviewSum, rated int
	for _, comp := range competitors {
		if comp.Rating > target.Rating {
			position++
		}
		if comp.Rating > 0 {
			ratingSum += comp.Rating
			reviewSum += comp.UserRatingsTotal
			rated++
		}
	}

	metrics := gin.H{
		"totalCompetitors":   len(competitors),
		"marketPosition":     position,
		"yourRating":         target.Rating,
		"yourReviewCount":    target.UserRatingsTotal,
		"averageRating":      0.0,
		"averageReviewCount": 0,
	}
	if rated > 0 {
		metrics["averageRating"] = float64(int(ratingSum/float64(rated)*10+0.5)) / 10
		metrics["averageReviewCount"] = reviewSum / rated
	}
	return metrics
}

func (a *app) handleWebsiteParse(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url"})
		return
	}

	result := a.parser.Parse(c.Request.Context(), pagespeed.NormalizeURL(req.URL))
	a.recordParseUsage()

	// Parse failures are embedded in the result, not surfaced as HTTP errors.
	c.JSON(http.StatusOK, result)
}

func (a *app) handleSEOAnalyzer(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url"})
		return
	}

	result := a.parser.Parse(c.Request.Context(), pagespeed.NormalizeURL(req.URL))
	a.recordParseUsage()
	if result.Error != "" {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":    result.Error,
			"services": seo.DefaultServices,
		})
		return
	}

	c.JSON(http.StatusOK, seo.AnalyzePage(result))
}

func (a *app) handleGenerateWebsite(c *gin.Context) {
	var req struct {
		Prompt     string               `json:"prompt" binding:"required"`
		MedSpaData *places.PlaceDetails `json:"medSpaData"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing prompt"})
		return
	}

	// Feature the services the business already advertises, when its site
	// is parseable.
	var services []string
	if req.MedSpaData != nil && req.MedSpaData.Website != "" {
		parsed := a.parser.Parse(c.Request.Context(), pagespeed.NormalizeURL(req.MedSpaData.Website))
		a.recordParseUsage()
		if parsed.Error == "" {
			services = seo.ExtractServices(parsed)
		}
	}

	site, err := a.generator.GenerateWebsite(c.Request.Context(), req.Prompt, req.MedSpaData, services)
	if err != nil {
		if errors.Is(err, generator.ErrMissingAPIKey) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "OpenAI API key is not configured"})
			return
		}
		a.log.Error("generate-website: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Website generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      uuid.NewString(),
		"html":    site.HTML,
		"css":     site.CSS,
		"js":      site.JS,
		"preview": site.Preview,
		"type":    site.Type,
	})
}

func (a *app) handleLLMSEOAnalysis(c *gin.Context) {
	var req struct {
		SEOData json.RawMessage `json:"seoData" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.SEOData) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing seoData"})
		return
	}

	report, err := a.generator.GenerateSEOReport(c.Request.Context(), req.SEOData)
	if err != nil {
		if errors.Is(err, generator.ErrMissingAPIKey) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "OpenAI API key is not configured"})
			return
		}
		a.log.Error("llm-seo-analysis: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Report generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"report":      report,
		"reportId":    uuid.NewString(),
		"generatedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *app) handleStatistics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"current": a.usage.GetCurrentStats(),
		"months":  a.usage.GetAllMonths(),
	})
}

// recordParseUsage folds the parser's cache counter deltas into the monthly
// usage statistics. Every handler that parses a website calls it.
func (a *app) recordParseUsage() {
	a.usage.AddParseCacheCounts(a.parser.DrainCacheCounts())
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
