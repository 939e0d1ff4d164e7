package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medspagpt/backend/stats"
)

// trackedPaths maps API routes to the usage counter they increment.
var trackedPaths = map[string]stats.Kind{
	"/api/search-medspas":      stats.KindSearch,
	"/api/seo-analysis":        stats.KindSEOAnalysis,
	"/api/competitor-analysis": stats.KindCompetitor,
	"/api/website-parse":       stats.KindParse,
	"/api/seo-analyzer":        stats.KindParse,
	"/api/generate-website":    stats.KindGeneration,
	"/api/llm-seo-analysis":    stats.KindReport,
}

// Stats records per-endpoint usage counts after each request completes.
func Stats(storage *stats.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodPost {
			return
		}
		kind, tracked := trackedPaths[c.Request.URL.Path]
		if !tracked {
			return
		}
		storage.Track(kind, c.Writer.Status() >= 400)
	}
}
