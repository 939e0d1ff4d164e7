package pagespeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/medspagpt/backend/logging"
)

const defaultBaseURL = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// Result carries the extracted PageSpeed scores for one URL. When Error is
// set, all score fields are absent and callers must treat the result as
// "no score available" rather than a failure of their own request.
type Result struct {
	URL                    string   `json:"url"`
	PerformanceScore       *int     `json:"performance_score,omitempty"`
	SEOScore               *int     `json:"seo_score,omitempty"`
	AccessibilityScore     *int     `json:"accessibility_score,omitempty"`
	BestPracticesScore     *int     `json:"best_practices_score,omitempty"`
	LargestContentfulPaint *float64 `json:"largest_contentful_paint,omitempty"`
	CumulativeLayoutShift  *float64 `json:"cumulative_layout_shift,omitempty"`
	Error                  string   `json:"error,omitempty"`
}

// Usable reports whether the result carries scores downstream ranking can
// consume.
func (r *Result) Usable() bool {
	return r != nil && r.Error == ""
}

// Client wraps the PageSpeed Insights API with URL normalization, a hard
// per-attempt timeout and a bounded retry loop for timed-out attempts.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
	logger     *logging.Logger

	// sleep is swapped out in tests to observe backoff without waiting.
	sleep func(time.Duration)
}

// NewClient creates a PageSpeed client. maxRetries is the total number of
// attempts (default 2 when <= 0); timeout bounds each attempt.
func NewClient(apiKey string, timeout time.Duration, maxRetries int, logger *logging.Logger) *Client {
	if maxRetries <= 0 {
		maxRetries = 2
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
		timeout:    timeout,
		maxRetries: maxRetries,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// NormalizeURL prepares a raw business URL for analysis: prefixes https://
// when the scheme is missing, strips utm_* query parameters and any
// fragment, and collapses store-locator subpages (paths containing
// "locator" or "locations") down to the origin.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""

	lowerPath := strings.ToLower(u.Path)
	if strings.Contains(lowerPath, "locator") || strings.Contains(lowerPath, "locations") {
		return u.Scheme + "://" + u.Host
	}

	q := u.Query()
	for key := range q {
		if strings.HasPrefix(strings.ToLower(key), "utm_") {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// Analyze runs a mobile-strategy PageSpeed audit for the performance and
// seo categories. It retries only attempts whose error message contains
// "timed out", waiting attempt*2000ms between attempts. It never returns an
// error: exhausted retries produce a Result with the Error field set.
func (c *Client) Analyze(ctx context.Context, rawURL string) *Result {
	target := NormalizeURL(rawURL)
	result := &Result{URL: target}

	if c.apiKey == "" {
		result.Error = "PAGESPEED_INSIGHTS_API_KEY is not configured"
		return result
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			// Backoff only applies to the timeout retry path.
			c.sleep(time.Duration(attempt-1) * 2000 * time.Millisecond)
		}

		lastErr = c.fetch(ctx, target, result)
		if lastErr == nil {
			return result
		}
		if !strings.Contains(lastErr.Error(), "timed out") {
			break
		}
		if attempt < c.maxRetries {
			c.logger.Warn("pagespeed: attempt %d/%d for %s timed out, retrying", attempt, c.maxRetries, target)
		}
	}

	c.logger.Error("pagespeed: analysis of %s failed: %v", target, lastErr)
	return &Result{URL: target, Error: lastErr.Error()}
}

func (c *Client) fetch(ctx context.Context, target string, result *Result) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("url", target)
	params.Set("strategy", "mobile")
	params.Add("category", "performance")
	params.Add("category", "seo")
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("pagespeed request timed out after %s", c.timeout)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pagespeed API returned HTTP %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode pagespeed response: %w", err)
	}

	extract(&payload, result)
	return nil
}

type apiResponse struct {
	LighthouseResult struct {
		Categories map[string]struct {
			Score *float64 `json:"score"`
		} `json:"categories"`
		Audits map[string]struct {
			NumericValue *float64 `json:"numericValue"`
		} `json:"audits"`
	} `json:"lighthouseResult"`
}

// extract converts the Lighthouse 0-1 category scores to rounded 0-100
// integers and pulls the raw timing audit values.
func extract(payload *apiResponse, result *Result) {
	score := func(category string) *int {
		cat, ok := payload.LighthouseResult.Categories[category]
		if !ok || cat.Score == nil {
			return nil
		}
		v := int(math.Round(*cat.Score * 100))
		return &v
	}

	result.PerformanceScore = score("performance")
	result.SEOScore = score("seo")
	result.AccessibilityScore = score("accessibility")
	result.BestPracticesScore = score("best-practices")

	if audit, ok := payload.LighthouseResult.Audits["largest-contentful-paint"]; ok && audit.NumericValue != nil {
		result.LargestContentfulPaint = audit.NumericValue
	}
	if audit, ok := payload.LighthouseResult.Audits["cumulative-layout-shift"]; ok && audit.NumericValue != nil {
		result.CumulativeLayoutShift = audit.NumericValue
	}
}
