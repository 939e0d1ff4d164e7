package parser

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/medspagpt/backend/logging"
)

const (
	desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxImages = 10
	maxLinks  = 20

	maxCacheSize    = 500
	cleanupInterval = 5 * time.Minute
)

var socialPlatforms = []string{"facebook", "instagram", "twitter", "linkedin", "youtube", "tiktok"}

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRegex = regexp.MustCompile(`\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`)
)

var bookingKeywords = []string{"book now", "book an appointment", "book online", "schedule", "booking", "appointment"}

type cacheEntry struct {
	result    *Result
	timestamp time.Time
}

// Parser fetches and parses business websites. Results are cached by URL
// with a TTL so repeated analyses of the same site within one session don't
// refetch it.
type Parser struct {
	client     *http.Client
	cache      map[string]cacheEntry
	cacheMutex sync.RWMutex
	cacheTTL   time.Duration
	logger     *logging.Logger

	// Hit/miss counters accumulate between drains and feed the usage
	// statistics endpoint.
	hits   int
	misses int
}

// New creates a Parser with the given fetch timeout and cache TTL.
func New(timeout, cacheTTL time.Duration, logger *logging.Logger) *Parser {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	p := &Parser{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		cache:    make(map[string]cacheEntry),
		cacheTTL: cacheTTL,
		logger:   logger,
	}
	go p.periodicCleanup()
	return p
}

// DrainCacheCounts returns the hit/miss counters accumulated since the last
// call and resets them, so callers can fold the deltas into monthly usage
// statistics.
func (p *Parser) DrainCacheCounts() (hits, misses int) {
	p.cacheMutex.Lock()
	defer p.cacheMutex.Unlock()
	hits, misses = p.hits, p.misses
	p.hits, p.misses = 0, 0
	return hits, misses
}

// periodicCleanup evicts expired cache entries in the background. Cache keys
// are caller-supplied URLs, so the map must not grow with request traffic.
func (p *Parser) periodicCleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		p.cleanup()
	}
}

// cleanup removes expired entries and, if the cache is still over
// maxCacheSize, the oldest entries beyond the cap.
func (p *Parser) cleanup() {
	p.cacheMutex.Lock()
	defer p.cacheMutex.Unlock()

	now := time.Now()
	for url, entry := range p.cache {
		if now.Sub(entry.timestamp) > p.cacheTTL {
			delete(p.cache, url)
		}
	}
	for len(p.cache) > maxCacheSize {
		p.evictOldest()
	}
}

// evictOldest drops the single oldest entry. Caller must hold the write lock.
func (p *Parser) evictOldest() {
	var oldestURL string
	var oldest time.Time
	for url, entry := range p.cache {
		if oldestURL == "" || entry.timestamp.Before(oldest) {
			oldestURL, oldest = url, entry.timestamp
		}
	}
	delete(p.cache, oldestURL)
}

// Parse fetches the URL and extracts its SEO-relevant content. It never
// returns an error past this boundary: any failure produces a zero-valued
// Result carrying an Error string.
func (p *Parser) Parse(ctx context.Context, rawURL string) *Result {
	p.cacheMutex.RLock()
	entry, found := p.cache[rawURL]
	p.cacheMutex.RUnlock()
	if found && time.Since(entry.timestamp) < p.cacheTTL {
		p.cacheMutex.Lock()
		p.hits++
		p.cacheMutex.Unlock()
		return entry.result
	}

	result := p.parse(ctx, rawURL)

	p.cacheMutex.Lock()
	p.misses++
	if result.Error == "" {
		if len(p.cache) >= maxCacheSize {
			p.evictOldest()
		}
		p.cache[rawURL] = cacheEntry{result: result, timestamp: time.Now()}
	}
	p.cacheMutex.Unlock()

	return result
}

func (p *Parser) parse(ctx context.Context, rawURL string) *Result {
	result := emptyResult(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	req.Header.Set("User-Agent", desktopUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("parser: fetch of %s failed: %v", rawURL, err)
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.Error = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		return result
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	p.extract(doc, result)
	return result
}

func emptyResult(url string) *Result {
	return &Result{
		URL:         url,
		Headings:    Headings{H1: []string{}, H2: []string{}, H3: []string{}},
		Images:      []Image{},
		Links:       []Link{},
		SocialLinks: []SocialLink{},
	}
}

func (p *Parser) extract(doc *goquery.Document, result *Result) {
	// Title falls back to Open Graph, as does the description.
	result.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if result.Title == "" {
		result.Title, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
	}

	result.Description, _ = doc.Find(`meta[name="description"]`).Attr("content")
	if result.Description == "" {
		result.Description, _ = doc.Find(`meta[property="og:description"]`).Attr("content")
	}

	result.Keywords, _ = doc.Find(`meta[name="keywords"]`).Attr("content")

	for _, level := range []string{"h1", "h2", "h3"} {
		doc.Find(level).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if text == "" {
				return
			}
			switch level {
			case "h1":
				result.Headings.H1 = append(result.Headings.H1, text)
			case "h2":
				result.Headings.H2 = append(result.Headings.H2, text)
			case "h3":
				result.Headings.H3 = append(result.Headings.H3, text)
			}
		})
	}

	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(result.Images) >= maxImages {
			return false
		}
		src, _ := s.Attr("src")
		alt, _ := s.Attr("alt")
		if src != "" {
			result.Images = append(result.Images, Image{Src: src, Alt: alt})
		}
		return true
	})

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(result.Links) >= maxLinks {
			return false
		}
		href, _ := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		if href != "" && text != "" {
			result.Links = append(result.Links, Link{Href: href, Text: text})
		}
		return true
	})

	result.SocialLinks = extractSocialLinks(doc)

	bodyText := doc.Find("body").Text()
	if email := emailRegex.FindString(bodyText); email != "" {
		result.ContactInfo.Email = email
	}
	if phone := phoneRegex.FindString(bodyText); phone != "" {
		result.ContactInfo.Phone = strings.TrimSpace(phone)
	}

	result.Structure = detectStructure(doc, bodyText)
}

// extractSocialLinks scans every anchor (not just the first 20 retained
// links) for known social platform hosts.
func extractSocialLinks(doc *goquery.Document) []SocialLink {
	links := []SocialLink{}
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		lower := strings.ToLower(href)
		for _, platform := range socialPlatforms {
			if strings.Contains(lower, platform) && !seen[platform] {
				seen[platform] = true
				links = append(links, SocialLink{Platform: platform, URL: href})
			}
		}
	})

	return links
}

// detectStructure infers the four structural booleans from selectors and
// keyword scans. These are heuristics over arbitrary markup; confidence is
// best-effort only.
func detectStructure(doc *goquery.Document, bodyText string) Structure {
	lowerText := strings.ToLower(bodyText)

	s := Structure{
		HasNavigation: doc.Find("nav, [role='navigation'], .navbar, .nav, header ul").Length() > 0,
		HasFooter:     doc.Find("footer, .footer").Length() > 0,
	}

	if doc.Find("form").Length() > 0 {
		hasEmailInput := doc.Find("form input[type='email'], form textarea").Length() > 0
		s.HasContactForm = hasEmailInput || strings.Contains(lowerText, "contact")
	}

	for _, kw := range bookingKeywords {
		if strings.Contains(lowerText, kw) {
			s.HasBookingForm = true
			break
		}
	}
	if !s.HasBookingForm {
		doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			href, _ := sel.Attr("href")
			lower := strings.ToLower(href)
			if strings.Contains(lower, "book") || strings.Contains(lower, "appointment") {
				s.HasBookingForm = true
				return false
			}
			return true
		})
	}

	return s
}
