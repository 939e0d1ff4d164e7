package seo

import (
	"strings"

	"github.com/medspagpt/backend/parser"
)

// PageAnalysis is the on-page audit returned by /api/seo-analyzer: scraped
// facts, the heuristic service list, and an additive 0-100 score.
type PageAnalysis struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	H1Count     int      `json:"h1Count"`
	H2Count     int      `json:"h2Count"`
	ImageCount  int      `json:"imageCount"`
	Services    []string `json:"services"`
	SEOScore    int      `json:"seoScore"`
}

// serviceKeywords maps med-spa treatment keywords to display names. Service
// extraction is a keyword scan over headings, link text and body-adjacent
// content; it is inference, not ground truth.
var serviceKeywords = []struct {
	keyword string
	display string
}{
	{"botox", "Botox"},
	{"filler", "Dermal Fillers"},
	{"laser hair removal", "Laser Hair Removal"},
	{"hydrafacial", "HydraFacial"},
	{"microneedling", "Microneedling"},
	{"chemical peel", "Chemical Peels"},
	{"coolsculpting", "CoolSculpting"},
	{"prp", "PRP Therapy"},
	{"skin tightening", "Skin Tightening"},
	{"facial", "Facials"},
	{"iv therapy", "IV Therapy"},
	{"body contouring", "Body Contouring"},
}

// DefaultServices is the fallback list returned when a site cannot be
// scanned at all.
var DefaultServices = []string{
	"Botox", "Dermal Fillers", "Laser Hair Removal", "HydraFacial", "Facials",
}

// AnalyzePage scores a parsed website. The score is additive: title (20),
// description (20), exactly one h1 (15), h2 structure (10), images with
// alt-coverage implied by presence (10), social links (10), contact info
// (10), booking path (5).
func AnalyzePage(r *parser.Result) *PageAnalysis {
	analysis := &PageAnalysis{
		URL:         r.URL,
		Title:       r.Title,
		Description: r.Description,
		H1Count:     len(r.Headings.H1),
		H2Count:     len(r.Headings.H2),
		ImageCount:  len(r.Images),
		Services:    ExtractServices(r),
	}

	score := 0
	if r.Title != "" {
		score += 20
	}
	if r.Description != "" {
		score += 20
	}
	if len(r.Headings.H1) == 1 {
		score += 15
	} else if len(r.Headings.H1) > 1 {
		score += 5
	}
	if len(r.Headings.H2) > 0 {
		score += 10
	}
	if len(r.Images) > 0 {
		score += 10
	}
	if len(r.SocialLinks) > 0 {
		score += 10
	}
	if r.ContactInfo.Email != "" || r.ContactInfo.Phone != "" {
		score += 10
	}
	if r.Structure.HasBookingForm {
		score += 5
	}

	analysis.SEOScore = score
	return analysis
}

// ExtractServices scans headings and link text for known treatment
// keywords, preserving the keyword table's order.
func ExtractServices(r *parser.Result) []string {
	var corpus strings.Builder
	for _, h := range r.Headings.H1 {
		corpus.WriteString(h)
		corpus.WriteString(" ")
	}
	for _, h := range r.Headings.H2 {
		corpus.WriteString(h)
		corpus.WriteString(" ")
	}
	for _, h := range r.Headings.H3 {
		corpus.WriteString(h)
		corpus.WriteString(" ")
	}
	for _, l := range r.Links {
		corpus.WriteString(l.Text)
		corpus.WriteString(" ")
	}
	corpus.WriteString(r.Title)
	corpus.WriteString(" ")
	corpus.WriteString(r.Description)

	text := strings.ToLower(corpus.String())

	services := []string{}
	for _, sk := range serviceKeywords {
		if strings.Contains(text, sk.keyword) {
			services = append(services, sk.display)
		}
	}
	return services
}
