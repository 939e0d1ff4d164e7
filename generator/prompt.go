package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/medspagpt/backend/places"
)

// BuildWebsitePrompt assembles the code-generation prompt from the user's
// request and whatever business data we hold for the med spa.
func BuildWebsitePrompt(userPrompt string, medSpa *places.PlaceDetails, services []string) string {
	var b strings.Builder

	b.WriteString("You are an expert web developer. Generate a complete, single-file HTML website ")
	b.WriteString("(inline CSS and JS) for a medical spa. Respond with the HTML document only, no commentary.\n\n")
	b.WriteString("Request: ")
	b.WriteString(userPrompt)
	b.WriteString("\n")

	if medSpa != nil {
		b.WriteString("\nBusiness details:\n")
		fmt.Fprintf(&b, "- Name: %s\n", medSpa.Name)
		if medSpa.FormattedAddress != "" {
			fmt.Fprintf(&b, "- Address: %s\n", medSpa.FormattedAddress)
		}
		if medSpa.Phone != "" {
			fmt.Fprintf(&b, "- Phone: %s\n", medSpa.Phone)
		}
		if medSpa.Rating > 0 {
			fmt.Fprintf(&b, "- Google rating: %.1f (%d reviews)\n", medSpa.Rating, medSpa.UserRatingsTotal)
		}
	}

	if len(services) > 0 {
		fmt.Fprintf(&b, "\nServices to feature: %s\n", strings.Join(services, ", "))
	}

	b.WriteString("\nThe site must be mobile-responsive, include a prominent booking call-to-action, ")
	b.WriteString("a services section, and proper title and meta description tags.")

	return b.String()
}

// BuildReportPrompt wraps the aggregated SEO analysis data for the
// report-writing model.
func BuildReportPrompt(seoData json.RawMessage) string {
	var b strings.Builder

	b.WriteString("You are an SEO consultant for medical spas. Using the JSON analysis data below, ")
	b.WriteString("write a plain-English competitive SEO report for the business owner. ")
	b.WriteString("Cover: how they rank against nearby competitors, their biggest weaknesses, ")
	b.WriteString("and the three highest-impact fixes. Keep it under 500 words.\n\n")
	b.WriteString("Analysis data:\n")
	b.Write(seoData)

	return b.String()
}

// StripCodeFences removes a surrounding markdown code fence from model
// output, if present.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
