package seo

import (
	"math"
	"sort"

	"github.com/medspagpt/backend/pagespeed"
	"github.com/medspagpt/backend/places"
)

// Score weighting for the competitive score. Not an official Google metric.
const (
	performanceWeight = 0.6
	seoWeight         = 0.4
)

// CompetitorWithSEO is a nearby competitor enriched with PageSpeed data and
// the derived competitive score. SEORank is nil for competitors with no
// usable PageSpeed data; they stay in the raw list but are excluded from
// ranking.
type CompetitorWithSEO struct {
	places.Competitor
	PageSpeed *pagespeed.Result `json:"pagespeed_data,omitempty"`
	SEORank   *int              `json:"seo_rank,omitempty"`
}

// AnalysisResult is the aggregated ranking document returned to the client.
type AnalysisResult struct {
	Competitors             []*CompetitorWithSEO `json:"competitors"`
	YourScore               int                  `json:"yourScore"`
	YourPosition            int                  `json:"yourPosition"`
	TotalCompetitors        int                  `json:"totalCompetitors"`
	AveragePerformanceScore int                  `json:"averagePerformanceScore"`
	AverageSEOScore         int                  `json:"averageSEOScore"`
	TopPerformer            *CompetitorWithSEO   `json:"topPerformer"`
	Recommendations         []string             `json:"recommendations"`
}

// OverallScore combines the performance and SEO sub-scores into the single
// weighted competitive score. Missing sub-scores count as 0.
func OverallScore(ps *pagespeed.Result) int {
	if ps == nil {
		return 0
	}
	perf, seo := 0, 0
	if ps.PerformanceScore != nil {
		perf = *ps.PerformanceScore
	}
	if ps.SEOScore != nil {
		seo = *ps.SEOScore
	}
	return int(math.Round(float64(perf)*performanceWeight + float64(seo)*seoWeight))
}

// Rank scores the target against its competitors. Competitors without
// usable PageSpeed data are kept in the competitor list but receive no
// SEORank and are omitted from the position comparison. The target's
// position is 1 + the count of competitors whose score strictly exceeds
// its own, so ties favor the target.
func Rank(targetHasWebsite bool, targetPageSpeed *pagespeed.Result, competitors []*CompetitorWithSEO) *AnalysisResult {
	yourScore := OverallScore(targetPageSpeed)

	var ranked []*CompetitorWithSEO
	for _, c := range competitors {
		if !c.PageSpeed.Usable() {
			continue
		}
		score := OverallScore(c.PageSpeed)
		c.SEORank = &score
		ranked = append(ranked, c)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].SEORank > *ranked[j].SEORank
	})

	position := 1
	for _, c := range ranked {
		if *c.SEORank > yourScore {
			position++
		}
	}

	var top *CompetitorWithSEO
	if len(ranked) > 0 {
		top = ranked[0]
	}

	result := &AnalysisResult{
		Competitors:             competitors,
		YourScore:               yourScore,
		YourPosition:            position,
		TotalCompetitors:        len(competitors),
		AveragePerformanceScore: average(competitors, func(ps *pagespeed.Result) *int { return ps.PerformanceScore }),
		AverageSEOScore:         average(competitors, func(ps *pagespeed.Result) *int { return ps.SEOScore }),
		TopPerformer:            top,
	}
	result.Recommendations = Recommendations(targetHasWebsite, targetPageSpeed, position)
	return result
}

// average computes the mean of a sub-score over competitors that define it.
// An empty set yields 0.
func average(competitors []*CompetitorWithSEO, pick func(*pagespeed.Result) *int) int {
	sum, n := 0, 0
	for _, c := range competitors {
		if !c.PageSpeed.Usable() {
			continue
		}
		if v := pick(c.PageSpeed); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

// Recommendations is a fixed decision table. Checks run in source order and
// each appends an independent canned string; there is no dedup or
// prioritization beyond that order.
func Recommendations(hasWebsite bool, ps *pagespeed.Result, position int) []string {
	if !hasWebsite {
		return []string{"Your business has no website. Adding one is the single highest-impact step for local search visibility."}
	}
	if !ps.Usable() {
		return []string{"Your website could not be analyzed. Make sure it loads reliably and is accessible to automated audits."}
	}

	var recs []string

	perf := 0
	if ps.PerformanceScore != nil {
		perf = *ps.PerformanceScore
	}
	if perf < 50 {
		recs = append(recs, "Critical: your website's performance score is below 50. Slow pages lose visitors and rank lower in search results.")
	} else if perf < 80 {
		recs = append(recs, "Your website's performance is average. Optimizing images and reducing script weight would lift your score.")
	}

	seoScore := 0
	if ps.SEOScore != nil {
		seoScore = *ps.SEOScore
	}
	if seoScore < 80 {
		recs = append(recs, "Your on-page SEO score is below 80. Review page titles, meta descriptions and heading structure.")
	}

	if position > 3 {
		recs = append(recs, "Competitors near you outrank your website. Closing the performance gap would move you into the top local results.")
	}

	if ps.LargestContentfulPaint != nil && *ps.LargestContentfulPaint > 2500 {
		recs = append(recs, "Largest Contentful Paint exceeds 2.5s. Compress hero images and defer non-critical resources.")
	}

	return recs
}
