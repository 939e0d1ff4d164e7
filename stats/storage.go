package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Kind identifies which API operation a tracked request hit.
type Kind string

const (
	KindSearch      Kind = "search"
	KindSEOAnalysis Kind = "seo_analysis"
	KindCompetitor  Kind = "competitor_analysis"
	KindParse       Kind = "website_parse"
	KindGeneration  Kind = "generation"
	KindReport      Kind = "report"
)

// MonthlyStats aggregates API usage for one calendar month.
type MonthlyStats struct {
	Searches           int       `json:"searches"`
	SEOAnalyses        int       `json:"seo_analyses"`
	CompetitorAnalyses int       `json:"competitor_analyses"`
	WebsiteParses      int       `json:"website_parses"`
	Generations        int       `json:"generations"`
	Reports            int       `json:"reports"`
	Errors             int       `json:"errors"`
	ParseCacheHits     int       `json:"parse_cache_hits"`
	ParseCacheMisses   int       `json:"parse_cache_misses"`
	LastUpdated        time.Time `json:"last_updated"`
}

// Storage handles persistent storage of usage statistics. Writes go through
// a temp file and an atomic rename.
type Storage struct {
	mutex       sync.RWMutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
}

// NewStorage creates a statistics store backed by dataDir/stats.json.
func NewStorage(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, "stats.json"),
		writeBuffer: make(chan struct{}, 1),
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.backgroundWriter()

	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	return json.Unmarshal(data, &s.stats)
}

func (s *Storage) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

func (s *Storage) backgroundWriter() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
			s.save()
		case <-ticker.C:
			s.flush()
		}
	}
}

// flush applies the two-month retention and writes to disk. The background
// writer runs it on every tick.
func (s *Storage) flush() {
	s.cleanup()
	s.save()
}

func currentMonth() string {
	return time.Now().Format("2006-01")
}

// requestWrite signals that a write to disk is needed. A full buffer means
// a write is already pending.
func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
	}
}

// Track records one API request of the given kind.
func (s *Storage) Track(kind Kind, failed bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	m := s.month()
	switch kind {
	case KindSearch:
		m.Searches++
	case KindSEOAnalysis:
		m.SEOAnalyses++
	case KindCompetitor:
		m.CompetitorAnalyses++
	case KindParse:
		m.WebsiteParses++
	case KindGeneration:
		m.Generations++
	case KindReport:
		m.Reports++
	}
	if failed {
		m.Errors++
	}
	m.LastUpdated = time.Now()

	if time.Since(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = time.Now()
	}
}

// AddParseCacheCounts folds parser cache hit/miss deltas into the current
// month's counters.
func (s *Storage) AddParseCacheCounts(hits, misses int) {
	if hits == 0 && misses == 0 {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	m := s.month()
	m.ParseCacheHits += hits
	m.ParseCacheMisses += misses
	m.LastUpdated = time.Now()
}

// month returns the current month's record, creating it if needed. Caller
// must hold the write lock.
func (s *Storage) month() *MonthlyStats {
	key := currentMonth()
	m, exists := s.stats[key]
	if !exists {
		m = &MonthlyStats{}
		s.stats[key] = m
	}
	return m
}

// GetCurrentStats returns a copy of the current month's statistics.
func (s *Storage) GetCurrentStats() MonthlyStats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if m, exists := s.stats[currentMonth()]; exists {
		return *m
	}
	return MonthlyStats{}
}

// cleanup drops every month except the current and previous one.
func (s *Storage) cleanup() {
	now := time.Now()
	current := now.Format("2006-01")
	previous := now.AddDate(0, -1, 0).Format("2006-01")

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for key := range s.stats {
		if key != current && key != previous {
			delete(s.stats, key)
		}
	}
}

// GetAllMonths returns every month with recorded statistics, newest first.
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	return months
}
