package stats

import (
	"os"
	"testing"
	"time"
)

func TestStorage(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "stats-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	storage, err := NewStorage(tempDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	t.Run("Track", func(t *testing.T) {
		storage.Track(KindSearch, false)
		storage.Track(KindSEOAnalysis, true)
		storage.Track(KindParse, false)

		m := storage.GetCurrentStats()
		if m.Searches != 1 {
			t.Errorf("Searches = %d, want 1", m.Searches)
		}
		if m.SEOAnalyses != 1 {
			t.Errorf("SEOAnalyses = %d, want 1", m.SEOAnalyses)
		}
		if m.WebsiteParses != 1 {
			t.Errorf("WebsiteParses = %d, want 1", m.WebsiteParses)
		}
		if m.Errors != 1 {
			t.Errorf("Errors = %d, want 1", m.Errors)
		}
	})

	t.Run("Persistence", func(t *testing.T) {
		storage.requestWrite()
		time.Sleep(100 * time.Millisecond)

		storage2, err := NewStorage(tempDir)
		if err != nil {
			t.Fatalf("Failed to create second storage: %v", err)
		}

		m := storage2.GetCurrentStats()
		if m.Searches != 1 {
			t.Errorf("Searches after reload = %d, want 1", m.Searches)
		}
	})

	t.Run("ParseCacheCounts", func(t *testing.T) {
		storage.AddParseCacheCounts(2, 1)
		storage.AddParseCacheCounts(1, 0)

		m := storage.GetCurrentStats()
		if m.ParseCacheHits != 3 || m.ParseCacheMisses != 1 {
			t.Errorf("cache counts = %d/%d, want 3/1 (deltas must accumulate)", m.ParseCacheHits, m.ParseCacheMisses)
		}
	})

	t.Run("Retention", func(t *testing.T) {
		now := time.Now()
		// Anchor to the first of the month so AddDate doesn't normalize
		// (e.g. Aug 31 - 2 months = "June 31" = July 1) into a kept month.
		oldMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -2, 0).Format("2006-01")
		storage.mutex.Lock()
		storage.stats[oldMonth] = &MonthlyStats{Searches: 100}
		storage.mutex.Unlock()

		// flush is what the background writer runs on every tick.
		storage.flush()

		storage.mutex.RLock()
		_, exists := storage.stats[oldMonth]
		storage.mutex.RUnlock()
		if exists {
			t.Error("stats older than two months should have been cleaned up")
		}

		storage2, err := NewStorage(tempDir)
		if err != nil {
			t.Fatalf("Failed to reopen storage: %v", err)
		}
		storage2.mutex.RLock()
		_, exists = storage2.stats[oldMonth]
		storage2.mutex.RUnlock()
		if exists {
			t.Error("retention should be persisted to disk")
		}
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		done := make(chan bool)
		for i := 0; i < 10; i++ {
			go func() {
				for j := 0; j < 100; j++ {
					storage.Track(KindGeneration, false)
					storage.GetCurrentStats()
				}
				done <- true
			}()
		}
		for i := 0; i < 10; i++ {
			<-done
		}

		m := storage.GetCurrentStats()
		if m.Generations != 1000 {
			t.Errorf("Generations = %d, want 1000", m.Generations)
		}
	})
}
