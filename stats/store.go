package stats

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"songstory-api-go/logcolors"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	statsBucketName = "stats"
	statsKey        = "server_stats"
)

// Store persists a Stats value in its own BoltDB file so counters
// accumulate across restarts.
type Store struct {
	db       *bolt.DB
	stats    *Stats
	mu       sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// PersistedStats is the on-disk form of Stats
type PersistedStats struct {
	TotalRequests   int64 `json:"total_requests"`
	ProcessRequests int64 `json:"process_requests"`
	SongsRequests   int64 `json:"songs_requests"`
	LyricsRequests  int64 `json:"lyrics_requests"`
	ColorRequests   int64 `json:"color_requests"`
	OpsRequests     int64 `json:"ops_requests"`
	HealthRequests  int64 `json:"health_requests"`
	OtherRequests   int64 `json:"other_requests"`

	SongsProcessed    int64 `json:"songs_processed"`
	SongsReused       int64 `json:"songs_reused"`
	LyricsNotFound    int64 `json:"lyrics_not_found"`
	StoriesOK         int64 `json:"stories_generated"`
	StoriesFailed     int64 `json:"stories_failed"`
	StoriesSkipped    int64 `json:"stories_skipped"`
	RateLimitExceeded int64 `json:"rate_limit_exceeded"`

	Status2xx int64 `json:"status_2xx"`
	Status4xx int64 `json:"status_4xx"`
	Status5xx int64 `json:"status_5xx"`

	TotalResponseTime    int64 `json:"total_response_time"`
	ResponseCount        int64 `json:"response_count"`
	MinResponseTime      int64 `json:"min_response_time"`
	MaxResponseTime      int64 `json:"max_response_time"`
	ProcessResponseTime  int64 `json:"process_response_time"`
	ProcessResponseCount int64 `json:"process_response_count"`

	LyricHits map[string]int64 `json:"lyric_hits"`

	LastSaved    time.Time `json:"last_saved"`
	FirstStarted time.Time `json:"first_started"`
}

// NewStore opens a stats database for target; nil target means the global stats
func NewStore(dbPath string, target *Stats) (*Store, error) {
	if target == nil {
		target = Get()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %v", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database: %v", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(statsBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create stats bucket: %v", err)
	}

	log.Infof("%s Stats store initialized at %s", logcolors.LogStats, dbPath)
	return &Store{db: db, stats: target, stopChan: make(chan struct{})}, nil
}

// Load reads persisted stats and applies them to the target
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p PersistedStats
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(statsBucketName)).Get([]byte(statsKey))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &p)
	})
	if err != nil {
		return fmt.Errorf("failed to load stats: %v", err)
	}

	st := s.stats
	st.TotalRequests.Store(p.TotalRequests)
	st.ProcessRequests.Store(p.ProcessRequests)
	st.SongsRequests.Store(p.SongsRequests)
	st.LyricsRequests.Store(p.LyricsRequests)
	st.ColorRequests.Store(p.ColorRequests)
	st.OpsRequests.Store(p.OpsRequests)
	st.HealthRequests.Store(p.HealthRequests)
	st.OtherRequests.Store(p.OtherRequests)
	st.SongsProcessed.Store(p.SongsProcessed)
	st.SongsReused.Store(p.SongsReused)
	st.LyricsNotFound.Store(p.LyricsNotFound)
	st.StoriesOK.Store(p.StoriesOK)
	st.StoriesFailed.Store(p.StoriesFailed)
	st.StoriesSkipped.Store(p.StoriesSkipped)
	st.RateLimitExceeded.Store(p.RateLimitExceeded)
	st.Status2xx.Store(p.Status2xx)
	st.Status4xx.Store(p.Status4xx)
	st.Status5xx.Store(p.Status5xx)
	st.totalResponseTime.Store(p.TotalResponseTime)
	st.responseCount.Store(p.ResponseCount)
	st.processResponseTime.Store(p.ProcessResponseTime)
	st.processResponseCount.Store(p.ProcessResponseCount)

	if p.MinResponseTime > 0 && p.MinResponseTime < math.MaxInt64 {
		st.minResponseTime.Store(p.MinResponseTime)
	}
	if p.MaxResponseTime > 0 {
		st.maxResponseTime.Store(p.MaxResponseTime)
	}

	for source, count := range p.LyricHits {
		counter := &atomic.Int64{}
		counter.Store(count)
		st.lyricHits.Store(source, counter)
	}

	if !p.FirstStarted.IsZero() {
		st.StartTime = p.FirstStarted
	}

	log.Infof("%s Loaded persisted stats (total requests: %d, first started: %s)",
		logcolors.LogStats, p.TotalRequests, p.FirstStarted.Format(time.RFC3339))
	return nil
}

// Save persists current stats to disk
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stats
	p := PersistedStats{
		TotalRequests:        st.TotalRequests.Load(),
		ProcessRequests:      st.ProcessRequests.Load(),
		SongsRequests:        st.SongsRequests.Load(),
		LyricsRequests:       st.LyricsRequests.Load(),
		ColorRequests:        st.ColorRequests.Load(),
		OpsRequests:          st.OpsRequests.Load(),
		HealthRequests:       st.HealthRequests.Load(),
		OtherRequests:        st.OtherRequests.Load(),
		SongsProcessed:       st.SongsProcessed.Load(),
		SongsReused:          st.SongsReused.Load(),
		LyricsNotFound:       st.LyricsNotFound.Load(),
		StoriesOK:            st.StoriesOK.Load(),
		StoriesFailed:        st.StoriesFailed.Load(),
		StoriesSkipped:       st.StoriesSkipped.Load(),
		RateLimitExceeded:    st.RateLimitExceeded.Load(),
		Status2xx:            st.Status2xx.Load(),
		Status4xx:            st.Status4xx.Load(),
		Status5xx:            st.Status5xx.Load(),
		TotalResponseTime:    st.totalResponseTime.Load(),
		ResponseCount:        st.responseCount.Load(),
		MinResponseTime:      st.minResponseTime.Load(),
		MaxResponseTime:      st.maxResponseTime.Load(),
		ProcessResponseTime:  st.processResponseTime.Load(),
		ProcessResponseCount: st.processResponseCount.Load(),
		LyricHits:            st.LyricHitsSnapshot(),
		LastSaved:            time.Now(),
		FirstStarted:         st.StartTime,
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %v", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(statsBucketName)).Put([]byte(statsKey), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save stats: %v", err)
	}
	return nil
}

// StartAutoSave begins periodic saving of stats
func (s *Store) StartAutoSave(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.Save(); err != nil {
					log.Warnf("%s Failed to auto-save stats: %v", logcolors.LogStats, err)
				}
			case <-s.stopChan:
				return
			}
		}
	}()
	log.Infof("%s Started auto-save with interval %v", logcolors.LogStats, interval)
}

// Close stops auto-save, saves once more and closes the database
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()

	if err := s.Save(); err != nil {
		log.Warnf("%s Failed to save stats on close: %v", logcolors.LogStats, err)
	} else {
		log.Infof("%s Stats saved on shutdown", logcolors.LogStats)
	}
	return s.db.Close()
}
