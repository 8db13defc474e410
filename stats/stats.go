package stats

import (
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Endpoint groups used for request counting
const (
	EndpointProcess = "process"
	EndpointSongs   = "songs"
	EndpointLyrics  = "lyrics"
	EndpointColor   = "color"
	EndpointOps     = "ops"
	EndpointHealth  = "health"
	EndpointOther   = "other"
)

// Stats holds all server statistics with atomic counters
type Stats struct {
	StartTime time.Time

	// Request counters
	TotalRequests   atomic.Int64
	ProcessRequests atomic.Int64
	SongsRequests   atomic.Int64
	LyricsRequests  atomic.Int64
	ColorRequests   atomic.Int64
	OpsRequests     atomic.Int64
	HealthRequests  atomic.Int64
	OtherRequests   atomic.Int64

	// Song pipeline
	SongsProcessed atomic.Int64 // new songs persisted
	SongsReused    atomic.Int64 // requests answered from the store
	LyricsNotFound atomic.Int64
	StoriesOK      atomic.Int64
	StoriesFailed  atomic.Int64
	StoriesSkipped atomic.Int64 // no keywords, placeholder used

	RateLimitExceeded atomic.Int64

	// Response status codes
	Status2xx atomic.Int64
	Status4xx atomic.Int64
	Status5xx atomic.Int64

	// Response times in microseconds
	totalResponseTime atomic.Int64
	responseCount     atomic.Int64
	minResponseTime   atomic.Int64
	maxResponseTime   atomic.Int64

	processResponseTime  atomic.Int64
	processResponseCount atomic.Int64

	// Lyric hits per source label (string -> *atomic.Int64)
	lyricHits sync.Map
}

// New returns an empty Stats started now
func New() *Stats {
	s := &Stats{StartTime: time.Now()}
	s.minResponseTime.Store(math.MaxInt64)
	return s
}

var global = New()

// Get returns the global stats instance
func Get() *Stats {
	return global
}

// EndpointFor maps a request path to its counting group
func EndpointFor(path string) string {
	switch {
	case path == "/api/process-song":
		return EndpointProcess
	case strings.HasPrefix(path, "/api/songs"):
		return EndpointSongs
	case path == "/api/lyrics", strings.HasPrefix(path, "/api/providers"):
		return EndpointLyrics
	case path == "/match", path == "/analyze-colors", path == "/color-variations":
		return EndpointColor
	case path == "/stats", strings.HasPrefix(path, "/store"), strings.HasPrefix(path, "/circuit-breaker"), strings.HasPrefix(path, "/notifications"):
		return EndpointOps
	case path == "/", path == "/health":
		return EndpointHealth
	default:
		return EndpointOther
	}
}

// RecordRequest counts a request against its endpoint group
func (s *Stats) RecordRequest(path string) {
	s.TotalRequests.Add(1)
	switch EndpointFor(path) {
	case EndpointProcess:
		s.ProcessRequests.Add(1)
	case EndpointSongs:
		s.SongsRequests.Add(1)
	case EndpointLyrics:
		s.LyricsRequests.Add(1)
	case EndpointColor:
		s.ColorRequests.Add(1)
	case EndpointOps:
		s.OpsRequests.Add(1)
	case EndpointHealth:
		s.HealthRequests.Add(1)
	default:
		s.OtherRequests.Add(1)
	}
}

// RecordLyricHit counts lyrics found by the given source
func (s *Stats) RecordLyricHit(source string) {
	counter, _ := s.lyricHits.LoadOrStore(source, &atomic.Int64{})
	counter.(*atomic.Int64).Add(1)
}

// RecordLyricMiss counts a lookup where every provider came back empty
func (s *Stats) RecordLyricMiss() {
	s.LyricsNotFound.Add(1)
}

// LyricHitsSnapshot returns the per-source hit counts
func (s *Stats) LyricHitsSnapshot() map[string]int64 {
	out := make(map[string]int64)
	s.lyricHits.Range(func(k, v interface{}) bool {
		out[k.(string)] = v.(*atomic.Int64).Load()
		return true
	})
	return out
}

// RecordStory counts a story outcome: "generated", "failed" or "skipped"
func (s *Stats) RecordStory(outcome string) {
	switch outcome {
	case "generated":
		s.StoriesOK.Add(1)
	case "failed":
		s.StoriesFailed.Add(1)
	case "skipped":
		s.StoriesSkipped.Add(1)
	}
}

// RecordSong counts a processed song; reused means it came from the store
func (s *Stats) RecordSong(reused bool) {
	if reused {
		s.SongsReused.Add(1)
	} else {
		s.SongsProcessed.Add(1)
	}
}

// RecordRateLimitExceeded counts a rejected (429) request
func (s *Stats) RecordRateLimitExceeded() {
	s.RateLimitExceeded.Add(1)
}

// RecordStatusCode records a response status code
func (s *Stats) RecordStatusCode(code int) {
	switch {
	case code >= 200 && code < 300:
		s.Status2xx.Add(1)
	case code >= 400 && code < 500:
		s.Status4xx.Add(1)
	case code >= 500:
		s.Status5xx.Add(1)
	}
}

// RecordResponseTime records a response time for the given path
func (s *Stats) RecordResponseTime(duration time.Duration, path string) {
	us := duration.Microseconds()

	s.totalResponseTime.Add(us)
	s.responseCount.Add(1)

	for {
		current := s.minResponseTime.Load()
		if us >= current || s.minResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
	for {
		current := s.maxResponseTime.Load()
		if us <= current || s.maxResponseTime.CompareAndSwap(current, us) {
			break
		}
	}

	if EndpointFor(path) == EndpointProcess {
		s.processResponseTime.Add(us)
		s.processResponseCount.Add(1)
	}
}

// Uptime returns the server uptime
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// LyricsHitRate returns the share of lookups that found lyrics, as a percentage
func (s *Stats) LyricsHitRate() float64 {
	var hits int64
	for _, n := range s.LyricHitsSnapshot() {
		hits += n
	}
	total := hits + s.LyricsNotFound.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

func avg(total, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total/count) * time.Microsecond
}

// AvgResponseTime returns the average response time
func (s *Stats) AvgResponseTime() time.Duration {
	return avg(s.totalResponseTime.Load(), s.responseCount.Load())
}

// AvgProcessResponseTime returns the average time to answer /api/process-song
func (s *Stats) AvgProcessResponseTime() time.Duration {
	return avg(s.processResponseTime.Load(), s.processResponseCount.Load())
}

// MinResponseTime returns the minimum response time
func (s *Stats) MinResponseTime() time.Duration {
	min := s.minResponseTime.Load()
	if min == math.MaxInt64 {
		return 0
	}
	return time.Duration(min) * time.Microsecond
}

// MaxResponseTime returns the maximum response time
func (s *Stats) MaxResponseTime() time.Duration {
	return time.Duration(s.maxResponseTime.Load()) * time.Microsecond
}

// Snapshot returns a point-in-time snapshot of all stats
func (s *Stats) Snapshot() map[string]interface{} {
	uptime := s.Uptime()

	return map[string]interface{}{
		"server": map[string]interface{}{
			"start_time":     s.StartTime.Format(time.RFC3339),
			"uptime":         uptime.String(),
			"uptime_seconds": int64(uptime.Seconds()),
		},
		"requests": map[string]interface{}{
			"total":   s.TotalRequests.Load(),
			"process": s.ProcessRequests.Load(),
			"songs":   s.SongsRequests.Load(),
			"lyrics":  s.LyricsRequests.Load(),
			"color":   s.ColorRequests.Load(),
			"ops":     s.OpsRequests.Load(),
			"health":  s.HealthRequests.Load(),
			"other":   s.OtherRequests.Load(),
		},
		"songs": map[string]interface{}{
			"processed": s.SongsProcessed.Load(),
			"reused":    s.SongsReused.Load(),
		},
		"lyrics": map[string]interface{}{
			"hits_by_source": s.LyricHitsSnapshot(),
			"not_found":      s.LyricsNotFound.Load(),
			"hit_rate":       s.LyricsHitRate(),
		},
		"stories": map[string]interface{}{
			"generated": s.StoriesOK.Load(),
			"failed":    s.StoriesFailed.Load(),
			"skipped":   s.StoriesSkipped.Load(),
		},
		"rate_limiting": map[string]interface{}{
			"exceeded": s.RateLimitExceeded.Load(),
		},
		"responses": map[string]interface{}{
			"2xx": s.Status2xx.Load(),
			"4xx": s.Status4xx.Load(),
			"5xx": s.Status5xx.Load(),
		},
		"response_times": map[string]interface{}{
			"avg":         s.AvgResponseTime().String(),
			"min":         s.MinResponseTime().String(),
			"max":         s.MaxResponseTime().String(),
			"avg_process": s.AvgProcessResponseTime().String(),
		},
	}
}
