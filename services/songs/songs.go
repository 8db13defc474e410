// Package songs turns an audio file name into stored lyrics, keywords and a
// generated story.
package songs

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"songstory-api-go/logcolors"
	"songstory-api-go/services/keywords"
	"songstory-api-go/services/providers"
	"songstory-api-go/services/story"
	"songstory-api-go/stats"
	"songstory-api-go/store"

	log "github.com/sirupsen/logrus"
)

const (
	// NoKeywordsStory is returned when the lyrics produced no keywords
	NoKeywordsStory = "无法生成故事，因为没有足够的关键词"

	storyErrorPrefix = "生成故事时出错: "

	// DefaultTimeout bounds one pipeline run: four provider lookups plus a story
	DefaultTimeout = 2 * time.Minute
)

var (
	ErrMissingFileName = errors.New("Missing file_name parameter")
	ErrBadFileName     = errors.New(`File name format not recognized (expected: "Artist - Song.mp3")`)

	fileNamePattern = regexp.MustCompile(`^(.+?)\s*-\s*(.+?)\.mp3$`)
)

// ParseFileName splits "Artist - Song.mp3" into artist and song
func ParseFileName(fileName string) (artist, song string, err error) {
	if fileName == "" {
		return "", "", ErrMissingFileName
	}
	m := fileNamePattern.FindStringSubmatch(fileName)
	if m == nil {
		return "", "", ErrBadFileName
	}
	artist, song = strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	if artist == "" || song == "" {
		return "", "", ErrBadFileName
	}
	return artist, song, nil
}

// LyricsResolver finds lyrics. An error means the lookup was cut short and
// the result says nothing about the song.
type LyricsResolver interface {
	Resolve(ctx context.Context, song, artist string) (providers.LyricsResult, error)
}

// StoryGenerator writes a story from keywords
type StoryGenerator interface {
	Generate(ctx context.Context, keywords []string) (string, error)
}

// KeywordExtractor ranks lyric keywords
type KeywordExtractor interface {
	Top(text string, n int) []keywords.Keyword
}

// Repository persists processed songs
type Repository interface {
	FindByArtistSong(artist, song string) (uint64, bool)
	SaveSong(song store.Song, keywords []store.Keyword, story *store.Story) (store.Song, error)
	GetSong(id uint64) (*store.Record, error)
}

// Result is the outcome of processing one file name
type Result struct {
	SongID     uint64   `json:"song_id"`
	SongName   string   `json:"song_name"`
	ArtistName string   `json:"artist_name"`
	Lyrics     string   `json:"lyrics"`
	Keywords   []string `json:"keywords"`
	Story      *string  `json:"story"`

	// Existing is true when the song was already stored
	Existing bool `json:"-"`
}

// Config wires a Service; Generator may be nil to disable story generation
type Config struct {
	Resolver  LyricsResolver
	Extractor KeywordExtractor
	Generator StoryGenerator
	Store     Repository
	Stats     *stats.Stats
	TopN      int
	Timeout   time.Duration
}

type inFlight struct {
	wg     sync.WaitGroup
	result *Result
	err    error
}

// Service runs the song pipeline. Identical concurrent requests share one
// computation.
type Service struct {
	resolver  LyricsResolver
	extractor KeywordExtractor
	generator StoryGenerator
	store     Repository
	stats     *stats.Stats
	topN      int
	timeout   time.Duration

	inFlight sync.Map // store.IndexKey -> *inFlight
}

// NewService creates a Service, defaulting TopN to keywords.DefaultTopN,
// Timeout to DefaultTimeout and Stats to the global instance.
func NewService(cfg Config) *Service {
	if cfg.TopN <= 0 {
		cfg.TopN = keywords.DefaultTopN
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.Get()
	}
	return &Service{
		resolver:  cfg.Resolver,
		extractor: cfg.Extractor,
		generator: cfg.Generator,
		store:     cfg.Store,
		stats:     cfg.Stats,
		topN:      cfg.TopN,
		timeout:   cfg.Timeout,
	}
}

// Process parses fileName and returns the stored song, or resolves, analyses
// and persists it when it is new. The pipeline keeps running when ctx is
// cancelled, since waiting callers share its result; it is bounded by the
// service timeout instead.
func (s *Service) Process(ctx context.Context, fileName string) (*Result, error) {
	artist, song, err := ParseFileName(fileName)
	if err != nil {
		return nil, err
	}

	key := store.IndexKey(artist, song)
	call := &inFlight{}
	call.wg.Add(1)
	if existing, loaded := s.inFlight.LoadOrStore(key, call); loaded {
		log.Infof("%s Waiting for in-flight processing of %s - %s", logcolors.LogProcess, artist, song)
		other := existing.(*inFlight)
		other.wg.Wait()
		return other.result, other.err
	}

	defer func() {
		s.inFlight.Delete(key)
		call.wg.Done()
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	call.result, call.err = s.process(ctx, fileName, artist, song)
	return call.result, call.err
}

func (s *Service) process(ctx context.Context, fileName, artist, song string) (*Result, error) {
	if id, ok := s.store.FindByArtistSong(artist, song); ok {
		rec, err := s.store.GetSong(id)
		if err == nil {
			log.Infof("%s %s - %s already processed (id %d)", logcolors.LogProcess, artist, song, id)
			s.stats.RecordSong(true)
			return fromRecord(rec, s.topN), nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	log.Infof("%s Searching lyrics for: %s by %s", logcolors.LogProcess, song, artist)
	lyrics, err := s.resolver.Resolve(ctx, song, artist)
	if err != nil {
		// nothing is stored: an interrupted lookup is not a "not found"
		return nil, fmt.Errorf("lyrics lookup for %s - %s interrupted: %w", artist, song, err)
	}
	if lyrics.Found {
		s.stats.RecordLyricHit(lyrics.Source.Label())
	} else {
		s.stats.RecordLyricMiss()
	}

	var ranked []keywords.Keyword
	if lyrics.Found {
		ranked = s.extractor.Top(lyrics.Lyrics, s.topN)
		log.Infof("%s %d keywords for %s - %s: %v", logcolors.LogKeywords, len(ranked), artist, song, keywords.Words(ranked))
	}

	words := keywords.Words(ranked)
	storyText, persisted := s.story(ctx, words)

	stored := make([]store.Keyword, 0, len(ranked))
	for _, k := range ranked {
		stored = append(stored, store.Keyword{Word: k.Word, Frequency: k.Count})
	}

	saved, err := s.store.SaveSong(store.Song{
		SongName:   song,
		ArtistName: artist,
		FileName:   fileName,
		Lyrics:     lyrics.Lyrics,
	}, stored, persisted)
	if err != nil {
		log.Errorf("%s Error saving %s - %s: %v", logcolors.LogProcess, artist, song, err)
		return nil, err
	}
	s.stats.RecordSong(false)

	return &Result{
		SongID:     saved.ID,
		SongName:   song,
		ArtistName: artist,
		Lyrics:     lyrics.Lyrics,
		Keywords:   words,
		Story:      &storyText,
	}, nil
}

// story returns the text to show and the story to persist, if any
func (s *Service) story(ctx context.Context, words []string) (string, *store.Story) {
	if len(words) == 0 {
		s.stats.RecordStory("skipped")
		return NoKeywordsStory, nil
	}
	if s.generator == nil {
		s.stats.RecordStory("skipped")
		return storyErrorPrefix + "story generation is disabled", nil
	}

	text, err := s.generator.Generate(ctx, words)
	if err != nil {
		s.stats.RecordStory("failed")
		log.Errorf("%s Error generating story: %v", logcolors.LogStory, err)
		return storyErrorPrefix + cause(err), nil
	}
	s.stats.RecordStory("generated")
	return text, &store.Story{Content: text}
}

func cause(err error) string {
	var genErr *story.GenerationError
	if errors.As(err, &genErr) {
		return genErr.Cause
	}
	return err.Error()
}

func fromRecord(rec *store.Record, topN int) *Result {
	words := make([]string, 0, topN)
	for i, k := range rec.Keywords {
		if i == topN {
			break
		}
		words = append(words, k.Word)
	}
	res := &Result{
		SongID:     rec.ID,
		SongName:   rec.SongName,
		ArtistName: rec.ArtistName,
		Lyrics:     rec.Lyrics,
		Keywords:   words,
		Existing:   true,
	}
	if rec.Story != nil {
		content := rec.Story.Content
		res.Story = &content
	}
	return res
}
