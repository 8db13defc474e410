package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"songstory-api-go/logcolors"
	"songstory-api-go/utils"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

var (
	songsBucket    = []byte("songs")
	indexBucket    = []byte("song_index")
	keywordsBucket = []byte("keywords")
	storiesBucket  = []byte("stories")
)

// ErrNotFound is returned when a song id has no record
var ErrNotFound = errors.New("song not found")

// Song is one processed audio file
type Song struct {
	ID         uint64    `json:"id"`
	SongName   string    `json:"song_name"`
	ArtistName string    `json:"artist_name"`
	FileName   string    `json:"file_name"`
	Lyrics     string    `json:"lyrics"`
	Compressed bool      `json:"compressed,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Keyword is a persisted keyword with its frequency in the lyrics
type Keyword struct {
	Word      string `json:"word"`
	Frequency int    `json:"frequency"`
}

// Story is one generated story; a song may collect several over time
type Story struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is a song with its keywords (frequency desc) and its latest story
type Record struct {
	Song
	Keywords []Keyword `json:"keywords"`
	Story    *Story    `json:"story,omitempty"`
}

// Store persists songs, keywords and stories in BoltDB.
// The (artist, song) index is mirrored in memory for lookups.
type Store struct {
	mu                 sync.RWMutex // guards db; Restore swaps it
	db                 *bolt.DB
	index              sync.Map
	dbPath             string
	backupPath         string
	compressionEnabled bool
}

// New opens (or creates) the song database
func New(dbPath, backupPath string, compressionEnabled bool) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); err != nil {
		log.Infof("%s Directory %s does not exist, creating...", logcolors.LogStoreInit, dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %v", err)
	}
	if err := os.MkdirAll(backupPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %v", err)
	}

	if info, err := os.Stat(dbPath); err == nil {
		log.Infof("%s Found existing database file at: %s (size: %d bytes)", logcolors.LogStoreInit, dbPath, info.Size())
	} else {
		log.Infof("%s Creating new database file at: %s", logcolors.LogStoreInit, dbPath)
	}

	s := &Store{
		dbPath:             dbPath,
		backupPath:         backupPath,
		compressionEnabled: compressionEnabled,
	}
	if err := s.open(); err != nil {
		return nil, err
	}

	log.Infof("%s Song store initialized at %s (compression: %v)", logcolors.LogStore, dbPath, compressionEnabled)
	return s, nil
}

func (s *Store) open() error {
	db, err := bolt.Open(s.dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open store database: %v", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{songsBucket, indexBucket, keywordsBucket, storiesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create store buckets: %v", err)
	}
	s.db = db

	if err := s.loadIndex(); err != nil {
		log.Warnf("%s Failed to preload song index: %v", logcolors.LogStore, err)
	}
	return nil
}

// loadIndex mirrors the (artist, song) -> id index into memory
func (s *Store) loadIndex() error {
	s.index.Range(func(k, _ interface{}) bool {
		s.index.Delete(k)
		return true
	})

	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(indexBucket).ForEach(func(k, v []byte) error {
			s.index.Store(string(k), btoi(v))
			count++
			return nil
		})
	})
	if err != nil {
		return err
	}

	log.Infof("%s Loaded %d songs into the index", logcolors.LogStore, count)
	return nil
}

// IndexKey is the lookup key for an (artist, song) pair
func IndexKey(artist, song string) string {
	return strings.ToLower(strings.TrimSpace(artist)) + "\x00" + strings.ToLower(strings.TrimSpace(song))
}

// FindByArtistSong returns the id of an already processed song
func (s *Store) FindByArtistSong(artist, song string) (uint64, bool) {
	if v, ok := s.index.Load(IndexKey(artist, song)); ok {
		return v.(uint64), true
	}
	return 0, false
}

// SaveSong writes the song, its keywords and an optional story in one
// transaction and returns the song with its assigned id.
func (s *Store) SaveSong(song Song, keywords []Keyword, story *Story) (Song, error) {
	if song.CreatedAt.IsZero() {
		song.CreatedAt = time.Now().UTC()
	}
	lyrics := song.Lyrics

	stored := song
	if s.compressionEnabled && song.Lyrics != "" {
		compressed, err := utils.CompressString(song.Lyrics)
		if err != nil {
			return Song{}, fmt.Errorf("failed to compress lyrics: %w", err)
		}
		stored.Lyrics = compressed
		stored.Compressed = true
	}

	key := IndexKey(song.ArtistName, song.SongName)
	err := s.update(func(tx *bolt.Tx) error {
		id, err := tx.Bucket(songsBucket).NextSequence()
		if err != nil {
			return err
		}
		stored.ID = id

		if err := putJSON(tx.Bucket(songsBucket), itob(id), stored); err != nil {
			return err
		}
		if err := tx.Bucket(indexBucket).Put([]byte(key), itob(id)); err != nil {
			return err
		}
		if len(keywords) > 0 {
			if err := putJSON(tx.Bucket(keywordsBucket), itob(id), keywords); err != nil {
				return err
			}
		}
		if story != nil {
			if story.CreatedAt.IsZero() {
				story.CreatedAt = song.CreatedAt
			}
			if err := putJSON(tx.Bucket(storiesBucket), itob(id), []Story{*story}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Song{}, fmt.Errorf("failed to save song: %w", err)
	}

	s.index.Store(key, stored.ID)
	song.ID = stored.ID
	song.Lyrics = lyrics
	song.Compressed = false
	log.Infof("%s Saved song %d: %s - %s (%d keywords, story: %v)",
		logcolors.LogStore, song.ID, song.ArtistName, song.SongName, len(keywords), story != nil)
	return song, nil
}

// AddStory appends a story to an existing song
func (s *Store) AddStory(id uint64, story Story) error {
	if story.CreatedAt.IsZero() {
		story.CreatedAt = time.Now().UTC()
	}
	return s.update(func(tx *bolt.Tx) error {
		if tx.Bucket(songsBucket).Get(itob(id)) == nil {
			return ErrNotFound
		}
		b := tx.Bucket(storiesBucket)
		var stories []Story
		if data := b.Get(itob(id)); data != nil {
			if err := json.Unmarshal(data, &stories); err != nil {
				return err
			}
		}
		return putJSON(b, itob(id), append(stories, story))
	})
}

// GetSong returns the song with its keywords and latest story
func (s *Store) GetSong(id uint64) (*Record, error) {
	var rec Record
	err := s.view(func(tx *bolt.Tx) error {
		data := tx.Bucket(songsBucket).Get(itob(id))
		if data == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(data, &rec.Song); err != nil {
			return err
		}

		if data := tx.Bucket(keywordsBucket).Get(itob(id)); data != nil {
			if err := json.Unmarshal(data, &rec.Keywords); err != nil {
				return err
			}
		}

		if data := tx.Bucket(storiesBucket).Get(itob(id)); data != nil {
			var stories []Story
			if err := json.Unmarshal(data, &stories); err != nil {
				return err
			}
			if len(stories) > 0 {
				latest := stories[len(stories)-1]
				rec.Story = &latest
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if rec.Compressed {
		lyrics, err := utils.DecompressString(rec.Lyrics)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress lyrics for song %d: %w", id, err)
		}
		rec.Lyrics = lyrics
		rec.Compressed = false
	}

	sort.SliceStable(rec.Keywords, func(i, j int) bool {
		return rec.Keywords[i].Frequency > rec.Keywords[j].Frequency
	})
	return &rec, nil
}

// ListSongs returns every song, newest first. Lyrics are not included.
func (s *Store) ListSongs() ([]Song, error) {
	songs := []Song{}
	err := s.view(func(tx *bolt.Tx) error {
		c := tx.Bucket(songsBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var song Song
			if err := json.Unmarshal(v, &song); err != nil {
				log.Warnf("%s Skipping unreadable song %d: %v", logcolors.LogStore, btoi(k), err)
				continue
			}
			song.Lyrics = ""
			song.Compressed = false
			songs = append(songs, song)
		}
		return nil
	})
	return songs, err
}

// Count returns the number of indexed songs
func (s *Store) Count() int {
	n := 0
	s.index.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Close closes the database connection
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) view(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.View(fn)
}

func (s *Store) update(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Update(fn)
}

func putJSON(b *bolt.Bucket, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

// itob encodes an id big-endian so cursor order matches insertion order
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func btoi(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}
