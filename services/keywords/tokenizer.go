package keywords

import (
	"fmt"
	"songstory-api-go/logcolors"
	"sync"
	"time"

	"github.com/go-ego/gse"
	log "github.com/sirupsen/logrus"
)

// Tokenizer splits text into words
type Tokenizer interface {
	Cut(text string) []string
}

// GseTokenizer segments Chinese text with gse's embedded dictionary
type GseTokenizer struct {
	mu  sync.Mutex
	seg gse.Segmenter
}

// NewGseTokenizer loads the embedded dictionary; this takes a moment, so
// build one at startup and share it.
func NewGseTokenizer() (*GseTokenizer, error) {
	start := time.Now()
	t := &GseTokenizer{}
	if err := t.seg.LoadDictEmbed(); err != nil {
		return nil, fmt.Errorf("failed to load segmentation dictionary: %w", err)
	}
	log.Infof("%s Segmentation dictionary loaded in %v", logcolors.LogKeywords, time.Since(start).Round(time.Millisecond))
	return t, nil
}

// Cut segments text using the HMM for unknown words
func (t *GseTokenizer) Cut(text string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seg.Cut(text, true)
}
