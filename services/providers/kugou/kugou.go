package kugou

import (
	"context"
	"fmt"
	"net/url"
	"songstory-api-go/logcolors"
	"songstory-api-go/services/providers"

	log "github.com/sirupsen/logrus"
)

const (
	// ProviderName is the identifier for the Kugou provider
	ProviderName = "kugou"

	songSearchURL = "https://songsearch.kugou.com/song_search_v2"
	playDataURL   = "https://wwwapi.kugou.com/yy/index.php"
)

// Endpoints holds the two Kugou URLs
type Endpoints struct {
	Search   string
	PlayData string
}

// DefaultEndpoints are the production Kugou URLs
var DefaultEndpoints = Endpoints{Search: songSearchURL, PlayData: playDataURL}

// KugouProvider implements the providers.Provider interface for Kugou lyrics
type KugouProvider struct {
	fetcher   *providers.Fetcher
	endpoints Endpoints
}

// NewProvider creates a new Kugou provider instance
func NewProvider(fetcher *providers.Fetcher, endpoints Endpoints) *KugouProvider {
	return &KugouProvider{fetcher: fetcher, endpoints: endpoints}
}

// Name returns the provider identifier
func (p *KugouProvider) Name() string {
	return ProviderName
}

// Source returns the result label
func (p *KugouProvider) Source() providers.Source {
	return providers.SourceKugou
}

// Search finds the first song by keyword, then reads lyrics and display
// names from its play data.
func (p *KugouProvider) Search(ctx context.Context, q providers.Query) *providers.LyricsResult {
	log.Infof("%s %s Searching: %s", logcolors.LogSearch, logcolors.Provider(ProviderName), q)

	result, err := p.lookup(ctx, q)
	if err != nil {
		log.Warnf("%s %s %v", logcolors.LogWarning, logcolors.Provider(ProviderName),
			providers.NewProviderError(ProviderName, "lookup failed", err))
		return nil
	}
	if result == nil {
		log.Infof("%s %s No lyrics for: %s", logcolors.LogNoMatch, logcolors.Provider(ProviderName), q)
	}
	return result
}

// SearchSongs returns the raw search hits for a query
func (p *KugouProvider) SearchSongs(ctx context.Context, q providers.Query) ([]SongInfo, error) {
	params := url.Values{}
	params.Set("keyword", q.String())
	params.Set("page", "1")
	params.Set("pagesize", "10")

	var search SongSearchResponse
	if err := p.fetcher.GetJSON(ctx, p.endpoints.Search+"?"+params.Encode(), providers.DefaultHeaders(), &search); err != nil {
		return nil, fmt.Errorf("song search: %w", err)
	}
	if search.Data == nil {
		return nil, nil
	}
	return search.Data.Lists, nil
}

func (p *KugouProvider) lookup(ctx context.Context, q providers.Query) (*providers.LyricsResult, error) {
	songs, err := p.SearchSongs(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(songs) == 0 {
		return nil, nil
	}

	song := songs[0]
	if song.FileHash == "" {
		return nil, nil
	}

	hashPreview := song.FileHash
	if len(hashPreview) > 16 {
		hashPreview = hashPreview[:16]
	}
	log.Debugf("%s %s First hit: %s - %s (hash: %s...)", logcolors.LogLyrics, logcolors.Provider(ProviderName),
		song.SongName, song.SingerName, hashPreview)

	// album_id is sent even when empty; the endpoint tolerates it
	requestURL := fmt.Sprintf("%s?r=play/getdata&hash=%s&album_id=%s",
		p.endpoints.PlayData, url.QueryEscape(song.FileHash), url.QueryEscape(song.AlbumID.String()))

	var play PlayDataResponse
	if err := p.fetcher.GetJSON(ctx, requestURL, providers.DefaultHeaders(), &play); err != nil {
		return nil, fmt.Errorf("play data for hash %s: %w", hashPreview, err)
	}
	if play.Data == nil || play.Data.Lyrics == "" {
		return nil, nil
	}

	cleaned := providers.StripTimeTags(play.Data.Lyrics)
	if cleaned == "" {
		return nil, nil
	}

	log.Infof("%s %s Found: %s - %s", logcolors.LogMatch, logcolors.Provider(ProviderName),
		play.Data.SongName, play.Data.AuthorName)

	return providers.NewLyricsResult(providers.SourceKugou, play.Data.SongName, play.Data.AuthorName, cleaned), nil
}
