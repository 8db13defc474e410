package netease

import (
	"context"
	"fmt"
	"net/url"
	"songstory-api-go/logcolors"
	"songstory-api-go/services/providers"
	"strconv"

	log "github.com/sirupsen/logrus"
)

const (
	// ProviderName is the identifier for the NetEase provider
	ProviderName = "netease"

	searchURL = "https://music.163.com/api/search/get"
	lyricURL  = "https://music.163.com/api/song/lyric"
)

// Endpoints holds the two NetEase URLs; tests point them at httptest servers
type Endpoints struct {
	Search string
	Lyric  string
}

// DefaultEndpoints are the production NetEase URLs
var DefaultEndpoints = Endpoints{Search: searchURL, Lyric: lyricURL}

// NeteaseProvider implements providers.Provider for NetEase Cloud Music
type NeteaseProvider struct {
	fetcher   *providers.Fetcher
	endpoints Endpoints
}

// NewProvider creates a NetEase provider
func NewProvider(fetcher *providers.Fetcher, endpoints Endpoints) *NeteaseProvider {
	return &NeteaseProvider{fetcher: fetcher, endpoints: endpoints}
}

// Name returns the provider identifier
func (p *NeteaseProvider) Name() string {
	return ProviderName
}

// Source returns the result label
func (p *NeteaseProvider) Source() providers.Source {
	return providers.SourceNetease
}

// Search looks up the first matching song and returns its cleaned lyrics
func (p *NeteaseProvider) Search(ctx context.Context, q providers.Query) *providers.LyricsResult {
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

func (p *NeteaseProvider) lookup(ctx context.Context, q providers.Query) (*providers.LyricsResult, error) {
	params := url.Values{}
	params.Set("s", q.String())
	params.Set("type", "1")
	params.Set("limit", "10")

	var search SearchResponse
	if err := p.fetcher.GetJSON(ctx, p.endpoints.Search+"?"+params.Encode(), providers.DefaultHeaders(), &search); err != nil {
		return nil, fmt.Errorf("song search: %w", err)
	}
	if search.Result == nil || len(search.Result.Songs) == 0 {
		return nil, nil
	}

	song := search.Result.Songs[0]
	if len(song.Artists) == 0 {
		return nil, nil
	}

	params = url.Values{}
	params.Set("id", strconv.FormatInt(song.ID, 10))
	params.Set("lv", "1")
	params.Set("kv", "1")
	params.Set("tv", "-1")

	var lyric LyricResponse
	if err := p.fetcher.GetJSON(ctx, p.endpoints.Lyric+"?"+params.Encode(), providers.DefaultHeaders(), &lyric); err != nil {
		return nil, fmt.Errorf("lyric fetch for id %d: %w", song.ID, err)
	}
	if lyric.Lrc == nil || lyric.Lrc.Lyric == nil {
		return nil, nil
	}

	cleaned := providers.StripTimeTags(*lyric.Lrc.Lyric)
	if cleaned == "" {
		return nil, nil
	}

	log.Infof("%s %s Found: %s - %s (id: %d)", logcolors.LogMatch, logcolors.Provider(ProviderName),
		song.Name, song.Artists[0].Name, song.ID)

	return providers.NewLyricsResult(providers.SourceNetease, song.Name, song.Artists[0].Name, cleaned), nil
}
