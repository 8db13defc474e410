package qqmusic

import (
	"context"
	"fmt"
	"net/url"
	"songstory-api-go/logcolors"
	"songstory-api-go/services/providers"

	log "github.com/sirupsen/logrus"
)

const (
	// ProviderName is the identifier for the QQ Music provider
	ProviderName = "qqmusic"

	searchURL = "https://c.y.qq.com/soso/fcgi-bin/client_search_cp"
	lyricURL  = "https://c.y.qq.com/lyric/fcgi-bin/fcg_query_lyric_new.fcg"

	// the lyric endpoint rejects requests without this referer
	referer = "https://y.qq.com/"
)

// Endpoints holds the two QQ Music URLs
type Endpoints struct {
	Search string
	Lyric  string
}

// DefaultEndpoints are the production QQ Music URLs
var DefaultEndpoints = Endpoints{Search: searchURL, Lyric: lyricURL}

// QQMusicProvider implements providers.Provider for QQ Music
type QQMusicProvider struct {
	fetcher   *providers.Fetcher
	endpoints Endpoints
}

// NewProvider creates a QQ Music provider
func NewProvider(fetcher *providers.Fetcher, endpoints Endpoints) *QQMusicProvider {
	return &QQMusicProvider{fetcher: fetcher, endpoints: endpoints}
}

func (p *QQMusicProvider) Name() string {
	return ProviderName
}

func (p *QQMusicProvider) Source() providers.Source {
	return providers.SourceQQMusic
}

// Search looks up the first matching song by songmid and returns its cleaned lyrics
func (p *QQMusicProvider) Search(ctx context.Context, q providers.Query) *providers.LyricsResult {
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

func (p *QQMusicProvider) lookup(ctx context.Context, q providers.Query) (*providers.LyricsResult, error) {
	params := url.Values{}
	params.Set("w", q.String())
	params.Set("format", "json")
	params.Set("p", "1")
	params.Set("n", "10")

	var search SearchResponse
	if err := p.fetcher.GetJSON(ctx, p.endpoints.Search+"?"+params.Encode(), providers.DefaultHeaders(), &search); err != nil {
		return nil, fmt.Errorf("song search: %w", err)
	}
	if search.Data == nil || search.Data.Song == nil || len(search.Data.Song.List) == 0 {
		return nil, nil
	}

	song := search.Data.Song.List[0]
	if song.SongMID == "" || len(song.Singer) == 0 {
		return nil, nil
	}

	params = url.Values{}
	params.Set("songmid", song.SongMID)
	params.Set("format", "json")
	params.Set("nobase64", "1")

	header := providers.DefaultHeaders()
	header.Set("Referer", referer)

	var lyric LyricResponse
	if err := p.fetcher.GetJSON(ctx, p.endpoints.Lyric+"?"+params.Encode(), header, &lyric); err != nil {
		return nil, fmt.Errorf("lyric fetch for songmid %s: %w", song.SongMID, err)
	}
	if lyric.Lyric == nil {
		return nil, nil
	}

	cleaned := providers.CleanEntityLyrics(*lyric.Lyric)
	if cleaned == "" {
		return nil, nil
	}

	log.Infof("%s %s Found: %s - %s (mid: %s)", logcolors.LogMatch, logcolors.Provider(ProviderName),
		song.SongName, song.Singer[0].Name, song.SongMID)

	return providers.NewLyricsResult(providers.SourceQQMusic, song.SongName, song.Singer[0].Name, cleaned), nil
}
