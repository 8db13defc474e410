package migu

import (
	"context"
	"fmt"
	"net/url"
	"songstory-api-go/logcolors"
	"songstory-api-go/services/providers"

	log "github.com/sirupsen/logrus"
)

const (
	// ProviderName is the identifier for the Migu provider
	ProviderName = "migu"

	searchURL = "https://m.music.migu.cn/migu/remoting/scr_search_tag"
	lyricURL  = "https://music.migu.cn/v3/api/music/audioPlayer/getLyric"
)

// Endpoints holds the two Migu URLs
type Endpoints struct {
	Search string
	Lyric  string
}

// DefaultEndpoints are the production Migu URLs
var DefaultEndpoints = Endpoints{Search: searchURL, Lyric: lyricURL}

// MiguProvider implements providers.Provider for Migu Music
type MiguProvider struct {
	fetcher   *providers.Fetcher
	endpoints Endpoints
}

func NewProvider(fetcher *providers.Fetcher, endpoints Endpoints) *MiguProvider {
	return &MiguProvider{fetcher: fetcher, endpoints: endpoints}
}

func (p *MiguProvider) Name() string {
	return ProviderName
}

func (p *MiguProvider) Source() providers.Source {
	return providers.SourceMigu
}

// Search resolves the first hit's copyright id and fetches its lyrics
func (p *MiguProvider) Search(ctx context.Context, q providers.Query) *providers.LyricsResult {
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

func (p *MiguProvider) lookup(ctx context.Context, q providers.Query) (*providers.LyricsResult, error) {
	params := url.Values{}
	params.Set("keyword", q.String())
	params.Set("type", "2")
	params.Set("rows", "20")
	params.Set("pgc", "1")

	var search SearchResponse
	if err := p.fetcher.GetJSON(ctx, p.endpoints.Search+"?"+params.Encode(), providers.DefaultHeaders(), &search); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(search.Musics) == 0 {
		return nil, nil
	}

	music := search.Musics[0]
	if music.CopyrightID == "" {
		return nil, nil
	}

	lyricParams := url.Values{}
	lyricParams.Set("copyrightId", music.CopyrightID.String())

	var lyric LyricResponse
	if err := p.fetcher.GetJSON(ctx, p.endpoints.Lyric+"?"+lyricParams.Encode(), providers.DefaultHeaders(), &lyric); err != nil {
		return nil, fmt.Errorf("lyric for copyright id %s: %w", music.CopyrightID, err)
	}
	if lyric.Lyric == "" {
		return nil, nil
	}

	cleaned := providers.StripTimeTags(lyric.Lyric)
	if cleaned == "" {
		return nil, nil
	}

	log.Infof("%s %s Found: %s - %s", logcolors.LogMatch, logcolors.Provider(ProviderName), music.Title, music.Singer)
	return providers.NewLyricsResult(providers.SourceMigu, music.Title, music.Singer, cleaned), nil
}
