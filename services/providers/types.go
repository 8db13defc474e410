package providers

import "fmt"

// Source identifies the platform a lyrics result came from
type Source int

const (
	SourceUnknown Source = iota
	SourceNetease
	SourceQQMusic
	SourceKugou
	SourceMigu
)

// Label returns the display label used in formatted results and API responses
func (s Source) Label() string {
	switch s {
	case SourceNetease:
		return "网易云音乐"
	case SourceQQMusic:
		return "QQ音乐"
	case SourceKugou:
		return "酷狗音乐"
	case SourceMigu:
		return "咪咕音乐"
	default:
		return "未知"
	}
}

// String returns the provider identifier ("netease", "qqmusic", ...)
func (s Source) String() string {
	switch s {
	case SourceNetease:
		return "netease"
	case SourceQQMusic:
		return "qqmusic"
	case SourceKugou:
		return "kugou"
	case SourceMigu:
		return "migu"
	default:
		return "unknown"
	}
}

const (
	// NotFoundLyrics is the lyrics text of the terminal "not found" result
	NotFoundLyrics = "未找到歌词"

	// NotFoundFormatted is the formatted text of the terminal "not found" result
	NotFoundFormatted = "未找到歌词。请尝试提供歌手名称以获得更准确的结果。"

	// UnknownArtist replaces an absent artist name in the "not found" result
	UnknownArtist = "未知"
)

// Query is the song lookup sent to every provider
type Query struct {
	Song   string
	Artist string
}

// String combines song and artist into the provider search string
func (q Query) String() string {
	if q.Artist != "" {
		return q.Song + " " + q.Artist
	}
	return q.Song
}

// LyricsResult is the normalized result of a provider lookup.
// Values are never modified after construction.
type LyricsResult struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Source    Source `json:"-"`
	Lyrics    string `json:"lyrics"`
	Formatted string `json:"formatted"`

	// Found is false only for the resolver's terminal "not found" result
	Found bool `json:"found"`
}

// NewLyricsResult builds a found result; lyrics must already be tag-free
func NewLyricsResult(source Source, title, artist, lyrics string) *LyricsResult {
	return &LyricsResult{
		Title:     title,
		Artist:    artist,
		Source:    source,
		Lyrics:    lyrics,
		Formatted: FormatLyrics(source, title, artist, lyrics),
		Found:     true,
	}
}

// NotFound builds the terminal result returned when every provider came back empty
func NotFound(q Query) LyricsResult {
	artist := q.Artist
	if artist == "" {
		artist = UnknownArtist
	}
	return LyricsResult{
		Title:     q.Song,
		Artist:    artist,
		Source:    SourceUnknown,
		Lyrics:    NotFoundLyrics,
		Formatted: NotFoundFormatted,
		Found:     false,
	}
}

// FormatLyrics renders the human readable composite of a result
func FormatLyrics(source Source, title, artist, lyrics string) string {
	return fmt.Sprintf("《%s》 - %s\n来源: %s\n\n%s", title, artist, source.Label(), lyrics)
}

// ProviderError represents an error from a provider with additional context
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Provider + ": " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError
func NewProviderError(provider, message string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Message:  message,
		Err:      err,
	}
}
