package netease

// SearchResponse is the body of the NetEase song search endpoint
type SearchResponse struct {
	Code   int `json:"code"`
	Result *struct {
		SongCount int    `json:"songCount"`
		Songs     []Song `json:"songs"`
	} `json:"result"`
}

// Song is one search hit
type Song struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"album"`
	Duration int `json:"duration"`
}

// LyricResponse is the body of the NetEase lyric endpoint
type LyricResponse struct {
	Code int `json:"code"`
	Lrc  *struct {
		Version int     `json:"version"`
		Lyric   *string `json:"lyric"`
	} `json:"lrc"`
	Tlyric *struct {
		Lyric string `json:"lyric"`
	} `json:"tlyric"`
}
