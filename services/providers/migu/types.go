package migu

import "songstory-api-go/services/providers"

// SearchResponse is the body of scr_search_tag
type SearchResponse struct {
	Success bool    `json:"success"`
	PgtNum  int     `json:"pgt"`
	Musics  []Music `json:"musics"`
}

// Music is one search hit
type Music struct {
	ID          providers.FlexString `json:"id"`
	CopyrightID providers.FlexString `json:"copyrightId"`
	Title       string               `json:"title"`
	SongName    string               `json:"songName"`
	Singer      string               `json:"singer"`
	AlbumName   string               `json:"albumName"`
}

// LyricResponse is the body of audioPlayer/getLyric
type LyricResponse struct {
	ReturnCode string `json:"returnCode"`
	Msg        string `json:"msg"`
	Lyric      string `json:"lyric"`
}
