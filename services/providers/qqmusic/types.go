package qqmusic

import "songstory-api-go/services/providers"

// SearchResponse is the body of client_search_cp
type SearchResponse struct {
	Code int `json:"code"`
	Data *struct {
		Song *struct {
			CurNum  int    `json:"curnum"`
			TotalNu int    `json:"totalnum"`
			List    []Song `json:"list"`
		} `json:"song"`
	} `json:"data"`
}

// Song is one search hit
type Song struct {
	SongID   providers.FlexString `json:"songid"`
	SongMID  string               `json:"songmid"`
	SongName string               `json:"songname"`
	AlbumMID string               `json:"albummid"`
	Singer   []struct {
		MID  string `json:"mid"`
		Name string `json:"name"`
	} `json:"singer"`
}

// LyricResponse is the body of fcg_query_lyric_new with nobase64=1
type LyricResponse struct {
	RetCode int     `json:"retcode"`
	Code    int     `json:"code"`
	Lyric   *string `json:"lyric"`
	Trans   string  `json:"trans"`
}
