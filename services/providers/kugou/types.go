package kugou

import "songstory-api-go/services/providers"

// SongSearchResponse is the body of song_search_v2
type SongSearchResponse struct {
	Status  int    `json:"status"`
	ErrCode int    `json:"error_code"`
	ErrMsg  string `json:"error_msg"`
	Data    *struct {
		Page     int        `json:"page"`
		PageSize int        `json:"pagesize"`
		Total    int        `json:"total"`
		Lists    []SongInfo `json:"lists"`
	} `json:"data"`
}

// SongInfo is one search hit; the hash and album id key the play data lookup
type SongInfo struct {
	SongName   string               `json:"SongName"`
	SingerName string               `json:"SingerName"`
	FileHash   string               `json:"FileHash"`
	AlbumID    providers.FlexString `json:"AlbumID"`
	AlbumName  string               `json:"AlbumName"`
	Duration   int                  `json:"Duration"` // seconds
}

// PlayDataResponse is the body of play/getdata, which carries the LRC text
type PlayDataResponse struct {
	Status  int `json:"status"`
	ErrCode int `json:"err_code"`
	Data    *struct {
		Hash       string `json:"hash"`
		SongName   string `json:"song_name"`
		AuthorName string `json:"author_name"`
		AlbumName  string `json:"album_name"`
		Lyrics     string `json:"lyrics"`
		Timelength int    `json:"timelength"` // milliseconds
	} `json:"data"`
}
