package main

import (
	"songstory-api-go/services/colormatch"
	"songstory-api-go/store"
)

type contextKey string

const rateLimitTypeKey contextKey = "rateLimitType"

// ProcessSongRequest is the body of POST /api/process-song
type ProcessSongRequest struct {
	FileName string `json:"file_name"`
}

// SongSummary is one entry of GET /api/songs
type SongSummary struct {
	ID         uint64 `json:"id"`
	SongName   string `json:"song_name"`
	ArtistName string `json:"artist_name"`
	FileName   string `json:"file_name"`
	CreatedAt  string `json:"created_at"`
}

// SongDetail is the body of GET /api/songs/{id}
type SongDetail struct {
	ID         uint64   `json:"id"`
	SongName   string   `json:"song_name"`
	ArtistName string   `json:"artist_name"`
	FileName   string   `json:"file_name"`
	Lyrics     string   `json:"lyrics"`
	CreatedAt  string   `json:"created_at"`
	Keywords   []string `json:"keywords"`
	Story      *string  `json:"story"`
}

func newSongDetail(rec *store.Record) SongDetail {
	words := make([]string, 0, len(rec.Keywords))
	for _, k := range rec.Keywords {
		words = append(words, k.Word)
	}
	d := SongDetail{
		ID:         rec.ID,
		SongName:   rec.SongName,
		ArtistName: rec.ArtistName,
		FileName:   rec.FileName,
		Lyrics:     rec.Lyrics,
		CreatedAt:  rec.CreatedAt.Format(timeLayout),
		Keywords:   words,
	}
	if rec.Story != nil {
		content := rec.Story.Content
		d.Story = &content
	}
	return d
}

const timeLayout = "2006-01-02 15:04:05"

// LyricsResponse is the body of the lyric lookup endpoints
type LyricsResponse struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Source    string `json:"source"`
	Lyrics    string `json:"lyrics"`
	Formatted string `json:"formatted"`
	Found     bool   `json:"found"`
}

// ColorVector wraps the RGB values of a picture
type ColorVector struct {
	Values []float64 `json:"values"`
}

// MatchRequest is the body of POST /match
type MatchRequest struct {
	ColorVector ColorVector       `json:"color_vector"`
	MusicItems  []colormatch.Item `json:"music_items"`
}

// MatchResponse is the body returned by POST /match
type MatchResponse struct {
	MatchedItems []colormatch.Result `json:"matched_items"`
}

// AnalyzeColorsRequest is the body of POST /analyze-colors
type AnalyzeColorsRequest struct {
	Colors map[string][]float64 `json:"colors"`
}

// ColorVariationsRequest is the body of POST /color-variations
type ColorVariationsRequest struct {
	BaseColor []float64 `json:"base_color"`
	Count     int       `json:"count"`
}
