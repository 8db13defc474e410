package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"songstory-api-go/logcolors"
	"songstory-api-go/services/providers"
	"songstory-api-go/services/songs"
	"songstory-api-go/stats"
	"songstory-api-go/store"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

func processSong(w http.ResponseWriter, r *http.Request) {
	var req ProcessSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileName == "" {
		Respond(w, r).Error(http.StatusBadRequest, songs.ErrMissingFileName.Error())
		return
	}

	result, err := songService.Process(r.Context(), req.FileName)
	switch {
	case errors.Is(err, songs.ErrMissingFileName), errors.Is(err, songs.ErrBadFileName):
		Respond(w, r).Error(http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, context.DeadlineExceeded):
		log.Warnf("%s Timed out processing %q: %v", logcolors.LogProcess, req.FileName, err)
		Respond(w, r).Error(http.StatusGatewayTimeout, err.Error())
		return
	case err != nil:
		log.Errorf("%s Error processing %q: %v", logcolors.LogProcess, req.FileName, err)
		Respond(w, r).Error(http.StatusInternalServerError, err.Error())
		return
	}

	status := "NEW"
	if result.Existing {
		status = "HIT"
	}
	Respond(w, r).SetStoreStatus(status).JSON(result)
}

func listSongs(w http.ResponseWriter, r *http.Request) {
	list, err := songStore.ListSongs()
	if err != nil {
		log.Errorf("%s Error fetching songs: %v", logcolors.LogStore, err)
		Respond(w, r).Error(http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]SongSummary, 0, len(list))
	for _, s := range list {
		out = append(out, SongSummary{
			ID:         s.ID,
			SongName:   s.SongName,
			ArtistName: s.ArtistName,
			FileName:   s.FileName,
			CreatedAt:  s.CreatedAt.Format(timeLayout),
		})
	}
	Respond(w, r).JSON(out)
}

func getSong(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		Respond(w, r).Error(http.StatusNotFound, "Song not found")
		return
	}

	rec, err := songStore.GetSong(id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		Respond(w, r).Error(http.StatusNotFound, "Song not found")
		return
	case err != nil:
		log.Errorf("%s Error fetching song %d: %v", logcolors.LogStore, id, err)
		Respond(w, r).Error(http.StatusInternalServerError, err.Error())
		return
	}
	Respond(w, r).JSON(newSongDetail(rec))
}

func lyricsQuery(r *http.Request) (song, artist string, ok bool) {
	q := r.URL.Query()
	song = strings.TrimSpace(q.Get("song"))
	artist = strings.TrimSpace(q.Get("artist"))
	return song, artist, song != ""
}

func newLyricsResponse(res providers.LyricsResult) LyricsResponse {
	return LyricsResponse{
		Title:     res.Title,
		Artist:    res.Artist,
		Source:    res.Source.Label(),
		Lyrics:    res.Lyrics,
		Formatted: res.Formatted,
		Found:     res.Found,
	}
}

// getLyrics runs the shuffled fallback lookup across every provider
func getLyrics(w http.ResponseWriter, r *http.Request) {
	song, artist, ok := lyricsQuery(r)
	if !ok {
		Respond(w, r).Error(http.StatusBadRequest, "Missing song parameter")
		return
	}

	res, err := resolver.Resolve(r.Context(), song, artist)
	if err != nil {
		Respond(w, r).Error(http.StatusGatewayTimeout, err.Error())
		return
	}
	if res.Found {
		stats.Get().RecordLyricHit(res.Source.Label())
	} else {
		stats.Get().RecordLyricMiss()
	}
	Respond(w, r).SetSource(res.Source.String()).JSON(newLyricsResponse(res))
}

func listProviders(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{"providers": registry.List()})
}

// getProviderLyrics queries a single provider, with no fallback
func getProviderLyrics(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	p, err := registry.Get(name)
	if err != nil {
		Respond(w, r).Error(http.StatusNotFound, err.Error())
		return
	}

	song, artist, ok := lyricsQuery(r)
	if !ok {
		Respond(w, r).Error(http.StatusBadRequest, "Missing song parameter")
		return
	}

	res := p.Search(r.Context(), providers.Query{Song: song, Artist: artist})
	if res == nil {
		Respond(w, r).SetSource(name).Error(http.StatusNotFound, "No lyrics found")
		return
	}
	Respond(w, r).SetSource(name).JSON(newLyricsResponse(*res))
}
