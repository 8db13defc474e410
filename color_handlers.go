package main

import (
	"encoding/json"
	"net/http"

	"songstory-api-go/logcolors"
	"songstory-api-go/services/colormatch"

	log "github.com/sirupsen/logrus"
)

const (
	defaultVariations = 5
	maxVariations     = 100
)

func rootHandler(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]string{
		"status":  "healthy",
		"message": "Music-Picture Color Matching API is running",
	})
}

func matchMusic(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Respond(w, r).Error(http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	color, err := colormatch.ParseColor(req.ColorVector.Values)
	if err != nil {
		Respond(w, r).Error(http.StatusBadRequest, "Invalid color_vector: "+err.Error())
		return
	}

	log.Infof("%s Received match request for %d music items", logcolors.LogColorMatch, len(req.MusicItems))
	Respond(w, r).JSON(MatchResponse{MatchedItems: matcher.Match(color, req.MusicItems)})
}

func analyzeColors(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeColorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Respond(w, r).Error(http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	colors := make(map[string]colormatch.Color, len(req.Colors))
	for name, values := range req.Colors {
		c, err := colormatch.ParseColor(values)
		if err != nil {
			Respond(w, r).Error(http.StatusBadRequest, "Invalid color "+name+": "+err.Error())
			return
		}
		colors[name] = c
	}

	Respond(w, r).JSON(map[string]interface{}{"emotions": colormatch.AnalyzeColors(colors)})
}

func colorVariations(w http.ResponseWriter, r *http.Request) {
	var req ColorVariationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Respond(w, r).Error(http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	base, err := colormatch.ParseColor(req.BaseColor)
	if err != nil {
		Respond(w, r).Error(http.StatusBadRequest, "Invalid base_color: "+err.Error())
		return
	}

	count := req.Count
	switch {
	case count <= 0:
		count = defaultVariations
	case count > maxVariations:
		count = maxVariations
	}
	Respond(w, r).JSON(map[string]interface{}{"variations": colormatch.Variations(base, count)})
}
