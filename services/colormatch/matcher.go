// Package colormatch scores music keyword sets against picture colors.
package colormatch

import (
	"math/rand"
	"sort"
	"sync"
	"time"
)

// Item is a piece of music described by keywords
type Item struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Artist   string   `json:"artist,omitempty"`
	Keywords []string `json:"keywords"`
}

// Result is one scored item
type Result struct {
	MusicID    string  `json:"music_id"`
	MatchScore float64 `json:"match_score"`
}

// Weights applied to named colors in AnalyzeColors; other names weigh 1
var colorWeights = map[string]float64{
	"dominant": 2.0,
	"vibrant":  1.5,
}

// Matcher scores items. Items with no known keyword get a random score,
// drawn from an injectable source.
type Matcher struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMatcher creates a matcher; a nil rng uses a time-seeded source
func NewMatcher(rng *rand.Rand) *Matcher {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Matcher{rng: rng}
}

// Score returns the mean similarity of the known keywords and which
// keywords were known.
func (m *Matcher) Score(keywords []string, color Color) (float64, []string) {
	var total float64
	var matched []string
	for _, k := range keywords {
		kc, ok := KeywordColor(k)
		if !ok {
			continue
		}
		total += Similarity(kc, color)
		matched = append(matched, k)
	}

	if len(matched) == 0 {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.rng.Float64(), nil
	}
	return total / float64(len(matched)), matched
}

// Match scores every item and sorts by score, highest first. Equal scores
// keep request order.
func (m *Matcher) Match(color Color, items []Item) []Result {
	results := make([]Result, len(items))
	for i, item := range items {
		score, _ := m.Score(item.Keywords, color)
		results[i] = Result{MusicID: item.ID, MatchScore: score}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})
	return results
}

// AnalyzeColors maps every table keyword to its strongest weighted
// similarity across the named colors, normalized so the top emotion is 1.
func AnalyzeColors(colors map[string]Color) map[string]float64 {
	emotions := make(map[string]float64, len(keywordColors))
	if len(colors) == 0 {
		return emotions
	}

	for name, c := range colors {
		weight, ok := colorWeights[name]
		if !ok {
			weight = 1.0
		}
		for keyword, kc := range keywordColors {
			v := Similarity(kc, c) * weight
			if cur, seen := emotions[keyword]; !seen || v > cur {
				emotions[keyword] = v
			}
		}
	}

	var max float64
	for _, v := range emotions {
		if v > max {
			max = v
		}
	}
	if max > 0 {
		for k := range emotions {
			emotions[k] /= max
		}
	}
	return emotions
}

// Variations returns base followed by count-1 variations cycling through
// brightness, saturation and a channel rotation, each clipped to [0,1].
func Variations(base Color, count int) []Color {
	if count < 1 {
		count = 1
	}
	out := make([]Color, 0, count)
	out = append(out, base)

	for i := 0; i < count-1; i++ {
		factor := 0.2 + float64(i)*0.1
		var v Color
		switch i % 3 {
		case 0:
			for j := range v {
				v[j] = base[j] * (1.0 + factor)
			}
		case 1:
			mean := (base[0] + base[1] + base[2]) / 3
			for j := range v {
				v[j] = base[j] + (base[j]-mean)*factor
			}
		default:
			v = Color{base[2], base[0], base[1]}
		}
		out = append(out, clip(v))
	}
	return out
}

func clip(c Color) Color {
	for i, v := range c {
		switch {
		case v < 0:
			c[i] = 0
		case v > 1:
			c[i] = 1
		}
	}
	return c
}
