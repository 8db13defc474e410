package colormatch

import (
	"math"
	"math/rand"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestKeywordTable(t *testing.T) {
	if n := len(Keywords()); n != 32 {
		t.Errorf("Expected 32 keywords, got %d", n)
	}
	c, ok := KeywordColor("悲伤")
	if !ok || c != (Color{0.0, 0.0, 0.8}) {
		t.Errorf("Unexpected color for 悲伤: %v, %v", c, ok)
	}
	if _, ok := KeywordColor("晴天"); ok {
		t.Error("晴天 should not be in the table")
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor([]float64{0.1, 0.2, 0.3, 1.0})
	if err != nil || c != (Color{0.1, 0.2, 0.3}) {
		t.Errorf("Expected first three values, got %v, %v", c, err)
	}
	if _, err := ParseColor([]float64{0.1, 0.2}); err == nil {
		t.Error("Expected an error for two values")
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Color
		expected float64
	}{
		{"identical", Color{1, 0, 0}, Color{1, 0, 0}, 1},
		{"scaled", Color{0.5, 0.5, 0}, Color{1, 1, 0}, 1},
		{"orthogonal", Color{1, 0, 0}, Color{0, 1, 0}, 0},
		{"black", Color{0, 0, 0}, Color{1, 1, 1}, 0},
		{"diagonal", Color{1, 0, 0}, Color{1, 1, 0}, 1 / math.Sqrt2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); !almostEqual(got, tt.expected) {
				t.Errorf("Similarity = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestScore(t *testing.T) {
	m := NewMatcher(rand.New(rand.NewSource(1)))

	score, matched := m.Score([]string{"激动", "晴天", "悲伤"}, Color{1, 0, 0})

	// 激动 is pure red (1.0), 悲伤 is pure blue (0.0)
	if !almostEqual(score, 0.5) {
		t.Errorf("Expected mean 0.5, got %v", score)
	}
	if len(matched) != 2 || matched[0] != "激动" || matched[1] != "悲伤" {
		t.Errorf("Unexpected matched keywords: %v", matched)
	}
}

func TestScore_NoKnownKeywordIsRandom(t *testing.T) {
	expected := rand.New(rand.NewSource(99)).Float64()
	m := NewMatcher(rand.New(rand.NewSource(99)))

	score, matched := m.Score([]string{"晴天"}, Color{1, 0, 0})

	if matched != nil {
		t.Errorf("Expected no matched keywords, got %v", matched)
	}
	if score != expected {
		t.Errorf("Expected the seeded random score %v, got %v", expected, score)
	}
	if score < 0 || score >= 1 {
		t.Errorf("Random score out of range: %v", score)
	}
}

func TestMatch_SortedDescending(t *testing.T) {
	m := NewMatcher(rand.New(rand.NewSource(1)))
	items := []Item{
		{ID: "blue", Keywords: []string{"悲伤"}},
		{ID: "red", Keywords: []string{"激动"}},
		{ID: "orange", Keywords: []string{"兴奋"}},
	}

	results := m.Match(Color{1, 0, 0}, items)

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	order := []string{"red", "orange", "blue"}
	for i, id := range order {
		if results[i].MusicID != id {
			t.Errorf("results[%d] = %s, expected %s", i, results[i].MusicID, id)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].MatchScore > results[i-1].MatchScore {
			t.Errorf("Results not sorted at %d: %+v", i, results)
		}
	}
}

func TestMatch_Empty(t *testing.T) {
	if got := NewMatcher(nil).Match(Color{1, 1, 1}, nil); len(got) != 0 {
		t.Errorf("Expected no results, got %v", got)
	}
}

func TestAnalyzeColors(t *testing.T) {
	emotions := AnalyzeColors(map[string]Color{
		"dominant": {1, 0, 0},
		"muted":    {0, 0, 1},
	})

	if len(emotions) != 32 {
		t.Fatalf("Expected all 32 keywords, got %d", len(emotions))
	}
	// pure red matches 激动 exactly and carries the dominant weight
	if !almostEqual(emotions["激动"], 1) {
		t.Errorf("Expected 激动 normalized to 1, got %v", emotions["激动"])
	}
	// 悲伤 is pure blue: similarity 1 at weight 1 against a max of 2
	if !almostEqual(emotions["悲伤"], 0.5) {
		t.Errorf("Expected 悲伤 at 0.5, got %v", emotions["悲伤"])
	}
	for k, v := range emotions {
		if v < 0 || v > 1+epsilon {
			t.Errorf("%s out of range: %v", k, v)
		}
	}
}

func TestAnalyzeColors_EdgeCases(t *testing.T) {
	if got := AnalyzeColors(nil); len(got) != 0 {
		t.Errorf("Expected no emotions for no colors, got %d", len(got))
	}
	for k, v := range AnalyzeColors(map[string]Color{"dominant": {0, 0, 0}}) {
		if v != 0 {
			t.Errorf("Black should score 0 for %s, got %v", k, v)
		}
	}
}

func TestVariations(t *testing.T) {
	base := Color{0.5, 0.4, 0.3}
	got := Variations(base, 5)

	if len(got) != 5 {
		t.Fatalf("Expected 5 colors, got %d", len(got))
	}
	if got[0] != base {
		t.Errorf("First color should be the base, got %v", got[0])
	}

	expected := []Color{
		{0.6, 0.48, 0.36}, // brightness x1.2
		{0.53, 0.4, 0.27}, // saturation, factor 0.3 around mean 0.4
		{0.3, 0.5, 0.4},   // rotation
		{0.75, 0.6, 0.45}, // brightness x1.5
	}
	for i, want := range expected {
		for j := range want {
			if !almostEqual(got[i+1][j], want[j]) {
				t.Errorf("variation %d = %v, expected %v", i+1, got[i+1], want)
				break
			}
		}
	}
}

func TestVariations_Clipped(t *testing.T) {
	for _, c := range Variations(Color{1, 0.9, 0}, 8) {
		for _, v := range c {
			if v < 0 || v > 1 {
				t.Errorf("Component out of range: %v", c)
			}
		}
	}
	if got := Variations(Color{1, 1, 1}, 0); len(got) != 1 {
		t.Errorf("Expected only the base for count 0, got %d", len(got))
	}
}
