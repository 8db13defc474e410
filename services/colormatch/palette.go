package colormatch

import (
	"fmt"
	"sort"
)

// Color is an RGB triple with components in [0,1]
type Color [3]float64

// ParseColor takes the first three values of v; extra values are ignored
func ParseColor(v []float64) (Color, error) {
	if len(v) < 3 {
		return Color{}, fmt.Errorf("color needs 3 values, got %d", len(v))
	}
	return Color{v[0], v[1], v[2]}, nil
}

// keywordColors maps mood and season keywords to representative colors
var keywordColors = map[string]Color{
	"快乐": {1.0, 1.0, 0.0}, // yellow
	"悲伤": {0.0, 0.0, 0.8}, // blue
	"激动": {1.0, 0.0, 0.0}, // red
	"平静": {0.5, 0.7, 1.0},
	"忧郁": {0.5, 0.5, 0.7},
	"兴奋": {1.0, 0.5, 0.0}, // orange
	"温暖": {1.0, 0.8, 0.6},
	"冷淡": {0.6, 0.8, 0.8},
	"明亮": {1.0, 1.0, 0.8},
	"黑暗": {0.2, 0.2, 0.2},
	"活力": {0.8, 0.2, 0.8}, // purple
	"疲惫": {0.5, 0.5, 0.5},
	"热情": {1.0, 0.2, 0.2},
	"冷静": {0.0, 0.5, 0.5}, // teal
	"柔和": {0.8, 0.8, 1.0},
	"强烈": {0.9, 0.1, 0.1},
	"轻快": {0.7, 1.0, 0.7},
	"沉重": {0.3, 0.3, 0.4},
	"清新": {0.4, 0.8, 0.4}, // green
	"浑浊": {0.5, 0.4, 0.3},
	"甜蜜": {1.0, 0.7, 0.7}, // pink
	"苦涩": {0.3, 0.2, 0.1},
	"欢快": {0.9, 0.9, 0.0},
	"忧伤": {0.1, 0.3, 0.6},
	"阳光": {1.0, 0.9, 0.5},
	"阴雨": {0.5, 0.5, 0.6},
	"彩虹": {0.6, 0.0, 0.6},
	"灰暗": {0.4, 0.4, 0.4},
	"春天": {0.7, 0.9, 0.5},
	"夏天": {0.0, 0.8, 1.0},
	"秋天": {0.8, 0.5, 0.2},
	"冬天": {0.9, 0.9, 0.9}, // white
}

// KeywordColor returns the color for a keyword, if it has one
func KeywordColor(keyword string) (Color, bool) {
	c, ok := keywordColors[keyword]
	return c, ok
}

// Keywords returns every keyword in the table, sorted
func Keywords() []string {
	keys := make([]string, 0, len(keywordColors))
	for k := range keywordColors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
