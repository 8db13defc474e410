package providers

import (
	"regexp"
	"strings"
)

var (
	timeTagPattern       = regexp.MustCompile(`\[\d{2}:\d{2}.\d{2,3}\]`)
	numericEntityPattern = regexp.MustCompile(`&#\d+;`)
)

// StripTimeTags removes every [mm:ss.xx] / [mm:ss.xxx] tag and trims the
// result. Removal repeats because dropping one tag can join the text around
// it into another.
func StripTimeTags(lyrics string) string {
	for timeTagPattern.MatchString(lyrics) {
		lyrics = timeTagPattern.ReplaceAllString(lyrics, "")
	}
	return strings.TrimSpace(lyrics)
}

// DecodeNumericEntities turns the ':' and '.' entities QQ Music emits back
// into characters and drops any other numeric entity.
func DecodeNumericEntities(lyrics string) string {
	lyrics = strings.ReplaceAll(lyrics, "&#58;", ":")
	lyrics = strings.ReplaceAll(lyrics, "&#46;", ".")
	return lyrics
}

// StripNumericEntities removes all remaining &#NN; sequences
func StripNumericEntities(lyrics string) string {
	return numericEntityPattern.ReplaceAllString(lyrics, "")
}

// HasTimeTags reports whether any time tag survived cleaning
func HasTimeTags(lyrics string) bool {
	return timeTagPattern.MatchString(lyrics)
}

// CleanEntityLyrics decodes the ':' and '.' entities, drops the rest and
// strips time tags, repeating until the text stops changing
func CleanEntityLyrics(lyrics string) string {
	for {
		next := StripTimeTags(StripNumericEntities(DecodeNumericEntities(lyrics)))
		if next == lyrics {
			return next
		}
		lyrics = next
	}
}
