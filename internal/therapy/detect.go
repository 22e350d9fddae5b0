package therapy

import (
	"strings"
	"unicode"
)

type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

const EmotionNeutral = "neutral"

type EmotionAnalysis struct {
	Primary   string
	Emotions  []string
	Intensity Intensity
	Themes    []string
}

type keywordSet struct {
	name     string
	keywords []string
}

// Detection order breaks ties between equally matched emotions.
var emotionKeywords = []keywordSet{
	{"sadness", []string{"sad", "cry", "crying", "cried", "miss", "missing", "hurt", "heartbroken", "empty", "grief", "tears", "depressed"}},
	{"anger", []string{"angry", "mad", "furious", "hate", "rage", "betrayed", "unfair", "pissed", "resent"}},
	{"anxiety", []string{"anxious", "worried", "worry", "scared", "panic", "nervous", "afraid", "overthinking", "stress", "stressed"}},
	{"loneliness", []string{"alone", "lonely", "isolated", "nobody", "abandoned", "ignored"}},
	{"hope", []string{"better", "hope", "hopeful", "healing", "stronger", "progress", "proud", "grateful", "free"}},
	{"confusion", []string{"confused", "why", "understand", "lost", "unsure", "mixed", "closure"}},
}

var intensifiers = map[string]bool{
	"very": true, "so": true, "really": true, "extremely": true, "completely": true,
	"totally": true, "never": true, "always": true, "can't": true, "cannot": true,
}

var themeKeywords = []keywordSet{
	{"contact", []string{"text", "texted", "call", "called", "message", "block", "blocked", "unblock", "instagram", "stalk", "contact"}},
	{"self_worth", []string{"enough", "worthless", "ugly", "unlovable", "deserve", "failure"}},
	{"future", []string{"future", "tomorrow", "someday", "next", "plan", "again"}},
	{"closure", []string{"closure", "ended", "over", "goodbye", "why"}},
	{"social", []string{"friends", "family", "party", "people", "dating"}},
}

func tokenize(input string) []string {
	return strings.FieldsFunc(strings.ToLower(input), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func countHits(tokens map[string]int, keywords []string) int {
	n := 0
	for _, k := range keywords {
		n += tokens[k]
	}
	return n
}

// DetectEmotion scores keyword hits per emotion and theme. Intensity grows
// with emotional keywords, intensifiers and exclamation marks.
func DetectEmotion(input string) EmotionAnalysis {
	counts := make(map[string]int)
	intensifierHits := 0
	for _, tok := range tokenize(input) {
		counts[tok]++
		if intensifiers[tok] {
			intensifierHits++
		}
	}

	a := EmotionAnalysis{Primary: EmotionNeutral}
	best, emotionHits := 0, 0
	for _, set := range emotionKeywords {
		n := countHits(counts, set.keywords)
		if n == 0 {
			continue
		}
		a.Emotions = append(a.Emotions, set.name)
		emotionHits += n
		if n > best {
			best = n
			a.Primary = set.name
		}
	}
	for _, set := range themeKeywords {
		if countHits(counts, set.keywords) > 0 {
			a.Themes = append(a.Themes, set.name)
		}
	}

	score := emotionHits + intensifierHits + strings.Count(input, "!")/2
	switch {
	case score >= 4:
		a.Intensity = IntensityHigh
	case score >= 2:
		a.Intensity = IntensityMedium
	default:
		a.Intensity = IntensityLow
	}
	return a
}
