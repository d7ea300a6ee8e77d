package stages

import (
	"math"
	"regexp"
	"strings"
)

var (
	positiveWords = []string{"great", "good", "excellent", "happy", "satisfied", "thank", "thanks", "perfect", "wonderful", "amazing", "love", "appreciate"}
	negativeWords = []string{"bad", "poor", "terrible", "angry", "frustrated", "disappointed", "unacceptable", "horrible", "worst", "hate", "waiting", "weeks"}
	urgentWords   = []string{"urgent", "emergency", "asap", "immediately", "critical", "serious", "now", "today", "right away"}

	positiveLexicon = compileLexicon(positiveWords)
	negativeLexicon = compileLexicon(negativeWords)
	urgentLexicon   = compileLexicon(urgentWords)
)

const (
	positiveThreshold = 0.2
	negativeThreshold = -0.2
)

// lexicon entries match at the start of a word so "now" stays out of "know".
func compileLexicon(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		out = append(out, regexp.MustCompile(`\b`+regexp.QuoteMeta(w)))
	}
	return out
}

func countLexicon(lower string, lexicon []*regexp.Regexp) int {
	n := 0
	for _, re := range lexicon {
		if re.MatchString(lower) {
			n++
		}
	}
	return n
}

// AnalyzeSentiment scores message against the positive, negative and urgent lexicons.
func AnalyzeSentiment(message string) SentimentResult {
	lower := strings.ToLower(message)
	pos := countLexicon(lower, positiveLexicon)
	neg := countLexicon(lower, negativeLexicon)
	urgent := countLexicon(lower, urgentLexicon)

	score := float64(pos-neg) / float64(max(pos+neg, 1))

	label := SentimentNeutral
	switch {
	case score > positiveThreshold:
		label = SentimentPositive
	case score < negativeThreshold:
		label = SentimentNegative
	}

	urgency := UrgencyNormal
	if urgent > 0 {
		urgency = UrgencyHigh
	}

	return SentimentResult{
		Score:      score,
		Sentiment:  label,
		Urgency:    urgency,
		Confidence: math.Min(float64(pos+neg)/3, 1),
	}
}
