package stages

import (
	"math"
	"regexp"
	"strings"
)

const (
	DefaultConfidenceFloor = 0.05
	DefaultContinuityBoost = 0.15
)

type intentPattern struct {
	keywords []string
	weight   float64
}

var intentPatterns = map[Category]intentPattern{
	CategoryService: {
		keywords: []string{"service", "maintenance", "repair", "appointment", "schedule", "oil change", "check engine",
			"tire", "brake", "inspection", "tune", "fluid", "filter", "rotation", "alignment",
			"next service", "service due", "book", "available", "slot", "time", "when can"},
		weight: 1.0,
	},
	CategorySales: {
		keywords: []string{"buy", "purchase", "price", "cost", "new car", "vehicle", "model", "test drive",
			"inventory", "stock", "available models", "suv", "sedan", "truck", "electric",
			"interested in", "looking for", "want to buy", "trade", "lease", "finance"},
		weight: 1.0,
	},
	CategoryWarranty: {
		keywords: []string{"warranty", "coverage", "claim", "guarantee", "covered", "under warranty",
			"warranty status", "extended warranty", "protection plan", "roadside"},
		weight: 1.2,
	},
	CategoryTechnical: {
		keywords: []string{"problem", "issue", "error", "not working", "malfunction", "diagnostic",
			"broken", "noise", "strange", "weird", "light on", "warning", "alert",
			"urgent", "emergency", "won't start", "stalling", "overheating"},
		weight: 1.1,
	},
	CategoryGeneral: {
		keywords: []string{"help", "information", "question", "hours", "location", "contact",
			"address", "phone", "email", "where", "when open", "closed", "directions"},
		weight: 0.8,
	},
}

var (
	vehicleEntity = regexp.MustCompile(`(?i)\b(model [a-z0-9]+|[a-z]+ \d{3,4})\b`)
	dateEntity    = regexp.MustCompile(`(?i)\b(today|tomorrow|next week|monday|tuesday|wednesday|thursday|friday)\b`)
)

// IntentConfig carries the tunable intent thresholds.
type IntentConfig struct {
	ConfidenceFloor float64
	ContinuityBoost float64
}

// IntentAnalyzer classifies messages into categories.
type IntentAnalyzer struct {
	floor float64
	boost float64
}

func NewIntentAnalyzer(cfg IntentConfig) *IntentAnalyzer {
	return &IntentAnalyzer{floor: cfg.ConfidenceFloor, boost: cfg.ContinuityBoost}
}

// Scores returns the weighted keyword score of every category, including the
// continuity boost toward last when last is a known category.
func (a *IntentAnalyzer) Scores(message string, last Category) map[Category]float64 {
	lower := strings.ToLower(message)
	scores := make(map[Category]float64, len(Categories))
	for _, c := range Categories {
		p := intentPatterns[c]
		matches := 0
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				matches++
			}
		}
		scores[c] = float64(matches) / float64(len(p.keywords)) * p.weight
	}
	if last.Valid() {
		scores[last] += a.boost
	}
	return scores
}

// Analyze classifies message. last is the previous turn's category, or ""
// when the session has none.
func (a *IntentAnalyzer) Analyze(message string, last Category) IntentResult {
	scores := a.Scores(message, last)

	category := CategoryGeneral
	best := 0.0
	for _, c := range Categories {
		if scores[c] > best {
			best = scores[c]
			category = c
		}
	}

	if best < a.floor {
		category = contextualCategory(strings.ToLower(message), last)
	}

	return IntentResult{
		Category:   category,
		Confidence: math.Min(best, 1),
		Entities:   ExtractEntities(message),
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func orLast(last, fallback Category) Category {
	if last.Valid() {
		return last
	}
	return fallback
}

// contextualCategory resolves messages that matched too few keywords.
// Rules are checked in order; the first that fires wins.
func contextualCategory(lower string, last Category) Category {
	switch {
	case containsAny(lower, "suv", "sedan", "truck", "models", "inventory"):
		return CategorySales
	case containsAny(lower, "available", "next week", "tuesday", "morning"):
		return orLast(last, CategoryService)
	case strings.Contains(lower, "miles") && containsAny(lower, "covered", "warranty"):
		return CategoryWarranty
	case strings.Contains(lower, "miles") && last == CategoryWarranty:
		return CategoryWarranty
	case strings.Contains(lower, "today") && containsAny(lower, "look", "fix"):
		return CategoryTechnical
	case containsAny(lower, "cost", "price", "much"):
		return orLast(last, CategoryGeneral)
	case containsAny(lower, "waiting", "part", "fixed"):
		return CategoryService
	case containsAny(lower, "manager", "unacceptable"):
		return orLast(last, CategoryService)
	case containsAny(lower, "tax", "incentive"):
		return CategorySales
	case strings.Contains(lower, "range") && strings.Contains(lower, "model"):
		return CategorySales
	case containsAny(lower, "30k", "included"):
		return CategoryService
	case strings.Contains(lower, "test drive"),
		strings.Contains(lower, "schedule") && last == CategorySales:
		return CategorySales
	}
	return orLast(last, CategoryGeneral)
}

// ExtractEntities pulls vehicle-model-like tokens and date words out of
// message. Missing matches are omitted.
func ExtractEntities(message string) map[string]string {
	entities := make(map[string]string)
	if m := vehicleEntity.FindString(message); m != "" {
		entities["vehicle"] = m
	}
	if m := dateEntity.FindString(message); m != "" {
		entities["date"] = m
	}
	return entities
}
