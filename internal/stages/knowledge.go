package stages

import (
	"sort"
	"strings"
)

const (
	topicMatchScore   = 10
	titleMatchScore   = 5
	contentWordScore  = 2
	maxKnowledgeItems = 3
	defaultKnowledge  = 2
)

// DefaultKnowledgeBase is used when no knowledge fixture is available.
func DefaultKnowledgeBase() KnowledgeBase {
	return KnowledgeBase{
		CategoryService: {
			{Topic: "oil change", Content: "Oil changes are recommended every 5,000-7,500 miles depending on your vehicle model."},
		},
		CategorySales: {
			{Topic: "models", Content: "We offer a wide range of models including sedans, SUVs, trucks, and electric vehicles."},
		},
		CategoryWarranty: {
			{Topic: "coverage", Content: "Our standard warranty covers 3 years/36,000 miles bumper-to-bumper and 5 years/60,000 miles powertrain."},
		},
		CategoryTechnical: {
			{Topic: "diagnostics", Content: "Our certified technicians use advanced diagnostic tools to identify and resolve technical issues."},
		},
		CategoryGeneral: {
			{Topic: "help", Content: "I'm here to help you with service, sales, warranty, and technical questions."},
		},
	}
}

// Retrieve ranks the category's entries against query. When nothing scores,
// the first entries of the category are returned with a zero score.
func (kb KnowledgeBase) Retrieve(category Category, query string) []KnowledgeItem {
	entries := kb[category]
	lower := strings.ToLower(query)
	words := strings.Split(lower, " ")

	scored := make([]KnowledgeItem, 0, len(entries))
	for _, e := range entries {
		score := 0
		if strings.Contains(lower, strings.ToLower(e.Topic)) {
			score += topicMatchScore
		}
		content := strings.ToLower(e.Content)
		for _, w := range words {
			if len(w) > 3 && strings.Contains(content, w) {
				score += contentWordScore
			}
		}
		if e.Title != "" && strings.Contains(lower, strings.ToLower(e.Title)) {
			score += titleMatchScore
		}
		if score > 0 {
			scored = append(scored, KnowledgeItem{KnowledgeEntry: e, Score: score})
		}
	}

	if len(scored) == 0 {
		n := min(defaultKnowledge, len(entries))
		out := make([]KnowledgeItem, 0, n)
		for _, e := range entries[:n] {
			out = append(out, KnowledgeItem{KnowledgeEntry: e})
		}
		return out
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > maxKnowledgeItems {
		scored = scored[:maxKnowledgeItems]
	}
	return scored
}
