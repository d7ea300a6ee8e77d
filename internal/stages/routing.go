package stages

const (
	PriorityUrgent = "urgent"
	PriorityNormal = "normal"

	escalationScore = -0.5
)

var departments = map[Category]string{
	CategoryService:   "Service Department",
	CategorySales:     "Sales Department",
	CategoryWarranty:  "Warranty Department",
	CategoryTechnical: "Technical Support",
	CategoryGeneral:   "General Inquiry",
}

// Department returns the handling department for category.
func Department(category Category) string {
	if d, ok := departments[category]; ok {
		return d
	}
	return departments[CategoryGeneral]
}

// RouteMessage assigns a department and decides escalation. Escalation needs
// both high urgency and a strongly negative score.
func RouteMessage(intent IntentResult, sentiment SentimentResult) Route {
	high := sentiment.Urgency == UrgencyHigh
	priority := PriorityNormal
	if high {
		priority = PriorityUrgent
	}
	return Route{
		Department: Department(intent.Category),
		Priority:   priority,
		Escalate:   high && sentiment.Score < escalationScore,
	}
}
