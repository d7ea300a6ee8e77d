package stages

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	urgentPrefix  = "I understand this is urgent. "
	apologyPrefix = "I apologize for any inconvenience. "
)

var quickActions = map[Category][]QuickAction{
	CategoryService: {
		{Label: "Schedule Service", Action: "schedule_service"},
		{Label: "View Service History", Action: "view_history"},
	},
	CategorySales: {
		{Label: "Browse Inventory", Action: "browse_inventory"},
		{Label: "Schedule Test Drive", Action: "schedule_test_drive"},
	},
	CategoryWarranty: {
		{Label: "Check Warranty Status", Action: "check_warranty"},
		{Label: "File Claim", Action: "file_claim"},
	},
	CategoryTechnical: {
		{Label: "Schedule Diagnostic", Action: "schedule_diagnostic"},
		{Label: "View Manuals", Action: "view_manuals"},
	},
	CategoryGeneral: {
		{Label: "Contact Support", Action: "contact_support"},
		{Label: "View FAQ", Action: "view_faq"},
	},
}

var suggestions = map[Category][]string{
	CategoryService:   {"When is my next service due?", "What does my service include?"},
	CategorySales:     {"What models are available?", "Can I schedule a test drive?"},
	CategoryWarranty:  {"What is covered under warranty?", "How do I extend my warranty?"},
	CategoryTechnical: {"How do I reset my system?", "Where can I find the manual?"},
	CategoryGeneral:   {"What are your hours?", "How can I contact you?"},
}

// templates take the vehicle description ("vehicle" when unknown).
var templates = map[Category][]func(vehicle string) string{
	CategoryService: {
		func(v string) string {
			return "I can help you schedule a service appointment for your " + v + ". What type of service do you need?"
		},
		func(string) string {
			return "Let me assist you with your service needs. When would you like to schedule your appointment?"
		},
		func(string) string {
			return "I'd be happy to help with your vehicle service. What specific service are you looking for?"
		},
	},
	CategorySales: {
		func(string) string {
			return "I can help you explore our vehicle inventory. What type of vehicle are you interested in?"
		},
		func(string) string {
			return "Great! Let me help you find the perfect vehicle. Are you looking for a new or used vehicle?"
		},
		func(string) string {
			return "I'd be happy to assist with your vehicle purchase. What features are most important to you?"
		},
	},
	CategoryWarranty: {
		func(v string) string {
			return "I can help you with warranty information for your " + v + ". What specific warranty question do you have?"
		},
		func(string) string {
			return "Let me assist you with your warranty inquiry. What would you like to know?"
		},
		func(string) string {
			return "I'd be happy to help with warranty details. Are you asking about coverage or filing a claim?"
		},
	},
	CategoryTechnical: {
		func(string) string {
			return "I can help you with technical support. What issue are you experiencing?"
		},
		func(string) string {
			return "Let me assist you with that technical question. Can you describe the problem in more detail?"
		},
		func(string) string {
			return "I'd be happy to help troubleshoot. What specific technical issue are you facing?"
		},
	},
	CategoryGeneral: {
		func(string) string {
			return "I understand you need assistance with your automotive needs. Let me help you with that. Could you please provide more details about what you need?"
		},
		func(string) string {
			return "How can I help you today? I can assist with service, sales, warranty, or technical questions."
		},
		func(string) string {
			return "I'd be happy to help. What information are you looking for?"
		},
	},
}

// QuickActions returns the fixed actions for category, defaulting to general.
func QuickActions(category Category) []QuickAction {
	actions, ok := quickActions[category]
	if !ok {
		actions = quickActions[CategoryGeneral]
	}
	return append([]QuickAction(nil), actions...)
}

// Suggestions returns the fixed follow-up prompts for category, defaulting to general.
func Suggestions(category Category) []string {
	s, ok := suggestions[category]
	if !ok {
		s = suggestions[CategoryGeneral]
	}
	return append([]string(nil), s...)
}

// Responder composes the final assistant text.
type Responder struct {
	rand Rand
}

func NewResponder(r Rand) *Responder {
	if r == nil {
		r = NewRand(0)
	}
	return &Responder{rand: r}
}

// Compose assembles the reply. history is the session history including the
// current user message.
func (r *Responder) Compose(
	intent IntentResult,
	sentiment SentimentResult,
	knowledge []KnowledgeItem,
	personal PersonalContext,
	history []Turn,
) Reply {
	var b strings.Builder
	if sentiment.Urgency == UrgencyHigh {
		b.WriteString(urgentPrefix)
	}
	if sentiment.Sentiment == SentimentNegative {
		b.WriteString(apologyPrefix)
	}
	if len(history) <= 1 && personal.Greeting != "" {
		b.WriteString(personal.Greeting)
		b.WriteString("! ")
	}

	b.WriteString(r.body(intent.Category, knowledge, personal.VehicleInfo))

	if len(personal.Recommendations) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(personal.Recommendations, " "))
	}

	return Reply{
		Text:         strings.TrimSpace(b.String()),
		QuickActions: QuickActions(intent.Category),
		Suggestions:  Suggestions(intent.Category),
	}
}

func (r *Responder) body(category Category, knowledge []KnowledgeItem, vehicle *Vehicle) string {
	if len(knowledge) > 0 {
		item := knowledge[0]
		text := item.Content
		if vehicle != nil {
			text = "For your " + vehicle.Describe() + ", " + lowerFirst(text)
		}
		if item.EstimatedCost != "" {
			text += " The estimated cost is " + item.EstimatedCost + "."
		}
		if item.Duration != "" {
			text += " This typically takes " + item.Duration + "."
		}
		if item.Availability != "" {
			text += " We're available " + item.Availability + "."
		}
		return text
	}

	options, ok := templates[category]
	if !ok {
		options = templates[CategoryGeneral]
	}
	desc := "vehicle"
	if vehicle != nil {
		desc = vehicle.Describe()
	}
	return options[r.rand.IntN(len(options))](desc)
}

func lowerFirst(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	if first == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(first)) + s[size:]
}
