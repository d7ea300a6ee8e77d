// Package stages holds the local processing stages of the contact-center
// pipeline. Every stage is a pure function of its inputs; randomness and
// time are injected so results are reproducible under test.
package stages

import (
	"strconv"
	"strings"
)

// Category is the topic label assigned to a customer message.
type Category string

const (
	CategoryService   Category = "service"
	CategorySales     Category = "sales"
	CategoryWarranty  Category = "warranty"
	CategoryTechnical Category = "technical"
	CategoryGeneral   Category = "general"
)

// Categories lists every category in scoring order.
var Categories = []Category{
	CategoryService,
	CategorySales,
	CategoryWarranty,
	CategoryTechnical,
	CategoryGeneral,
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryService, CategorySales, CategoryWarranty, CategoryTechnical, CategoryGeneral:
		return true
	default:
		return false
	}
}

// ParseCategory maps a free-form label onto the category enum. Remote agents
// answer with labels like "service_appointment" or "Technical_Issue".
func ParseCategory(raw string) (Category, bool) {
	label := strings.ToLower(strings.TrimSpace(raw))
	if label == "" {
		return CategoryGeneral, false
	}
	if c := Category(label); c.Valid() {
		return c, true
	}
	switch {
	case strings.HasPrefix(label, "service"), strings.HasPrefix(label, "maintenance"):
		return CategoryService, true
	case strings.HasPrefix(label, "sales"), strings.HasPrefix(label, "purchase"):
		return CategorySales, true
	case strings.HasPrefix(label, "warranty"):
		return CategoryWarranty, true
	case strings.HasPrefix(label, "technical"), strings.HasPrefix(label, "tech"):
		return CategoryTechnical, true
	case strings.HasPrefix(label, "general"):
		return CategoryGeneral, true
	default:
		return CategoryGeneral, false
	}
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

// IntentResult is the classification of a single message.
type IntentResult struct {
	Category   Category          `json:"category"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities,omitempty"`
}

// SentimentResult scores the tone and urgency of a single message.
type SentimentResult struct {
	Score      float64   `json:"score"`
	Sentiment  Sentiment `json:"sentiment"`
	Urgency    Urgency   `json:"urgency"`
	Confidence float64   `json:"confidence"`
}

// KnowledgeEntry is a row of the static knowledge table.
type KnowledgeEntry struct {
	Topic         string `json:"topic" yaml:"topic"`
	Title         string `json:"title,omitempty" yaml:"title,omitempty"`
	Content       string `json:"content" yaml:"content"`
	EstimatedCost string `json:"estimatedCost,omitempty" yaml:"estimatedCost,omitempty"`
	Duration      string `json:"duration,omitempty" yaml:"duration,omitempty"`
	Availability  string `json:"availability,omitempty" yaml:"availability,omitempty"`
}

// KnowledgeItem is a ranked knowledge entry.
type KnowledgeItem struct {
	KnowledgeEntry
	Score int `json:"score"`
}

// KnowledgeBase is the knowledge table keyed by category.
type KnowledgeBase map[Category][]KnowledgeEntry

type Vehicle struct {
	Make            string `json:"make" yaml:"make"`
	Model           string `json:"model" yaml:"model"`
	Year            int    `json:"year" yaml:"year"`
	Mileage         int    `json:"mileage" yaml:"mileage"`
	LastServiceDate string `json:"lastServiceDate,omitempty" yaml:"lastServiceDate,omitempty"`
	Type            string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Describe renders the vehicle as "2022 Toyota Camry".
func (v Vehicle) Describe() string {
	parts := make([]string, 0, 3)
	if v.Year > 0 {
		parts = append(parts, strconv.Itoa(v.Year))
	}
	parts = append(parts, strings.Fields(v.Make+" "+v.Model)...)
	return strings.Join(parts, " ")
}

type Warranty struct {
	Status  string `json:"status" yaml:"status"`
	EndDate string `json:"endDate" yaml:"endDate"`
}

type ServiceRecord struct {
	Date    string  `json:"date" yaml:"date"`
	Type    string  `json:"type" yaml:"type"`
	Mileage int     `json:"mileage,omitempty" yaml:"mileage,omitempty"`
	Cost    float64 `json:"cost,omitempty" yaml:"cost,omitempty"`
}

// Profile is the customer snapshot attached to a session.
type Profile struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	Vehicle        *Vehicle          `json:"vehicle,omitempty" yaml:"vehicle,omitempty"`
	Warranty       *Warranty         `json:"warranty,omitempty" yaml:"warranty,omitempty"`
	ServiceHistory []ServiceRecord   `json:"serviceHistory,omitempty" yaml:"serviceHistory,omitempty"`
	Preferences    map[string]string `json:"preferences,omitempty" yaml:"preferences,omitempty"`
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	out := p
	if p.Vehicle != nil {
		v := *p.Vehicle
		out.Vehicle = &v
	}
	if p.Warranty != nil {
		w := *p.Warranty
		out.Warranty = &w
	}
	if p.ServiceHistory != nil {
		out.ServiceHistory = append([]ServiceRecord(nil), p.ServiceHistory...)
	}
	if p.Preferences != nil {
		out.Preferences = make(map[string]string, len(p.Preferences))
		for k, v := range p.Preferences {
			out.Preferences[k] = v
		}
	}
	return out
}

// DefaultProfile is assigned when no sample customers are available.
func DefaultProfile() Profile {
	return Profile{
		ID:   "GUEST",
		Name: "Customer",
		Vehicle: &Vehicle{
			Make:            "Toyota",
			Model:           "Camry",
			Year:            2022,
			Mileage:         15000,
			LastServiceDate: "2024-10-15",
			Type:            "sedan",
		},
		Preferences: map[string]string{
			"language":      "en",
			"contactMethod": "chat",
		},
	}
}

// Route is the department assignment for a message.
type Route struct {
	Department string `json:"department"`
	Priority   string `json:"priority"`
	Escalate   bool   `json:"escalate"`
}

type QuickAction struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

// Insights are profile facts surfaced by personalization.
type Insights struct {
	WarrantyStatus string         `json:"warrantyStatus,omitempty"`
	WarrantyExpiry string         `json:"warrantyExpiry,omitempty"`
	LastService    *ServiceRecord `json:"lastService,omitempty"`
	TotalServices  int            `json:"totalServices,omitempty"`
}

// PersonalContext is the personalization output consumed by the response stage.
type PersonalContext struct {
	Greeting         string   `json:"greeting"`
	VehicleInfo      *Vehicle `json:"vehicleInfo,omitempty"`
	Recommendations  []string `json:"recommendations"`
	CustomerInsights Insights `json:"customerInsights"`
}

// Reply is the composed assistant answer.
type Reply struct {
	Text         string        `json:"text"`
	QuickActions []QuickAction `json:"quickActions"`
	Suggestions  []string      `json:"suggestions"`
}

// Turn is one entry of the conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
