package tools

import (
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/ent0n29/contactcenter/internal/stages"
)

const (
	defaultBudget      = 40000
	defaultFamilySize  = 2
	defaultLifestyle   = "commuter"
	defaultVehiclePlan = 35000

	loanAPR          = 3.9
	loanTermMonths   = 60
	loanMonthlyRate  = 0.0184
	loanTotalFactor  = 1.104
	leaseTermMonths  = 36
	leaseMonthlyRate = 0.012
	leaseMileage     = 12000

	bundleSavingsRate   = 0.1
	maintenanceMileage  = 30000
	maxVehicleMatches   = 3
	maxAccessoryMatches = 3
)

var defaultPriorities = []string{"reliability", "fuel-efficiency"}

// Preferences describe what the shopper is looking for. Zero values fall
// back to a commuter profile with a 40k budget.
type Preferences struct {
	Budget     float64  `json:"budget,omitempty"`
	FamilySize int      `json:"familySize,omitempty"`
	Lifestyle  string   `json:"lifestyle,omitempty"`
	Priorities []string `json:"priorities,omitempty"`
}

func (p Preferences) withDefaults() Preferences {
	if p.Budget <= 0 {
		p.Budget = defaultBudget
	}
	if p.FamilySize <= 0 {
		p.FamilySize = defaultFamilySize
	}
	if p.Lifestyle == "" {
		p.Lifestyle = defaultLifestyle
	}
	if len(p.Priorities) == 0 {
		p.Priorities = defaultPriorities
	}
	return p
}

type RecommendRequest struct {
	Profile     stages.Profile
	Preferences Preferences
	// Intent is the shopper's current intent label ("sales", "purchase", ...).
	Intent            string
	InterestedVehicle string
}

type VehicleMatch struct {
	CatalogVehicle
	Score           float64 `json:"score"`
	Reason          string  `json:"reason"`
	MatchPercentage int     `json:"matchPercentage"`
}

type AccessoryMatch struct {
	Accessory
	Reason  string  `json:"reason"`
	Savings float64 `json:"savings"`
}

type ServiceMatch struct {
	ServicePlan
	Reason   string `json:"reason"`
	Priority string `json:"priority"`
}

type FinancingOption struct {
	Type           string  `json:"type"`
	APR            float64 `json:"apr,omitempty"`
	Term           int     `json:"term"`
	MonthlyPayment float64 `json:"monthlyPayment"`
	TotalCost      float64 `json:"totalCost,omitempty"`
	MileageLimit   int     `json:"mileageLimit,omitempty"`
	Reason         string  `json:"reason"`
}

type Recommendations struct {
	Vehicles    []VehicleMatch    `json:"vehicles"`
	Accessories []AccessoryMatch  `json:"accessories"`
	Services    []ServiceMatch    `json:"services"`
	Financing   []FinancingOption `json:"financing"`
}

type Explanation struct {
	Summary         string   `json:"summary"`
	Factors         []string `json:"factors"`
	Personalization string   `json:"personalization"`
}

type RecommendResult struct {
	Recommendations Recommendations `json:"recommendations"`
	Reasoning       Explanation     `json:"reasoning"`
	Confidence      float64         `json:"confidence"`
}

// Recommender scores the catalog against a shopper profile.
type Recommender struct {
	catalog Catalog
}

func NewRecommender(catalog Catalog) *Recommender {
	return &Recommender{catalog: catalog}
}

func (r *Recommender) Recommend(req RecommendRequest) RecommendResult {
	prefs := req.Preferences.withDefaults()
	interested, hasInterest := r.catalog.Vehicle(req.InterestedVehicle)

	recs := Recommendations{
		Vehicles:    r.vehicles(prefs),
		Accessories: r.accessories(req.Profile, interested, hasInterest),
		Services:    r.services(req.Profile, req.Intent),
		Financing:   financing(interested, hasInterest),
	}

	confidence := 0.65
	if req.Preferences.Budget > 0 && req.Preferences.Lifestyle != "" {
		confidence = 0.85
	}

	owner := "your"
	if req.Profile.Name != "" {
		owner = req.Profile.Name + "'s"
	}

	return RecommendResult{
		Recommendations: recs,
		Reasoning: Explanation{
			Summary:         "Based on your preferences and " + owner + " profile",
			Factors:         []string{"budget", "lifestyle", "family needs", "priorities"},
			Personalization: "high",
		},
		Confidence: confidence,
	}
}

// ScoreVehicle starts at 0.5, adds budget, family, lifestyle and priority
// bonuses, and caps the result at 1.
func ScoreVehicle(v CatalogVehicle, prefs Preferences) float64 {
	score := 0.5
	if v.Price <= prefs.Budget {
		score += 0.2
	}
	if v.Price <= prefs.Budget*0.9 {
		score += 0.1
	}
	if prefs.FamilySize > 4 && v.Type == "suv" {
		score += 0.2
	}
	if prefs.FamilySize <= 2 && v.Type == "sedan" {
		score += 0.15
	}
	if prefs.Lifestyle == "eco-conscious" && v.HasFeature("hybrid") {
		score += 0.2
	}
	if prefs.Lifestyle == "adventure" && v.Type == "suv" {
		score += 0.15
	}
	if slices.Contains(prefs.Priorities, "fuel-efficiency") && v.MPG > 40 {
		score += 0.15
	}
	if slices.Contains(prefs.Priorities, "safety") && v.HasFeature("safety") {
		score += 0.1
	}
	return math.Min(score, 1)
}

func vehicleReason(v CatalogVehicle, prefs Preferences) string {
	var reasons []string
	if v.Price <= prefs.Budget {
		reasons = append(reasons, "within budget")
	}
	if v.MPG > 40 {
		reasons = append(reasons, "excellent fuel economy")
	}
	if v.HasFeature("safety") {
		reasons = append(reasons, "top safety ratings")
	}
	if v.Type == "suv" && prefs.FamilySize > 4 {
		reasons = append(reasons, "spacious for family")
	}
	if len(reasons) == 0 {
		return "great all-around choice"
	}
	return strings.Join(reasons, ", ")
}

func (r *Recommender) vehicles(prefs Preferences) []VehicleMatch {
	out := make([]VehicleMatch, 0, len(r.catalog.Vehicles))
	for _, v := range r.catalog.Vehicles {
		score := ScoreVehicle(v, prefs)
		out = append(out, VehicleMatch{
			CatalogVehicle:  v,
			Score:           score,
			Reason:          vehicleReason(v, prefs),
			MatchPercentage: int(math.Round(score * 100)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > maxVehicleMatches {
		out = out[:maxVehicleMatches]
	}
	return out
}

func (r *Recommender) accessories(profile stages.Profile, interested CatalogVehicle, hasInterest bool) []AccessoryMatch {
	var vehicleType, label string
	switch {
	case profile.Vehicle != nil:
		vehicleType = profile.Vehicle.Type
		label = profile.Vehicle.Describe()
	case hasInterest:
		vehicleType = interested.Type
		label = interested.Name
	default:
		return []AccessoryMatch{}
	}
	if label == "" {
		label = vehicleType
	}

	out := make([]AccessoryMatch, 0, maxAccessoryMatches)
	for _, a := range r.catalog.Accessories {
		if !a.Fits(vehicleType) {
			continue
		}
		out = append(out, AccessoryMatch{
			Accessory: a,
			Reason:    "Perfect fit for your " + label,
			Savings:   math.Round(a.Price * bundleSavingsRate),
		})
		if len(out) == maxAccessoryMatches {
			break
		}
	}
	return out
}

func (r *Recommender) services(profile stages.Profile, intent string) []ServiceMatch {
	out := []ServiceMatch{}
	if len(r.catalog.Services) == 0 {
		return out
	}
	if intent == "purchase" || intent == string(stages.CategorySales) {
		out = append(out, ServiceMatch{
			ServicePlan: r.catalog.Services[0],
			Reason:      "Protect your investment with comprehensive coverage",
			Priority:    "high",
		})
	}
	if profile.Vehicle != nil && profile.Vehicle.Mileage > maintenanceMileage && len(r.catalog.Services) > 1 {
		out = append(out, ServiceMatch{
			ServicePlan: r.catalog.Services[1],
			Reason:      "Save on routine maintenance costs",
			Priority:    "medium",
		})
	}
	return out
}

func financing(interested CatalogVehicle, hasInterest bool) []FinancingOption {
	price := float64(defaultVehiclePlan)
	if hasInterest && interested.Price > 0 {
		price = interested.Price
	}
	return []FinancingOption{
		{
			Type:           "loan",
			APR:            loanAPR,
			Term:           loanTermMonths,
			MonthlyPayment: math.Round(price * loanMonthlyRate),
			TotalCost:      math.Round(price * loanTotalFactor),
			Reason:         "Best rate for your credit profile",
		},
		{
			Type:           "lease",
			Term:           leaseTermMonths,
			MonthlyPayment: math.Round(price * leaseMonthlyRate),
			MileageLimit:   leaseMileage,
			Reason:         "Lower monthly payments with flexibility",
		},
	}
}
