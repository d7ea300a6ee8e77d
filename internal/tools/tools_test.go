package tools

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ent0n29/contactcenter/internal/stages"
)

func testCatalog() Catalog {
	return Catalog{
		Vehicles: []CatalogVehicle{
			{ID: "v1", Name: "EcoSedan 2024", Type: "sedan", Price: 28000, Features: []string{"hybrid", "tech-package", "safety"}, MPG: 52},
			{ID: "v2", Name: "FamilySUV Pro", Type: "suv", Price: 42000, Features: []string{"3rd-row", "awd", "premium-audio"}, MPG: 28},
			{ID: "v3", Name: "SportCoupe GT", Type: "coupe", Price: 38000, Features: []string{"performance", "luxury", "tech"}, MPG: 25},
			{ID: "v4", Name: "ElectricCrossover", Type: "electric", Price: 45000, Features: []string{"electric", "autopilot", "premium"}, Range: 320},
		},
		Accessories: []Accessory{
			{ID: "a1", Name: "All-Weather Floor Mats", Price: 150, Category: "interior", Compatibility: []string{"all"}},
			{ID: "a2", Name: "Roof Rack System", Price: 450, Category: "exterior", Compatibility: []string{"suv", "truck"}},
			{ID: "a3", Name: "Premium Sound System", Price: 1200, Category: "entertainment", Compatibility: []string{"all"}},
		},
		Services: []ServicePlan{
			{ID: "s1", Name: "Extended Warranty", Price: 2500, Duration: "5 years", Coverage: "comprehensive"},
			{ID: "s2", Name: "Maintenance Package", Price: 800, Duration: "3 years", Coverage: "routine"},
		},
	}
}

func testMenu() ServiceMenu {
	return ServiceMenu{
		Routine: []ServiceItem{
			{ID: "oil_change", Name: "Oil Change", Duration: 30, Price: 75, Interval: 5000},
			{ID: "tire_rotation", Name: "Tire Rotation", Duration: 45, Price: 50, Interval: 7500},
			{ID: "inspection", Name: "Multi-Point Inspection", Duration: 60, Price: 0, Interval: 10000},
		},
		Maintenance: []ServiceItem{
			{ID: "brake_service", Name: "Brake Service", Duration: 90, Price: 350, Interval: 30000},
		},
		Repair: []ServiceItem{
			{ID: "diagnostic", Name: "Diagnostic Service", Duration: 60, Price: 125, Description: "Advanced computer diagnostic"},
		},
	}
}

func TestScoreVehicleCapsAtOne(t *testing.T) {
	prefs := Preferences{Budget: 30000, Lifestyle: "eco-conscious"}.withDefaults()
	got := ScoreVehicle(testCatalog().Vehicles[0], prefs)
	assert.Equal(t, 1.0, got)
}

func TestRecommendEcoShopper(t *testing.T) {
	r := NewRecommender(testCatalog())
	got := r.Recommend(RecommendRequest{
		Profile:     stages.Profile{Name: "Sarah"},
		Preferences: Preferences{Budget: 30000, Lifestyle: "eco-conscious"},
	})

	require.Len(t, got.Recommendations.Vehicles, 3)
	top := got.Recommendations.Vehicles[0]
	assert.Equal(t, "v1", top.ID)
	assert.Equal(t, 100, top.MatchPercentage)
	assert.Equal(t, "within budget, excellent fuel economy, top safety ratings", top.Reason)
	assert.Equal(t, 0.85, got.Confidence)
	assert.Equal(t, "Based on your preferences and Sarah's profile", got.Reasoning.Summary)
	assert.Empty(t, got.Recommendations.Accessories)
	assert.Empty(t, got.Recommendations.Services)
}

func TestRecommendFinancingDefaults(t *testing.T) {
	r := NewRecommender(testCatalog())

	got := r.Recommend(RecommendRequest{})
	assert.Equal(t, 0.65, got.Confidence)
	require.Len(t, got.Recommendations.Financing, 2)
	loan, lease := got.Recommendations.Financing[0], got.Recommendations.Financing[1]
	assert.Equal(t, 644.0, loan.MonthlyPayment)
	assert.Equal(t, 38640.0, loan.TotalCost)
	assert.Equal(t, 60, loan.Term)
	assert.Equal(t, 420.0, lease.MonthlyPayment)
	assert.Equal(t, 12000, lease.MileageLimit)

	got = r.Recommend(RecommendRequest{InterestedVehicle: "v4"})
	assert.Equal(t, 828.0, got.Recommendations.Financing[0].MonthlyPayment)
	assert.Equal(t, 540.0, got.Recommendations.Financing[1].MonthlyPayment)
}

func TestRecommendAccessoriesAndServices(t *testing.T) {
	r := NewRecommender(testCatalog())
	profile := stages.Profile{
		Name:    "Mike",
		Vehicle: &stages.Vehicle{Make: "Ford", Model: "Explorer", Year: 2019, Mileage: 45000, Type: "suv"},
	}

	got := r.Recommend(RecommendRequest{Profile: profile, Intent: "sales"})
	acc := got.Recommendations.Accessories
	require.Len(t, acc, 3)
	assert.Equal(t, "a2", acc[1].ID)
	assert.Equal(t, 45.0, acc[1].Savings)
	assert.Equal(t, "Perfect fit for your 2019 Ford Explorer", acc[0].Reason)

	svc := got.Recommendations.Services
	require.Len(t, svc, 2)
	assert.Equal(t, "s1", svc[0].ID)
	assert.Equal(t, "high", svc[0].Priority)
	assert.Equal(t, "s2", svc[1].ID)

	profile.Vehicle.Type = "sedan"
	got = r.Recommend(RecommendRequest{Profile: profile})
	ids := []string{}
	for _, a := range got.Recommendations.Accessories {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a1", "a3"}, ids)
}

func TestServicerDue(t *testing.T) {
	s := NewServicer(testMenu(), nil)

	due := s.Due(30200)
	require.Len(t, due, 3)
	assert.Equal(t, "oil_change", due[0].ID)
	assert.Equal(t, "4800 miles", due[0].DueIn)
	assert.Equal(t, "Due at 5000 miles", due[0].Reason)
	assert.Equal(t, "tire_rotation", due[1].ID)
	assert.Equal(t, "7300 miles", due[1].DueIn)

	assert.Empty(t, s.Due(12000))
}

func TestServicerStart(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewServicer(testMenu(), func() time.Time { return now })

	got := s.Start(BookingRequest{
		CustomerID:         "CUST001",
		Vehicle:            stages.Vehicle{Make: "Toyota", Model: "Camry", Year: 2022, Mileage: 20000},
		LastServiceMileage: 10000,
		CheckEngine:        true,
	})

	assert.Contains(t, got.Session.ID, "service_")
	assert.Equal(t, now, got.Session.StartedAt)
	assert.Equal(t, "welcome", got.Session.Stage)
	assert.Contains(t, got.Message, "your 2022 Toyota Camry")
	assert.Contains(t, got.Message, "Last service: Not recorded")
	assert.Len(t, got.QuickActions, 4)
	require.Len(t, got.UrgentAlerts, 2)
	assert.Equal(t, "urgent", got.UrgentAlerts[0].Level)
	assert.Equal(t, "warning", got.UrgentAlerts[1].Level)

	got = s.Start(BookingRequest{Vehicle: stages.Vehicle{Mileage: 20000}})
	assert.Empty(t, got.UrgentAlerts)
}

func TestServicerDetails(t *testing.T) {
	s := NewServicer(testMenu(), nil)

	got, err := s.Details("diagnostic")
	require.NoError(t, err)
	assert.Equal(t, "Advanced computer diagnostic", got.Description)
	assert.Equal(t, "schedule", got.NextStep)

	got, err = s.Details("oil_change")
	require.NoError(t, err)
	assert.Equal(t, "Professional service by certified technicians", got.Description)

	_, err = s.Details("teleport")
	assert.True(t, errors.Is(err, ErrUnknownService))
}
