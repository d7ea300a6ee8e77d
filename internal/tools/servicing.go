package tools

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ent0n29/contactcenter/internal/stages"
)

const (
	dueWindowMiles        = 1000
	overdueMiles          = 7500
	maxServiceSuggestions = 3
	serviceWarranty       = "12 months / 12,000 miles"
)

var ErrUnknownService = errors.New("unknown service")

type BookingRequest struct {
	CustomerID string         `json:"customerId"`
	Vehicle    stages.Vehicle `json:"vehicle"`
	// LastServiceMileage of 0 means the odometer reading was not recorded.
	LastServiceMileage int  `json:"lastServiceMileage,omitempty"`
	CheckEngine        bool `json:"checkEngine,omitempty"`
}

type ServiceRecommendation struct {
	ServiceItem
	Reason   string `json:"reason"`
	Priority string `json:"priority"`
	DueIn    string `json:"dueIn"`
}

type Alert struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Action  string `json:"action"`
}

type ServiceOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type BookingSession struct {
	ID         string         `json:"id"`
	CustomerID string         `json:"customerId"`
	Vehicle    stages.Vehicle `json:"vehicle"`
	StartedAt  time.Time      `json:"startTime"`
	Stage      string         `json:"stage"`
}

type BookingResult struct {
	Session         BookingSession          `json:"session"`
	Message         string                  `json:"message"`
	QuickActions    []ServiceOption         `json:"quickActions"`
	Recommendations []ServiceRecommendation `json:"recommendations"`
	UrgentAlerts    []Alert                 `json:"urgentAlerts"`
}

type ServiceDetails struct {
	ServiceItem
	Warranty     string `json:"warranty"`
	GenuineParts bool   `json:"genuineParts"`
	NextStep     string `json:"nextStep"`
}

var bookingOptions = []ServiceOption{
	{ID: "routine", Label: "Routine Maintenance"},
	{ID: "repair", Label: "Repair Service"},
	{ID: "diagnostic", Label: "Diagnostic Check"},
	{ID: "custom", Label: "Custom Service"},
}

// Servicer opens interactive service-booking sessions.
type Servicer struct {
	menu ServiceMenu
	now  func() time.Time
}

func NewServicer(menu ServiceMenu, now func() time.Time) *Servicer {
	if now == nil {
		now = time.Now
	}
	return &Servicer{menu: menu, now: now}
}

func (s *Servicer) Start(req BookingRequest) BookingResult {
	return BookingResult{
		Session: BookingSession{
			ID:         "service_" + uuid.NewString(),
			CustomerID: req.CustomerID,
			Vehicle:    req.Vehicle,
			StartedAt:  s.now().UTC(),
			Stage:      "welcome",
		},
		Message:         welcomeMessage(req.Vehicle),
		QuickActions:    append([]ServiceOption(nil), bookingOptions...),
		Recommendations: s.Due(req.Vehicle.Mileage),
		UrgentAlerts:    urgentAlerts(req),
	}
}

// Due lists mileage-driven jobs whose interval falls within the next 1000
// miles of mileage, in menu order, at most three.
func (s *Servicer) Due(mileage int) []ServiceRecommendation {
	out := []ServiceRecommendation{}
	for _, item := range s.menu.All() {
		if item.Interval <= 0 {
			continue
		}
		rem := mileage % item.Interval
		if rem >= dueWindowMiles {
			continue
		}
		out = append(out, ServiceRecommendation{
			ServiceItem: item,
			Reason:      "Due at " + strconv.Itoa(item.Interval) + " miles",
			Priority:    "high",
			DueIn:       strconv.Itoa(item.Interval-rem) + " miles",
		})
		if len(out) == maxServiceSuggestions {
			break
		}
	}
	return out
}

// Details describes a single job for the selection step.
func (s *Servicer) Details(id string) (ServiceDetails, error) {
	item, ok := s.menu.Find(id)
	if !ok {
		return ServiceDetails{}, fmt.Errorf("%w: %q", ErrUnknownService, id)
	}
	if item.Description == "" {
		item.Description = "Professional service by certified technicians"
	}
	if len(item.Includes) == 0 {
		item.Includes = []string{"Professional service", "Quality parts", "Warranty included"}
	}
	return ServiceDetails{
		ServiceItem:  item,
		Warranty:     serviceWarranty,
		GenuineParts: true,
		NextStep:     "schedule",
	}, nil
}

func welcomeMessage(v stages.Vehicle) string {
	last := v.LastServiceDate
	if last == "" {
		last = "Not recorded"
	}
	return fmt.Sprintf("Welcome! I'll help you schedule service for your %s.\n\nCurrent mileage: %d miles\nLast service: %s\n\nLet's find the right service for your vehicle.",
		v.Describe(), v.Mileage, last)
}

func urgentAlerts(req BookingRequest) []Alert {
	alerts := []Alert{}
	if req.CheckEngine {
		alerts = append(alerts, Alert{
			Level:   "urgent",
			Message: "Check Engine Light is on",
			Action:  "Schedule diagnostic immediately",
		})
	}
	if req.LastServiceMileage > 0 && req.Vehicle.Mileage-req.LastServiceMileage > overdueMiles {
		alerts = append(alerts, Alert{
			Level:   "warning",
			Message: "Service overdue",
			Action:  "Schedule maintenance soon",
		})
	}
	return alerts
}
