package stages

import (
	"strconv"
	"time"
)

const (
	DefaultMajorServiceMileage = 30000
	DefaultSoonServiceMileage  = 15000
	DefaultOverdueMonths       = 6

	// elapsed months are counted in 30-day blocks.
	monthLength = 30 * 24 * time.Hour

	noteSoonService    = "Consider scheduling your next maintenance check soon."
	noteExpiredUpsell  = "Your warranty has expired. Consider our extended warranty options."
	warrantyExpiredTag = "Expired"
)

// PersonalizerConfig carries the mileage and recency thresholds.
type PersonalizerConfig struct {
	MajorServiceMileage int
	SoonServiceMileage  int
	OverdueMonths       int
	Now                 func() time.Time
}

// Personalizer merges a customer profile with the classified intent.
type Personalizer struct {
	cfg PersonalizerConfig
}

// NewPersonalizer fills zero thresholds with the Default* constants.
func NewPersonalizer(cfg PersonalizerConfig) *Personalizer {
	if cfg.MajorServiceMileage <= 0 {
		cfg.MajorServiceMileage = DefaultMajorServiceMileage
	}
	if cfg.SoonServiceMileage <= 0 {
		cfg.SoonServiceMileage = DefaultSoonServiceMileage
	}
	if cfg.OverdueMonths <= 0 {
		cfg.OverdueMonths = DefaultOverdueMonths
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Personalizer{cfg: cfg}
}

func greeting(name string) string {
	if name == "" || name == "Customer" || name == "Guest" {
		return "Hello"
	}
	return "Hello " + name
}

// Personalize builds the greeting, recommendations and insights for profile.
// The knowledge list is accepted for parity with the remote personalization
// step; no local rule reads it yet.
func (p *Personalizer) Personalize(profile Profile, intent IntentResult, _ []KnowledgeItem) PersonalContext {
	ctx := PersonalContext{
		Greeting:        greeting(profile.Name),
		VehicleInfo:     profile.Vehicle,
		Recommendations: []string{},
	}

	if intent.Category == CategoryService && profile.Vehicle != nil {
		mileage := profile.Vehicle.Mileage
		switch {
		case mileage > p.cfg.MajorServiceMileage:
			ctx.Recommendations = append(ctx.Recommendations, majorServiceNote(p.cfg.MajorServiceMileage))
		case mileage > p.cfg.SoonServiceMileage:
			ctx.Recommendations = append(ctx.Recommendations, noteSoonService)
		}
		if note, ok := p.overdueNote(profile.Vehicle.LastServiceDate); ok {
			ctx.Recommendations = append(ctx.Recommendations, note)
		}
	}

	if intent.Category == CategoryWarranty && profile.Warranty != nil {
		ctx.CustomerInsights.WarrantyStatus = profile.Warranty.Status
		ctx.CustomerInsights.WarrantyExpiry = profile.Warranty.EndDate
		if profile.Warranty.Status == warrantyExpiredTag {
			ctx.Recommendations = append(ctx.Recommendations, noteExpiredUpsell)
		}
	}

	if len(profile.ServiceHistory) > 0 {
		last := profile.ServiceHistory[0]
		ctx.CustomerInsights.LastService = &last
		ctx.CustomerInsights.TotalServices = len(profile.ServiceHistory)
	}

	return ctx
}

// majorServiceNote names the threshold in thousands when it is a round figure.
func majorServiceNote(mileage int) string {
	at := strconv.Itoa(mileage)
	if mileage%1000 == 0 {
		at = strconv.Itoa(mileage/1000) + "k"
	}
	return "Your vehicle may be due for a major service at " + at + " miles."
}

func (p *Personalizer) overdueNote(lastService string) (string, bool) {
	if lastService == "" {
		return "", false
	}
	at, err := time.Parse(time.DateOnly, lastService)
	if err != nil {
		return "", false
	}
	months := float64(p.cfg.Now().Sub(at)) / float64(monthLength)
	if months <= float64(p.cfg.OverdueMonths) {
		return "", false
	}
	return "It's been over " + strconv.Itoa(p.cfg.OverdueMonths) + " months since your last service.", true
}
