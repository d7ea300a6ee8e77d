// Package tools implements the side features offered next to chat: product
// recommendations and interactive service booking.
package tools

import "slices"

type CatalogVehicle struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Type     string   `json:"type" yaml:"type"`
	Price    float64  `json:"price" yaml:"price"`
	Features []string `json:"features" yaml:"features"`
	MPG      int      `json:"mpg,omitempty" yaml:"mpg,omitempty"`
	Range    int      `json:"range,omitempty" yaml:"range,omitempty"`
	Towing   int      `json:"towing,omitempty" yaml:"towing,omitempty"`
}

func (v CatalogVehicle) HasFeature(f string) bool {
	return slices.Contains(v.Features, f)
}

// Accessory compatibility lists vehicle types; "all" fits every vehicle.
type Accessory struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Price         float64  `json:"price" yaml:"price"`
	Category      string   `json:"category" yaml:"category"`
	Compatibility []string `json:"compatibility" yaml:"compatibility"`
}

func (a Accessory) Fits(vehicleType string) bool {
	return slices.Contains(a.Compatibility, "all") ||
		(vehicleType != "" && slices.Contains(a.Compatibility, vehicleType))
}

type ServicePlan struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Price    float64 `json:"price" yaml:"price"`
	Duration string  `json:"duration" yaml:"duration"`
	Coverage string  `json:"coverage" yaml:"coverage"`
}

// Catalog is the product inventory used for recommendations.
type Catalog struct {
	Vehicles    []CatalogVehicle `json:"vehicles" yaml:"vehicles"`
	Accessories []Accessory      `json:"accessories" yaml:"accessories"`
	Services    []ServicePlan    `json:"services" yaml:"services"`
}

func (c Catalog) Vehicle(id string) (CatalogVehicle, bool) {
	for _, v := range c.Vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return CatalogVehicle{}, false
}

// ServiceItem is a bookable workshop job. Interval is in miles; 0 means the
// job is not mileage-driven.
type ServiceItem struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Duration    int      `json:"durationMinutes" yaml:"durationMinutes"`
	Price       float64  `json:"price" yaml:"price"`
	Interval    int      `json:"interval,omitempty" yaml:"interval,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Includes    []string `json:"includes,omitempty" yaml:"includes,omitempty"`
	AddOns      []AddOn  `json:"addOns,omitempty" yaml:"addOns,omitempty"`
}

type AddOn struct {
	ID      string  `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Price   float64 `json:"price" yaml:"price"`
	Savings float64 `json:"savings" yaml:"savings"`
}

// ServiceMenu groups workshop jobs by kind.
type ServiceMenu struct {
	Routine     []ServiceItem `json:"routine" yaml:"routine"`
	Maintenance []ServiceItem `json:"maintenance" yaml:"maintenance"`
	Repair      []ServiceItem `json:"repair" yaml:"repair"`
}

// All returns every item in menu order.
func (m ServiceMenu) All() []ServiceItem {
	out := make([]ServiceItem, 0, len(m.Routine)+len(m.Maintenance)+len(m.Repair))
	out = append(out, m.Routine...)
	out = append(out, m.Maintenance...)
	return append(out, m.Repair...)
}

func (m ServiceMenu) Find(id string) (ServiceItem, bool) {
	for _, s := range m.All() {
		if s.ID == id {
			return s, true
		}
	}
	return ServiceItem{}, false
}
