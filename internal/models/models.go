// Package models holds the domain records shared by the database and API
// layers.
package models

import (
	"fmt"
	"time"

	"terroir/internal/geo"
	"terroir/internal/schedule"
)

// User is an account; producers get exactly one Producer profile.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsProducer   bool      `json:"is_producer"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Producer activity categories are configured in categories.yaml and
// synced into the DB; "autre" is the fallback.
const DefaultCategory = "autre"

// Producer is a local-producer profile shown on the map and list.
type Producer struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category"`
	Address      string    `json:"address"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Phone        string    `json:"phone,omitempty"`
	EmailContact string    `json:"email_contact,omitempty"`
	Website      string    `json:"website,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Photos    []Photo    `json:"photos,omitempty"`
	SaleModes []SaleMode `json:"sale_modes,omitempty"`
}

// Validate checks the fields a producer profile must carry.
func (p *Producer) Validate() error {
	if len(p.Name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	if p.Address == "" {
		return fmt.Errorf("address is required")
	}
	if err := geo.ValidateCoordinates(p.Latitude, p.Longitude); err != nil {
		return err
	}
	return nil
}

// Location returns the producer's coordinates as a geo point.
func (p *Producer) Location() geo.Point {
	return geo.Point{Latitude: p.Latitude, Longitude: p.Longitude}
}

// Photo is a stored image belonging to a producer or a product.
type Photo struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"-"`
	FileName  string    `json:"file_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Sale mode types.
const (
	ModeOnSite         = "on_site"
	ModePhoneOrder     = "phone_order"
	ModeVendingMachine = "vending_machine"
	ModeDelivery       = "delivery"
	ModeMarket         = "market"
)

// ValidModeType reports whether the mode type is one of the known kinds.
func ValidModeType(t string) bool {
	switch t {
	case ModeOnSite, ModePhoneOrder, ModeVendingMachine, ModeDelivery, ModeMarket:
		return true
	}
	return false
}

// SaleMode is one way a producer sells, each with its own weekly schedule.
type SaleMode struct {
	ID           int64    `json:"id"`
	ProducerID   int64    `json:"producer_id"`
	ModeType     string   `json:"mode_type"`
	Title        string   `json:"title"`
	Instructions string   `json:"instructions,omitempty"`
	PhoneNumber  string   `json:"phone_number,omitempty"`
	WebsiteURL   string   `json:"website_url,omitempty"`
	Is24x7       bool     `json:"is_24_7"`
	Address      string   `json:"location_address,omitempty"`
	Latitude     *float64 `json:"location_latitude,omitempty"`
	Longitude    *float64 `json:"location_longitude,omitempty"`
	MarketInfo   string   `json:"market_info,omitempty"`
	Order        int      `json:"order"`

	OpeningHours []schedule.RawDay `json:"opening_hours"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks type-specific constraints: phone orders need a phone
// number, optional point-of-sale coordinates must be in range.
func (m *SaleMode) Validate() error {
	if !ValidModeType(m.ModeType) {
		return fmt.Errorf("unknown mode type: %q", m.ModeType)
	}
	if m.Title == "" {
		return fmt.Errorf("title is required")
	}
	if m.ModeType == ModePhoneOrder && m.PhoneNumber == "" {
		return fmt.Errorf("phone number is required for phone orders")
	}
	if (m.Latitude == nil) != (m.Longitude == nil) {
		return fmt.Errorf("location latitude and longitude must be set together")
	}
	if m.Latitude != nil {
		if err := geo.ValidateCoordinates(*m.Latitude, *m.Longitude); err != nil {
			return err
		}
	}
	return nil
}

// ScheduleOwner converts the sale mode into the schedule engine's owner
// shape. Opening hours are normalized at this boundary; the warnings carry
// duplicate-day entries that were discarded.
func (m *SaleMode) ScheduleOwner() (schedule.Owner, []schedule.AmbiguousDayError, error) {
	week, warnings, err := schedule.Normalize(m.OpeningHours, m.Is24x7)
	if err != nil {
		return schedule.Owner{}, warnings, err
	}
	return schedule.Owner{Label: m.Title, Kind: m.ModeType, Week: week}, warnings, nil
}

// Product availability kinds.
const (
	AvailabilityAllYear = "all_year"
	AvailabilityCustom  = "custom"
)

// Product is an item a producer offers, possibly only part of the year.
type Product struct {
	ID          int64  `json:"id"`
	ProducerID  int64  `json:"producer_id"`
	CategoryID  *int64 `json:"category_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	AvailabilityType string `json:"availability_type"`
	StartMonth       *int   `json:"availability_start_month,omitempty"`
	EndMonth         *int   `json:"availability_end_month,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Photos []Photo `json:"photos,omitempty"`
}

// Validate checks name and availability consistency.
func (p *Product) Validate() error {
	if len(p.Name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	switch p.AvailabilityType {
	case AvailabilityAllYear:
		return nil
	case AvailabilityCustom:
		if p.StartMonth == nil || p.EndMonth == nil {
			return fmt.Errorf("custom availability requires start and end months")
		}
		if *p.StartMonth < 1 || *p.StartMonth > 12 || *p.EndMonth < 1 || *p.EndMonth > 12 {
			return fmt.Errorf("availability months must be 1-12")
		}
		return nil
	default:
		return fmt.Errorf("unknown availability type: %q", p.AvailabilityType)
	}
}

// AvailableIn reports whether the product is offered during the given
// month (1-12). Custom ranges may wrap across the year end, e.g.
// November-February.
func (p *Product) AvailableIn(month int) bool {
	if p.AvailabilityType != AvailabilityCustom || p.StartMonth == nil || p.EndMonth == nil {
		return true
	}
	start, end := *p.StartMonth, *p.EndMonth
	if start <= end {
		return month >= start && month <= end
	}
	return month >= start || month <= end
}

// ProductCategory is a configurable product grouping with an icon.
type ProductCategory struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	DisplayName string `json:"display_name"`
	Order       int    `json:"order"`
}
