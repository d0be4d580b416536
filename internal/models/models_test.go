package models

import (
	"testing"

	"terroir/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(s string) *string     { return &s }

func TestProducerValidate(t *testing.T) {
	p := Producer{Name: "Ferme du Bois", Address: "44260 Savenay", Latitude: 47.36, Longitude: -1.94}
	assert.NoError(t, p.Validate())

	bad := p
	bad.Name = "X"
	assert.Error(t, bad.Validate())

	bad = p
	bad.Latitude = 91
	assert.Error(t, bad.Validate())

	bad = p
	bad.Address = ""
	assert.Error(t, bad.Validate())
}

func TestSaleModeValidate(t *testing.T) {
	m := SaleMode{ModeType: ModeOnSite, Title: "Vente à la ferme"}
	assert.NoError(t, m.Validate())

	m = SaleMode{ModeType: ModePhoneOrder, Title: "Commande"}
	assert.Error(t, m.Validate(), "phone orders require a phone number")
	m.PhoneNumber = "0240000000"
	assert.NoError(t, m.Validate())

	m = SaleMode{ModeType: "drive_through", Title: "Drive"}
	assert.Error(t, m.Validate())

	m = SaleMode{ModeType: ModeMarket, Title: "Marché", Latitude: floatPtr(47.3)}
	assert.Error(t, m.Validate(), "lat without lon")
	m.Longitude = floatPtr(-1.9)
	assert.NoError(t, m.Validate())
}

func TestSaleModeScheduleOwner(t *testing.T) {
	m := SaleMode{
		ModeType: ModeOnSite,
		Title:    "Vente à la ferme",
		OpeningHours: []schedule.RawDay{
			{DayOfWeek: 0, OpeningTime: strPtr("09:00"), ClosingTime: strPtr("18:00")},
			{DayOfWeek: 1, IsClosed: true},
		},
	}

	owner, warnings, err := m.ScheduleOwner()
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "Vente à la ferme", owner.Label)
	assert.Equal(t, ModeOnSite, owner.Kind)
	assert.False(t, owner.Week.Days[0].Closed)
	assert.True(t, owner.Week.Days[1].Closed)

	m.OpeningHours[0].ClosingTime = strPtr("08:00")
	_, _, err = m.ScheduleOwner()
	assert.Error(t, err)
}

func TestProductValidateAndAvailability(t *testing.T) {
	p := Product{Name: "Miel", AvailabilityType: AvailabilityAllYear}
	assert.NoError(t, p.Validate())
	assert.True(t, p.AvailableIn(1))
	assert.True(t, p.AvailableIn(12))

	p = Product{Name: "Fraises", AvailabilityType: AvailabilityCustom, StartMonth: intPtr(5), EndMonth: intPtr(8)}
	assert.NoError(t, p.Validate())
	assert.True(t, p.AvailableIn(6))
	assert.False(t, p.AvailableIn(12))

	// Ranges may wrap across the year end.
	p = Product{Name: "Choux", AvailabilityType: AvailabilityCustom, StartMonth: intPtr(11), EndMonth: intPtr(2)}
	assert.NoError(t, p.Validate())
	assert.True(t, p.AvailableIn(12))
	assert.True(t, p.AvailableIn(1))
	assert.False(t, p.AvailableIn(6))

	p = Product{Name: "Fraises", AvailabilityType: AvailabilityCustom}
	assert.Error(t, p.Validate())

	p = Product{Name: "Fraises", AvailabilityType: "seasonal"}
	assert.Error(t, p.Validate())
}
