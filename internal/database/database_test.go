package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terroir/internal/config"
	"terroir/internal/geo"
	"terroir/internal/models"
	"terroir/internal/schedule"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *DB, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "x", FirstName: "Jean", IsProducer: true}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func seedProducer(t *testing.T, db *DB, userID int64, name string, lat, lon float64) *models.Producer {
	t.Helper()
	p := &models.Producer{
		UserID:    userID,
		Name:      name,
		Category:  "maraicher",
		Address:   "1 rue du Marché",
		Latitude:  lat,
		Longitude: lon,
	}
	require.NoError(t, db.CreateProducer(context.Background(), p))
	return p
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedUser(t, db, "ferme@example.com")

	dup := &models.User{Email: "Ferme@Example.com", PasswordHash: "y"}
	err := db.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateProducerOnePerUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := seedUser(t, db, "ferme@example.com")
	seedProducer(t, db, u.ID, "Ferme du Coin", 47.2, -1.55)

	second := &models.Producer{
		UserID: u.ID, Name: "Autre Ferme", Category: "autre",
		Address: "2 rue Neuve", Latitude: 47.3, Longitude: -1.5,
	}
	err := db.CreateProducer(ctx, second)
	assert.ErrorIs(t, err, ErrProfileExists)

	got, err := db.GetProducerByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ferme du Coin", got.Name)
}

func TestListProducersFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u1 := seedUser(t, db, "a@example.com")
	u2 := seedUser(t, db, "b@example.com")
	u3 := seedUser(t, db, "c@example.com")

	seedProducer(t, db, u1.ID, "Ferme de Nantes", 47.218, -1.553)
	p2 := seedProducer(t, db, u2.ID, "Miel des Coteaux", 47.25, -1.50)
	p2.Category = "apiculteur"
	require.NoError(t, db.UpdateProducer(ctx, p2))
	seedProducer(t, db, u3.ID, "Ferme de Paris", 48.856, 2.352)

	t.Run("search by name", func(t *testing.T) {
		list, err := db.ListProducers(ctx, ProducerFilter{Search: "miel"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, p2.ID, list[0].ID)
	})

	t.Run("filter by category", func(t *testing.T) {
		list, err := db.ListProducers(ctx, ProducerFilter{Categories: []string{"apiculteur"}})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Miel des Coteaux", list[0].Name)
	})

	t.Run("bounding box keeps nearby only", func(t *testing.T) {
		box := geo.BoxAround(geo.Point{Latitude: 47.218, Longitude: -1.553}, 20)
		list, err := db.ListProducers(ctx, ProducerFilter{Box: &box})
		require.NoError(t, err)
		require.Len(t, list, 2)
		for _, p := range list {
			assert.NotEqual(t, "Ferme de Paris", p.Name)
		}
	})

	t.Run("no filter returns all", func(t *testing.T) {
		list, err := db.ListProducers(ctx, ProducerFilter{})
		require.NoError(t, err)
		assert.Len(t, list, 3)
	})
}

func TestSaleModeOpeningHoursRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := seedUser(t, db, "ferme@example.com")
	p := seedProducer(t, db, u.ID, "Ferme du Coin", 47.2, -1.55)

	open := "09:00"
	clos := "18:00"
	m := &models.SaleMode{
		ProducerID: p.ID,
		ModeType:   models.ModeOnSite,
		Title:      "Vente à la ferme",
		OpeningHours: []schedule.RawDay{
			{DayOfWeek: 0, OpeningTime: &open, ClosingTime: &clos},
			{DayOfWeek: 5, OpeningTime: &open, ClosingTime: &clos},
			{DayOfWeek: 6, IsClosed: true},
		},
	}
	require.NoError(t, db.CreateSaleMode(ctx, m))
	require.NotZero(t, m.ID)

	got, err := db.GetSaleMode(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, got.OpeningHours, 3)
	assert.Equal(t, 0, got.OpeningHours[0].DayOfWeek)
	require.NotNil(t, got.OpeningHours[0].OpeningTime)
	assert.Equal(t, "09:00", *got.OpeningHours[0].OpeningTime)
	assert.True(t, got.OpeningHours[2].IsClosed)

	t.Run("update replaces hours", func(t *testing.T) {
		late := "20:00"
		got.OpeningHours = []schedule.RawDay{
			{DayOfWeek: 2, OpeningTime: &open, ClosingTime: &late},
		}
		require.NoError(t, db.UpdateSaleMode(ctx, got))

		again, err := db.GetSaleMode(ctx, m.ID)
		require.NoError(t, err)
		require.Len(t, again.OpeningHours, 1)
		assert.Equal(t, 2, again.OpeningHours[0].DayOfWeek)
	})

	t.Run("delete removes mode", func(t *testing.T) {
		require.NoError(t, db.DeleteSaleMode(ctx, m.ID))
		_, err := db.GetSaleMode(ctx, m.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSyncProductCategories(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	cfg := &config.CategoriesConfig{
		Activities: []config.ActivityCategory{{Name: "maraicher", DisplayName: "Maraîcher"}},
		Products: []config.ProductCategoryConfig{
			{Name: "legumes", DisplayName: "Légumes", Icon: "🥕", Order: 1},
			{Name: "fruits", DisplayName: "Fruits", Icon: "🍎", Order: 2},
		},
	}
	require.NoError(t, db.SyncProductCategories(ctx, cfg))

	cats, err := db.ListProductCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "legumes", cats[0].Name)

	// Resync with one category gone and one renamed display name.
	cfg.Products = []config.ProductCategoryConfig{
		{Name: "legumes", DisplayName: "Légumes frais", Icon: "🥕", Order: 1},
	}
	require.NoError(t, db.SyncProductCategories(ctx, cfg))

	cats, err = db.ListProductCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Légumes frais", cats[0].DisplayName)
}

func TestListProductsMonthFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := seedUser(t, db, "ferme@example.com")
	p := seedProducer(t, db, u.ID, "Ferme du Coin", 47.2, -1.55)

	all := &models.Product{ProducerID: p.ID, Name: "Oeufs", AvailabilityType: models.AvailabilityAllYear}
	require.NoError(t, db.CreateProduct(ctx, all))

	start, end := 11, 2 // wraps over the new year
	winter := &models.Product{
		ProducerID: p.ID, Name: "Courges",
		AvailabilityType: models.AvailabilityCustom,
		StartMonth:       &start, EndMonth: &end,
	}
	require.NoError(t, db.CreateProduct(ctx, winter))

	list, err := db.ListProducts(ctx, ProductFilter{ProducerID: p.ID, Month: 1})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = db.ListProducts(ctx, ProductFilter{ProducerID: p.ID, Month: 6})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Oeufs", list[0].Name)
}

func TestPhotoLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := seedUser(t, db, "ferme@example.com")
	p := seedProducer(t, db, u.ID, "Ferme du Coin", 47.2, -1.55)

	ph, err := db.CreateProducerPhoto(ctx, p.ID, "abc123.jpg")
	require.NoError(t, err)

	photos, err := db.ListProducerPhotos(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, "abc123.jpg", photos[0].FileName)

	require.NoError(t, db.DeleteProducerPhoto(ctx, ph.ID))
	assert.ErrorIs(t, db.DeleteProducerPhoto(ctx, ph.ID), ErrNotFound)
}
