// Package mock builds throwaway in-memory sqlite databases with the cookbook
// and bricks schemas and a little representative data.
package mock

import (
	"context"
	"fmt"

	"ormtour/internal/config"
	"ormtour/internal/db"
	"ormtour/internal/db/migrations"
	applog "ormtour/internal/log"
	"ormtour/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Config describes a fresh in-memory sqlite database. Every call names a new
// database so callers never share state.
func Config(logSQL bool) config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver: config.DriverSQLite,
		URL:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()),
		LogSQL: logSQL,
	}
}

// Open returns an empty in-memory database.
func Open(ctx context.Context, logSQL bool) (*gorm.DB, error) {
	cfg := Config(logSQL)
	applog.Debug(ctx, "opening mock database", "url", cfg.URL)
	return db.Initialize(cfg)
}

// NewCookbook returns a database migrated to the latest cookbook schema and
// seeded with a soup and a porridge.
func NewCookbook(ctx context.Context, logSQL bool) (*gorm.DB, error) {
	database, err := Open(ctx, logSQL)
	if err != nil {
		return nil, err
	}

	if err := migrations.Up(ctx, database); err != nil {
		return nil, err
	}

	if err := seedCookbook(ctx, database); err != nil {
		return nil, fmt.Errorf("seed cookbook: %w", err)
	}

	applog.Debug(ctx, "mock cookbook database ready")
	return database, nil
}

// NewBricks returns a database with the bricks schema, a few vendors and
// tags, and one brick of every kind.
func NewBricks(ctx context.Context, logSQL bool) (*gorm.DB, error) {
	database, err := Open(ctx, logSQL)
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	if err := seedBricks(ctx, database); err != nil {
		return nil, fmt.Errorf("seed bricks: %w", err)
	}

	applog.Debug(ctx, "mock bricks database ready")
	return database, nil
}

func seedCookbook(ctx context.Context, database *gorm.DB) error {
	soup := models.Dish{
		Title: "Thai Soup",
		Notes: models.Text("Thai soup is really good"),
		Stars: models.Int(5),
		Ingredients: []models.DishIngredient{
			{Description: "Red Chilli", UnitOfMeasure: "Pieces", Amount: decimal.NewFromInt(3)},
			{Description: "Salt", UnitOfMeasure: "Table spoon", Amount: decimal.NewFromInt(7)},
		},
	}
	porridge := models.Dish{
		Title: "Breakfast Porridge",
		Notes: models.Text("This is soooo good"),
		Stars: models.Int(4),
	}

	for _, dish := range []*models.Dish{&soup, &porridge} {
		if err := database.WithContext(ctx).Create(dish).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedBricks(ctx context.Context, database *gorm.DB) error {
	tx := database.WithContext(ctx)

	bunteSteine := models.Vendor{VendorName: "Bunte Steine"}
	heldDerSteine := models.Vendor{VendorName: "Held der Steine"}
	if err := tx.Create([]*models.Vendor{&bunteSteine, &heldDerSteine}).Error; err != nil {
		return err
	}

	rare := models.Tag{Title: "Rare"}
	minecraft := models.Tag{Title: "Minecraft"}
	if err := tx.Create([]*models.Tag{&rare, &minecraft}).Error; err != nil {
		return err
	}

	plate := models.NewBrick("Baseplate 16 x 16", models.ColorOf(models.ColorGreen), models.BasePlate{Length: 16, Width: 16})
	plate.Tags = []models.Tag{rare, minecraft}
	plate.Availability = []models.BrickAvailability{
		{VendorID: bunteSteine.ID, AvailableAmount: 5, PriceEur: decimal.RequireFromString("6.60")},
		{VendorID: heldDerSteine.ID, AvailableAmount: 10, PriceEur: decimal.RequireFromString("5.90")},
	}
	brick := models.NewBrick("Brick 1 x 2 x 1", models.ColorOf(models.ColorOrange), models.PlainBrick{})
	brick.Tags = []models.Tag{rare}
	head := models.NewBrick("Minifigure, Head Dual Sided", models.ColorOf(models.ColorYellow), models.MinifigHead{IsDualSided: true})

	for _, b := range []*models.Brick{plate, brick, head} {
		if err := tx.Create(b).Error; err != nil {
			return err
		}
	}
	return nil
}
