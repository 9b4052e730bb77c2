// Package bricks holds the demos for the brick catalogue: one table for every
// kind of brick, tags shared between bricks and stock per vendor.
package bricks

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"ormtour/internal/db"
	"ormtour/internal/render"
	"ormtour/internal/tracking"
	"ormtour/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Demo struct {
	Factory *db.Factory
	Out     io.Writer
}

func New(factory *db.Factory) *Demo {
	return &Demo{Factory: factory, Out: os.Stdout}
}

// AddData stores vendors, tags and one brick of every kind. The base plate
// is tagged and stocked by two vendors.
func (d *Demo) AddData(ctx context.Context) error {
	s := d.Factory.NewSession()
	defer s.Close()

	brickKing := &models.Vendor{VendorName: "Brick King"}
	bunteSteine := &models.Vendor{VendorName: "Bunte Steine"}
	heldDerSteine := &models.Vendor{VendorName: "Held der Steine"}
	brickHeaven := &models.Vendor{VendorName: "Brick Heaven"}
	tracking.AddAll(s, brickKing, bunteSteine, heldDerSteine, brickHeaven)
	if _, err := s.SaveChanges(ctx); err != nil {
		return fmt.Errorf("add vendors: %w", err)
	}

	rare := &models.Tag{Title: "Rare"}
	ninjago := &models.Tag{Title: "Ninjago"}
	minecraft := &models.Tag{Title: "Minecraft"}
	tracking.AddAll(s, rare, ninjago, minecraft)
	if _, err := s.SaveChanges(ctx); err != nil {
		return fmt.Errorf("add tags: %w", err)
	}

	plate := models.NewBrick(
		"Baseplate 16 x 16 with Island on Blue Water Pattern",
		models.ColorOf(models.ColorGreen),
		models.BasePlate{Length: 16, Width: 16},
	)
	plate.Tags = []models.Tag{*rare, *minecraft}
	plate.Availability = []models.BrickAvailability{
		{VendorID: bunteSteine.ID, AvailableAmount: 5, PriceEur: decimal.RequireFromString("6.6")},
		{VendorID: heldDerSteine.ID, AvailableAmount: 10, PriceEur: decimal.RequireFromString("5.9")},
	}

	brick := models.NewBrick("Brick 1 x 2 x 1", models.ColorOf(models.ColorOrange), models.PlainBrick{})
	brick.Tags = []models.Tag{*rare, *ninjago}

	head := models.NewBrick(
		"Minifigure, Head Dual Sided Black Eyebrows, Wide Open Mouth / Lopsided Grin",
		models.ColorOf(models.ColorYellow),
		models.MinifigHead{IsDualSided: true},
	)

	tracking.AddAll(s, plate, brick, head)
	n, err := s.SaveChanges(ctx)
	if err != nil {
		return fmt.Errorf("add bricks: %w", err)
	}

	_, _ = fmt.Fprintf(d.Out, "Added %d bricks, %d vendors and %d tags\n", n, 4, 3)
	return nil
}

// QueryData prints every availability with its brick and vendor, then loads
// the tags of each brick separately and prints the tagged ones. It returns
// the bricks with their tags.
func (d *Demo) QueryData(ctx context.Context) ([]*models.Brick, error) {
	s := d.Factory.NewSession()
	defer s.Close()

	availabilities, err := Availabilities(ctx, s)
	if err != nil {
		return nil, err
	}
	render.Availabilities(d.Out, availabilities)

	bricks, err := Bricks(ctx, s)
	if err != nil {
		return nil, err
	}
	for _, b := range bricks {
		if err := LoadTags(ctx, s, b); err != nil {
			return nil, err
		}
		if len(b.Tags) == 0 {
			continue
		}
		titles := make([]string, 0, len(b.Tags))
		for _, tag := range b.Tags {
			titles = append(titles, tag.Title)
		}
		_, _ = fmt.Fprintf(d.Out, "Brick %s (%s)\n", b.Title, strings.Join(titles, ","))
	}
	render.Bricks(d.Out, bricks)
	return bricks, nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

// Availabilities loads every availability with its brick and vendor.
func Availabilities(ctx context.Context, s *tracking.Session) ([]*models.BrickAvailability, error) {
	return tracking.Query[models.BrickAvailability](ctx, s, orderByID, func(db *gorm.DB) *gorm.DB {
		return db.Preload("Brick").Preload("Vendor")
	})
}

// Bricks loads bricks of every kind. Rows that do not decode into a variant
// are reported as errors.
func Bricks(ctx context.Context, s *tracking.Session) ([]*models.Brick, error) {
	bricks, err := tracking.Query[models.Brick](ctx, s, orderByID)
	if err != nil {
		return nil, err
	}
	return bricks, checkVariants(bricks)
}

// BricksOfKind loads bricks of one kind only.
func BricksOfKind(ctx context.Context, s *tracking.Session, kind models.BrickKind) ([]*models.Brick, error) {
	bricks, err := tracking.Query[models.Brick](ctx, s, models.OfKind(kind), orderByID)
	if err != nil {
		return nil, err
	}
	return bricks, checkVariants(bricks)
}

// LoadTags fills b.Tags from the database.
func LoadTags(ctx context.Context, s *tracking.Session, b *models.Brick) error {
	b.Tags = nil
	return s.LoadCollection(ctx, b, "Tags", &b.Tags)
}

func checkVariants(bricks []*models.Brick) error {
	for _, b := range bricks {
		if _, err := b.Variant(); err != nil {
			return err
		}
	}
	return nil
}
