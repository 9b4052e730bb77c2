// Package render prints entities as console tables.
package render

import (
	"fmt"
	"io"
	"strings"

	"ormtour/models"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(w io.Writer, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row(header))
	return t
}

func finish(w io.Writer, t table.Writer, n int) {
	if n == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", n)
}

func optional[T any](v *T) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", *v)
}

// Dishes prints one row per dish with its ingredient count.
func Dishes(w io.Writer, dishes []*models.Dish) {
	t := newTable(w, "ID", "Title", "Notes", "Stars", "Ingredients")
	for _, d := range dishes {
		t.AppendRow(table.Row{d.ID, d.Title, optional(d.Notes), optional(d.Stars), len(d.Ingredients)})
	}
	finish(w, t, len(dishes))
}

// Ingredients prints the ingredients of one dish.
func Ingredients(w io.Writer, ingredients []models.DishIngredient) {
	t := newTable(w, "ID", "Amount", "Unit", "Description")
	for _, i := range ingredients {
		t.AppendRow(table.Row{i.ID, i.Amount.StringFixed(2), i.UnitOfMeasure, i.Description})
	}
	finish(w, t, len(ingredients))
}

// Bricks prints bricks with their kind-specific columns and tags.
func Bricks(w io.Writer, bricks []*models.Brick) {
	t := newTable(w, "ID", "Kind", "Title", "Color", "Details", "Tags")
	for _, b := range bricks {
		t.AppendRow(table.Row{b.ID, b.Kind, b.Title, optional(b.Color), details(b), tagList(b.Tags)})
	}
	finish(w, t, len(bricks))
}

// Availabilities prints stock per vendor. Brick and vendor are shown when
// they were loaded with the row.
func Availabilities(w io.Writer, availabilities []*models.BrickAvailability) {
	t := newTable(w, "ID", "Brick", "Vendor", "Amount", "Price (EUR)")
	for _, a := range availabilities {
		brick := fmt.Sprintf("#%d", a.BrickID)
		if a.Brick != nil {
			brick = a.Brick.Title
		}
		vendor := fmt.Sprintf("#%d", a.VendorID)
		if a.Vendor != nil {
			vendor = a.Vendor.VendorName
		}
		t.AppendRow(table.Row{a.ID, brick, vendor, a.AvailableAmount, a.PriceEur.StringFixed(2)})
	}
	finish(w, t, len(availabilities))
}

func details(b *models.Brick) string {
	variant, err := b.Variant()
	if err != nil {
		return "invalid"
	}
	switch v := variant.(type) {
	case models.BasePlate:
		return fmt.Sprintf("%d x %d", v.Length, v.Width)
	case models.MinifigHead:
		if v.IsDualSided {
			return "dual sided"
		}
		return "single sided"
	default:
		return ""
	}
}

func tagList(tags []models.Tag) string {
	titles := make([]string, 0, len(tags))
	for _, tag := range tags {
		titles = append(titles, tag.Title)
	}
	return strings.Join(titles, ",")
}
