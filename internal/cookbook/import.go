package cookbook

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	applog "ormtour/internal/log"
	"ormtour/internal/tracking"
	"ormtour/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Import columns. A dish spans one row per ingredient; rows without an
// ingredient only carry the dish itself.
const (
	columnDish       = "Dish"
	columnNotes      = "Notes"
	columnStars      = "Stars"
	columnIngredient = "Ingredient"
	columnAmount     = "Amount"
	columnUnit       = "Unit"
)

var (
	numberPattern   = regexp.MustCompile(`[-+]?\d*\.?\d+`)
	cleanWhitespace = regexp.MustCompile(`\s+`)
)

type importedDish struct {
	line        int
	title       string
	notes       *string
	stars       *int
	ingredients []models.DishIngredient
}

// Import reads dishes from a CSV file and stores each one in its own
// transaction. A dish whose title already exists is updated and its
// ingredients are replaced. It returns the number of dishes written.
func (d *Demo) Import(ctx context.Context, path string) (int, error) {
	if strings.TrimSpace(path) == "" {
		return 0, fmt.Errorf("csv path must not be empty")
	}

	records, err := readCSV(path)
	if err != nil {
		return 0, fmt.Errorf("read csv: %w", err)
	}

	dishes, err := groupDishes(records)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, dish := range dishes {
		if err := d.importDish(ctx, dish); err != nil {
			return imported, fmt.Errorf("record %d (%s): %w", dish.line, dish.title, err)
		}
		imported++
	}

	applog.Info(ctx, "import finished", "file", filepath.Base(path), "dishes", imported)
	d.printf("Imported %d dishes from %s\n", imported, filepath.Base(path))
	return imported, nil
}

func (d *Demo) importDish(ctx context.Context, in *importedDish) error {
	s := d.Factory.NewSession()
	defer s.Close()

	return s.Transaction(ctx, func(tx *tracking.Session) error {
		existing, err := tracking.Query[models.Dish](ctx, tx, sameTitle(in.title), orderByID)
		if err != nil {
			return fmt.Errorf("find dish %q: %w", in.title, err)
		}

		if len(existing) == 0 {
			tracking.Add(tx, &models.Dish{
				Title:       in.title,
				Notes:       in.notes,
				Stars:       in.stars,
				Ingredients: in.ingredients,
			})
		} else {
			target := existing[0]
			tracking.EntryOf(tx, target).Modify(func(dish *models.Dish) {
				dish.Notes = in.notes
				dish.Stars = in.stars
			})

			if _, err := tx.Exec(ctx, "DELETE FROM ingredients WHERE dish_id = ?", target.ID); err != nil {
				return fmt.Errorf("clear ingredients of %q: %w", in.title, err)
			}
			for _, ingredient := range in.ingredients {
				ingredient.DishID = target.ID
				tracking.Add(tx, &ingredient)
			}
		}

		if _, err := tx.SaveChanges(ctx); err != nil {
			return fmt.Errorf("save dish %q: %w", in.title, err)
		}
		return nil
	})
}

// sameTitle matches titles the way groupDishes keys them: ignoring case.
func sameTitle(title string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("lower(title) = ?", strings.ToLower(title))
	}
}

func groupDishes(records []map[string]string) ([]*importedDish, error) {
	var dishes []*importedDish
	byTitle := map[string]*importedDish{}

	for idx, record := range records {
		line := idx + 2
		title := normalizeText(record[columnDish])
		if title == "" {
			return nil, fmt.Errorf("line %d: dish title is required", line)
		}

		dish, ok := byTitle[strings.ToLower(title)]
		if !ok {
			dish = &importedDish{line: line, title: title}
			byTitle[strings.ToLower(title)] = dish
			dishes = append(dishes, dish)
		}

		if notes := normalizeText(record[columnNotes]); notes != "" {
			dish.notes = models.Text(notes)
		}

		stars, err := parseStars(record[columnStars])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if stars != nil {
			dish.stars = stars
		}

		description := normalizeText(record[columnIngredient])
		if description == "" {
			continue
		}
		amount, err := parseAmount(record[columnAmount])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		dish.ingredients = append(dish.ingredients, models.DishIngredient{
			Description:   description,
			UnitOfMeasure: normalizeValue(record[columnUnit]),
			Amount:        amount,
		})
	}

	return dishes, nil
}

func readCSV(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}

		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[strings.TrimSpace(key)] = strings.TrimSpace(row[idx])
		}
		records = append(records, record)
	}

	return records, nil
}

func normalizeValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
		return ""
	}
	return value
}

func normalizeText(value string) string {
	value = normalizeValue(value)
	if value == "" {
		return value
	}
	value = cleanWhitespace.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

// parseAmount reads the first number in value, so "3 pcs" is 3. Amounts are
// stored as decimal(5,2).
func parseAmount(value string) (decimal.Decimal, error) {
	value = normalizeValue(value)
	match := numberPattern.FindString(value)
	if match == "" {
		return decimal.Decimal{}, fmt.Errorf("amount %q is not a number", value)
	}

	amount, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("amount %q: %w", value, err)
	}
	if amount.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000)) {
		return decimal.Decimal{}, fmt.Errorf("amount %s does not fit five digits", amount)
	}
	return amount.Round(2), nil
}

func parseStars(value string) (*int, error) {
	value = normalizeValue(value)
	if value == "" {
		return nil, nil
	}

	stars, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("stars %q: %w", value, err)
	}
	if stars < 0 || stars > 5 {
		return nil, fmt.Errorf("stars %d out of range 0-5", stars)
	}
	return &stars, nil
}
