package cookbook

import (
	"context"
	"fmt"

	"ormtour/internal/query"
	"ormtour/internal/render"
	"ormtour/internal/tracking"
	"ormtour/models"

	"github.com/shopspring/decimal"
)

// Soup stores a Thai soup together with its ingredients.
func (d *Demo) Soup(ctx context.Context) (*models.Dish, error) {
	s := d.Factory.NewSession()
	defer s.Close()

	soup := &models.Dish{
		Title: "Thai Soup",
		Notes: models.Text("Thai soup is really good"),
		Stars: models.Int(5),
		Ingredients: []models.DishIngredient{
			{Amount: decimal.NewFromInt(3), Description: "Red Chilli", UnitOfMeasure: "Pieces"},
			{Amount: decimal.NewFromInt(7), Description: "Salt", UnitOfMeasure: "Table spoon"},
		},
	}
	tracking.Add(s, soup)
	if _, err := s.SaveChanges(ctx); err != nil {
		return nil, err
	}

	d.printf("Added %s (id = %d)\n", soup.Title, soup.ID)
	render.Ingredients(d.Out, soup.Ingredients)
	return soup, nil
}

// Porridge adds a porridge, reads its stars back, changes them and removes
// the dish again.
func (d *Demo) Porridge(ctx context.Context) error {
	s := d.Factory.NewSession()
	defer s.Close()

	d.printf("Adding Porridge for breakfast\n")
	porridge := &models.Dish{Title: "Breakfast Porridge", Notes: models.Text("This is soooo good"), Stars: models.Int(4)}
	entry := tracking.Add(s, porridge)
	if _, err := s.SaveChanges(ctx); err != nil {
		return err
	}
	d.printf("Added Porridge (id = %d) successfully\n", porridge.ID)

	d.printf("Checking Stars for Porridge\n")
	dishes, err := tracking.Query[models.Dish](ctx, s, query.Where(query.Field("title").Contains("Porridge")), orderByID)
	if err != nil {
		return err
	}
	if len(dishes) == 0 {
		return fmt.Errorf("porridge: %w", ErrNoDishes)
	}
	d.printf("Porridge has %s stars\n", stars(dishes[0]))

	d.printf("Changing Porridge stars to 5\n")
	entry.Modify(func(p *models.Dish) { p.Stars = models.Int(5) })
	if _, err := s.SaveChanges(ctx); err != nil {
		return err
	}
	d.printf("Porridge: %d, %s Update Done !!!\n", porridge.ID, stars(porridge))

	d.printf("Removing data\n")
	tracking.Remove(s, porridge)
	if _, err := s.SaveChanges(ctx); err != nil {
		return err
	}
	d.printf("Porridge removed\n")
	return nil
}

// Experiment saves a new dish, changes it and saves again.
func (d *Demo) Experiment(ctx context.Context) error {
	s := d.Factory.NewSession()
	defer s.Close()

	dish := &models.Dish{Title: "Foo", Notes: models.Text("Bar")}
	entry := tracking.Add(s, dish)
	if _, err := s.SaveChanges(ctx); err != nil {
		return err
	}

	entry.Modify(func(dish *models.Dish) { dish.Notes = models.Text("Baz") })
	n, err := s.SaveChanges(ctx)
	if err != nil {
		return err
	}

	d.printf("Saved dish %d, second save wrote %d entity\n", dish.ID, n)
	render.Dishes(d.Out, []*models.Dish{dish})
	return nil
}

func stars(dish *models.Dish) string {
	if dish.Stars == nil {
		return "no"
	}
	return fmt.Sprint(*dish.Stars)
}
