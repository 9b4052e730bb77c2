package cookbook

import (
	"context"
	"fmt"

	"ormtour/internal/render"
	"ormtour/internal/tracking"
	"ormtour/models"

	"gorm.io/gorm"
)

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func withID(id uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

// EntityStates records the state of a dish after every step of its life:
// Detached, Added, Unchanged, Modified, Unchanged, Deleted, Detached.
func (d *Demo) EntityStates(ctx context.Context) ([]tracking.State, error) {
	s := d.Factory.NewSession()
	defer s.Close()

	var states []tracking.State
	observe := func(step string, state tracking.State) {
		states = append(states, state)
		d.printf("%-24s %s\n", step, state)
	}

	dish := &models.Dish{Title: "Foo", Notes: models.Text("Bar")}
	observe("new", tracking.EntryOf(s, dish).State())

	entry := tracking.Add(s, dish)
	observe("added", entry.State())

	if _, err := s.SaveChanges(ctx); err != nil {
		return states, err
	}
	observe("saved", entry.State())

	entry.Modify(func(dish *models.Dish) { dish.Notes = models.Text("Baz") })
	observe("notes changed", entry.State())

	if _, err := s.SaveChanges(ctx); err != nil {
		return states, err
	}
	observe("saved again", entry.State())

	tracking.Remove(s, dish)
	observe("removed", entry.State())

	if _, err := s.SaveChanges(ctx); err != nil {
		return states, err
	}
	observe("deletion saved", tracking.EntryOf(s, dish).State())

	return states, nil
}

// TrackedValues are the notes of one dish as seen from different places.
type TrackedValues struct {
	// Current is the in-memory value after the change.
	Current string
	// Original is the value recorded when the dish was last saved.
	Original string
	// Requeried is what a tracked query in the same session returns.
	Requeried string
	// Stored is what a second session reads from the database.
	Stored string
}

// ChangeTracking changes a saved dish without saving it and compares the
// value in memory with the original value, a re-query in the same session
// and a read from a fresh session.
func (d *Demo) ChangeTracking(ctx context.Context) (TrackedValues, error) {
	s := d.Factory.NewSession()
	defer s.Close()

	dish := &models.Dish{Title: "Foo", Notes: models.Text("Bar")}
	entry := tracking.Add(s, dish)
	if _, err := s.SaveChanges(ctx); err != nil {
		return TrackedValues{}, err
	}
	entry.Modify(func(dish *models.Dish) { dish.Notes = models.Text("Baz") })

	values := TrackedValues{
		Current:  *dish.Notes,
		Original: notes(entry.Original()),
	}

	fromSession, err := tracking.Single[models.Dish](ctx, s, withID(dish.ID))
	if err != nil {
		return values, err
	}
	values.Requeried = notes(*fromSession)

	other := d.Factory.NewSession()
	defer other.Close()
	fromDatabase, err := tracking.Single[models.Dish](ctx, other, withID(dish.ID))
	if err != nil {
		return values, err
	}
	values.Stored = notes(*fromDatabase)

	d.printf("state:     %s\n", entry.State())
	d.printf("current:   %s\n", values.Current)
	d.printf("original:  %s\n", values.Original)
	d.printf("requeried: %s (same instance: %t)\n", values.Requeried, fromSession == dish)
	d.printf("stored:    %s\n", values.Stored)
	return values, nil
}

func notes(dish models.Dish) string {
	if dish.Notes == nil {
		return ""
	}
	return *dish.Notes
}

// AttachEntities saves a dish, detaches it and brings it back with Update.
// It returns the state after detaching and the state after the second save.
func (d *Demo) AttachEntities(ctx context.Context) ([]tracking.State, error) {
	s := d.Factory.NewSession()
	defer s.Close()

	dish := &models.Dish{Title: "Foo", Notes: models.Text("Bar")}
	entry := tracking.Add(s, dish)
	if _, err := s.SaveChanges(ctx); err != nil {
		return nil, err
	}

	entry.SetState(tracking.Detached)
	detached := tracking.EntryOf(s, dish).State()
	d.printf("after detaching: %s\n", detached)

	entry = tracking.Update(s, dish)
	d.printf("after update:    %s\n", entry.State())
	if _, err := s.SaveChanges(ctx); err != nil {
		return nil, err
	}
	d.printf("after saving:    %s\n", entry.State())

	return []tracking.State{detached, entry.State()}, nil
}

// NoTracking loads every dish without tracking and reports the state of the
// first one, which is always Detached.
func (d *Demo) NoTracking(ctx context.Context) (tracking.State, error) {
	s := d.Factory.NewSession()
	defer s.Close()

	dishes, err := tracking.QueryNoTracking[models.Dish](ctx, s, orderByID)
	if err != nil {
		return tracking.Detached, err
	}
	if len(dishes) == 0 {
		return tracking.Detached, fmt.Errorf("no tracking: %w", ErrNoDishes)
	}

	render.Dishes(d.Out, dishes)
	state := tracking.EntryOf(s, dishes[0]).State()
	d.printf("state of %q: %s (tracked entities: %d)\n", dishes[0].Title, state, s.Tracked())
	return state, nil
}
