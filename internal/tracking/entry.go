package tracking

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is the session's view of one entity.
type Entry[T any] struct {
	session  *Session
	entity   *T
	state    State
	original T
}

func (e *Entry[T]) State() State {
	return e.state
}

func (e *Entry[T]) Entity() *T {
	return e.entity
}

// Original returns the values the entity had when it last became Unchanged.
// When *T does not implement Snapshotter the snapshot is a plain struct copy
// whose pointer and slice fields share storage with the live entity.
func (e *Entry[T]) Original() T {
	return e.original
}

// Snapshotter is implemented by entities whose snapshot must not share
// pointers or slices with the live value.
type Snapshotter[T any] interface {
	Snapshot() T
}

func snapshot[T any](entity *T) T {
	if s, ok := any(entity).(Snapshotter[T]); ok {
		return s.Snapshot()
	}
	return *entity
}

// Modify applies fn to the entity. An Unchanged entity becomes Modified;
// Added and Deleted entities keep their state.
func (e *Entry[T]) Modify(fn func(*T)) *Entry[T] {
	fn(e.entity)
	if e.state == Unchanged {
		e.state = Modified
	}
	return e
}

// SetState forces a transition. Moving to Detached stops tracking the
// entity; moving out of Detached starts tracking it. Moving to Unchanged
// takes a new snapshot of the original values.
func (e *Entry[T]) SetState(state State) {
	if state == e.state {
		return
	}

	switch {
	case state == Detached:
		e.session.unregister(e)
	case e.state == Detached:
		e.session.register(e, e.entity)
	}

	if state == Unchanged {
		e.original = snapshot(e.entity)
	}
	e.state = state
}

func (e *Entry[T]) identity() (identity, bool) {
	key, ok := keyOf(e.entity)
	if !ok {
		return identity{}, false
	}
	return identity{typ: reflect.TypeFor[T](), key: key}, true
}

func (e *Entry[T]) flush(tx *gorm.DB) error {
	switch e.state {
	case Added:
		if err := tx.Create(e.entity).Error; err != nil {
			return fmt.Errorf("insert %T: %w", e.entity, err)
		}
	case Modified:
		res := tx.Model(e.entity).Select("*").Omit(clause.Associations).Updates(e.entity)
		if res.Error != nil {
			return fmt.Errorf("update %T: %w", e.entity, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("update %T: %w", e.entity, ErrStaleEntry)
		}
	case Deleted:
		res := tx.Delete(e.entity)
		if res.Error != nil {
			return fmt.Errorf("delete %T: %w", e.entity, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("delete %T: %w", e.entity, ErrStaleEntry)
		}
	}
	return nil
}

func (e *Entry[T]) accept() {
	if e.state == Deleted {
		e.state = Detached
		return
	}
	e.state = Unchanged
	e.original = snapshot(e.entity)
}

func (e *Entry[T]) detach() {
	e.state = Detached
}

func keyOf(entity any) (uint, bool) {
	k, ok := entity.(Keyed)
	if !ok || k.Key() == 0 {
		return 0, false
	}
	return k.Key(), true
}

func lookup[T any](s *Session, entity *T) *Entry[T] {
	if e, ok := s.tracker.byEntity[entity]; ok {
		return e.(*Entry[T])
	}
	return nil
}

// EntryOf returns the tracked entry for entity, or a Detached entry when the
// session does not know it.
func EntryOf[T any](s *Session, entity *T) *Entry[T] {
	if e := lookup(s, entity); e != nil {
		return e
	}
	return &Entry[T]{session: s, entity: entity, state: Detached}
}

// Add registers entity for insertion. Adding a Deleted entity cancels the
// deletion and saves it as Modified.
func Add[T any](s *Session, entity *T) *Entry[T] {
	e := EntryOf(s, entity)
	switch e.state {
	case Detached:
		e.SetState(Added)
	case Deleted:
		e.state = Modified
	}
	return e
}

// AddAll calls Add for each entity.
func AddAll[T any](s *Session, entities ...*T) {
	for _, entity := range entities {
		Add(s, entity)
	}
}

// Attach starts tracking an entity that already exists in the database.
// Entities without a key are treated as new and become Added.
func Attach[T any](s *Session, entity *T) *Entry[T] {
	e := EntryOf(s, entity)
	if e.state != Detached {
		return e
	}
	if _, ok := keyOf(entity); !ok {
		e.SetState(Added)
		return e
	}
	e.SetState(Unchanged)
	return e
}

// Update marks entity as Modified so that every column is written on the
// next save. Entities without a key become Added.
func Update[T any](s *Session, entity *T) *Entry[T] {
	e := EntryOf(s, entity)
	switch e.state {
	case Detached:
		if _, ok := keyOf(entity); !ok {
			e.SetState(Added)
			return e
		}
		e.original = snapshot(entity)
		e.SetState(Modified)
	case Unchanged, Deleted:
		e.state = Modified
	}
	return e
}

// Remove marks entity for deletion. Removing an Added entity simply stops
// tracking it.
func Remove[T any](s *Session, entity *T) *Entry[T] {
	e := EntryOf(s, entity)
	switch e.state {
	case Added:
		e.SetState(Detached)
	case Detached:
		e.original = snapshot(entity)
		e.SetState(Deleted)
	case Unchanged, Modified:
		e.state = Deleted
	}
	return e
}

// Query loads rows and tracks them as Unchanged. Rows whose key is already
// tracked resolve to the tracked instance, which keeps its in-memory values.
func Query[T any](ctx context.Context, s *Session, scopes ...func(*gorm.DB) *gorm.DB) ([]*T, error) {
	rows, err := QueryNoTracking[T](ctx, s, scopes...)
	if err != nil {
		return nil, err
	}
	return track(s, rows), nil
}

// QueryNoTracking loads rows without registering them with the session.
func QueryNoTracking[T any](ctx context.Context, s *Session, scopes ...func(*gorm.DB) *gorm.DB) ([]*T, error) {
	var rows []*T
	if err := s.DB(ctx).Scopes(scopes...).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query %T: %w", rows, err)
	}
	return rows, nil
}

// Single is Query for exactly one row.
func Single[T any](ctx context.Context, s *Session, scopes ...func(*gorm.DB) *gorm.DB) (*T, error) {
	limited := append(slices.Clone(scopes), func(db *gorm.DB) *gorm.DB { return db.Limit(2) })
	rows, err := Query[T](ctx, s, limited...)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNotSingle, len(rows))
	}
	return rows[0], nil
}

// Raw runs a raw SELECT and tracks the resulting entities.
func Raw[T any](ctx context.Context, s *Session, sql string, args ...any) ([]*T, error) {
	rows, err := RawNoTracking[T](ctx, s, sql, args...)
	if err != nil {
		return nil, err
	}
	return track(s, rows), nil
}

// RawNoTracking runs a raw SELECT without tracking the results.
func RawNoTracking[T any](ctx context.Context, s *Session, sql string, args ...any) ([]*T, error) {
	var rows []*T
	if err := s.DB(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("raw query %T: %w", rows, err)
	}
	return rows, nil
}

func track[T any](s *Session, rows []*T) []*T {
	for i, row := range rows {
		if key, ok := keyOf(row); ok {
			if existing, found := s.tracker.byKey[identity{typ: reflect.TypeFor[T](), key: key}]; found {
				rows[i] = existing.(*Entry[T]).entity
				continue
			}
		}
		e := &Entry[T]{session: s, entity: row, state: Unchanged, original: snapshot(row)}
		s.register(e, row)
	}
	return rows
}
