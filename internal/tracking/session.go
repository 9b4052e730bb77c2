package tracking

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"

	"gorm.io/gorm"
)

var (
	// ErrStaleEntry is returned when an update or delete matched no row.
	ErrStaleEntry = errors.New("entity no longer matches a database row")
	// ErrNotSingle is returned by Single when the query does not yield exactly one row.
	ErrNotSingle = errors.New("query did not return exactly one row")
)

// Keyed entities expose their storage-assigned primary key. Only keyed
// entities take part in identity resolution; a zero key means "not yet
// persisted".
type Keyed interface {
	Key() uint
}

type identity struct {
	typ reflect.Type
	key uint
}

type tracked interface {
	State() State
	identity() (identity, bool)
	flush(tx *gorm.DB) error
	accept()
	detach()
}

type tracker struct {
	entries  []tracked
	byEntity map[any]tracked
	byKey    map[identity]tracked
}

func newTracker() *tracker {
	return &tracker{
		byEntity: make(map[any]tracked),
		byKey:    make(map[identity]tracked),
	}
}

// Session is a unit of work over a *gorm.DB. It is not safe for concurrent
// use; open one session per procedure and Close it when done.
type Session struct {
	db      *gorm.DB
	inTx    bool
	tracker *tracker
}

// NewSession starts an empty session.
func NewSession(db *gorm.DB) *Session {
	return &Session{db: db, tracker: newTracker()}
}

// DB returns the underlying handle bound to ctx, for queries that bypass
// change tracking.
func (s *Session) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.db.WithContext(ctx)
}

// Tracked returns the number of entities known to the session.
func (s *Session) Tracked() int {
	return len(s.tracker.entries)
}

// HasChanges reports whether SaveChanges would write anything.
func (s *Session) HasChanges() bool {
	return slices.ContainsFunc(s.tracker.entries, func(e tracked) bool {
		return e.State().Pending()
	})
}

// SaveChanges writes every pending entity in registration order and then
// accepts the new states: Added and Modified become Unchanged, Deleted become
// Detached. All writes share one transaction; inside Transaction they join
// the surrounding one. It returns the number of entities written.
func (s *Session) SaveChanges(ctx context.Context) (int, error) {
	var pending []tracked
	for _, e := range s.tracker.entries {
		if e.State().Pending() {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	write := func(tx *gorm.DB) error {
		for _, e := range pending {
			if err := e.flush(tx); err != nil {
				return err
			}
		}
		return nil
	}

	var err error
	if s.inTx {
		err = write(s.DB(ctx))
	} else {
		err = s.DB(ctx).Transaction(write)
	}
	if err != nil {
		return 0, fmt.Errorf("save changes: %w", err)
	}

	for _, e := range pending {
		deleted := e.State() == Deleted
		e.accept()
		if deleted {
			s.unregister(e)
			continue
		}
		s.index(e)
	}

	return len(pending), nil
}

// Transaction runs fn with a session bound to a database transaction that
// shares this session's tracked entities. The transaction commits when fn
// returns nil and rolls back otherwise.
func (s *Session) Transaction(ctx context.Context, fn func(tx *Session) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.DB(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&Session{db: gtx, inTx: true, tracker: s.tracker})
	})
}

// Exec runs a raw statement and returns the affected row count. Tracked
// entities are not refreshed.
func (s *Session) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	res := s.DB(ctx).Exec(sql, args...)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// LoadCollection explicitly loads the association name of owner into dest.
func (s *Session) LoadCollection(ctx context.Context, owner any, name string, dest any) error {
	if err := s.DB(ctx).Model(owner).Association(name).Find(dest); err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	return nil
}

// Close detaches every tracked entity.
func (s *Session) Close() {
	for _, e := range s.tracker.entries {
		e.detach()
	}
	*s.tracker = *newTracker()
}

func (s *Session) register(e tracked, entity any) {
	s.tracker.entries = append(s.tracker.entries, e)
	s.tracker.byEntity[entity] = e
	s.index(e)
}

// index records e under its key. When another instance with the same key is
// already tracked the first one keeps the slot.
func (s *Session) index(e tracked) {
	id, ok := e.identity()
	if !ok {
		return
	}
	if _, taken := s.tracker.byKey[id]; !taken {
		s.tracker.byKey[id] = e
	}
}

func (s *Session) unregister(e tracked) {
	s.tracker.entries = slices.DeleteFunc(s.tracker.entries, func(other tracked) bool {
		return other == e
	})
	for entity, other := range s.tracker.byEntity {
		if other == e {
			delete(s.tracker.byEntity, entity)
		}
	}
	for id, other := range s.tracker.byKey {
		if other == e {
			delete(s.tracker.byKey, id)
		}
	}
}
