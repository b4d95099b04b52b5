// Package memory is an in-process implementation of the repositories with
// transaction and savepoint semantics, used by service and handler tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/yigit/schoolbook/internal/app/repositories"
	"github.com/yigit/schoolbook/internal/db"
)

type parentLink struct {
	ParentID  int64
	StudentID int64
}

// tables is the whole dataset; every value is a copy so snapshots are cheap
type tables struct {
	nextID     int64
	schools    map[int64]schoolRow
	users      map[int64]userRow
	admins     map[int64]adminRow
	teachers   map[int64]teacherRow
	parents    map[int64]parentRow
	students   map[int64]studentRow
	links      map[parentLink]struct{}
	subjects   map[int64]subjectRow
	grades     map[int64]gradeRow
	attendance map[int64]attendanceRow
	linkCodes  map[int64]linkCodeRow
}

func newTables() *tables {
	return &tables{
		schools:    map[int64]schoolRow{},
		users:      map[int64]userRow{},
		admins:     map[int64]adminRow{},
		teachers:   map[int64]teacherRow{},
		parents:    map[int64]parentRow{},
		students:   map[int64]studentRow{},
		links:      map[parentLink]struct{}{},
		subjects:   map[int64]subjectRow{},
		grades:     map[int64]gradeRow{},
		attendance: map[int64]attendanceRow{},
		linkCodes:  map[int64]linkCodeRow{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (t *tables) clone() *tables {
	return &tables{
		nextID:     t.nextID,
		schools:    cloneMap(t.schools),
		users:      cloneMap(t.users),
		admins:     cloneMap(t.admins),
		teachers:   cloneMap(t.teachers),
		parents:    cloneMap(t.parents),
		students:   cloneMap(t.students),
		links:      cloneMap(t.links),
		subjects:   cloneMap(t.subjects),
		grades:     cloneMap(t.grades),
		attendance: cloneMap(t.attendance),
		linkCodes:  cloneMap(t.linkCodes),
	}
}

func (t *tables) id() int64 {
	t.nextID++
	return t.nextID
}

// DB is an in-memory database. Transactions are serialized; writes made
// inside one are visible to non-transactional readers before commit.
// Like Postgres, a transaction whose context is done fails at its next
// savepoint or at commit and is rolled back.
type DB struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data *tables

	// TxTimeout bounds transactions whose context has no deadline
	TxTimeout time.Duration

	// FailCommit, when set, makes the next commit fail with this error
	FailCommit error
	// FailOn lets tests inject write failures, keyed by operation name
	// such as "users.create"; the function receives the value being written.
	FailOn map[string]func(v interface{}) error

	store *repositories.Store
}

// New creates an empty DB
func New() *DB {
	d := &DB{data: newTables(), FailOn: map[string]func(v interface{}) error{}}
	d.store = d.newStore(nil)
	return d
}

func (d *DB) newStore(nested repositories.SavepointFunc) *repositories.Store {
	return &repositories.Store{
		Schools:      &schoolRepo{d},
		Users:        &userRepo{d},
		SchoolAdmins: &adminRepo{d},
		Teachers:     &teacherRepo{d},
		Parents:      &parentRepo{d},
		Students:     &studentRepo{d},
		Subjects:     &subjectRepo{d},
		Grades:       &gradeRepo{d},
		Attendance:   &attendanceRepo{d},
		LinkCodes:    &linkCodeRepo{d},
		Analytics:    &analyticsRepo{d},
		Nested:       nested,
	}
}

// Store returns the non-transactional store
func (d *DB) Store() *repositories.Store {
	return d.store
}

func (d *DB) snapshot() *tables {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.data.clone()
}

func (d *DB) restore(t *tables) {
	d.mu.Lock()
	d.data = t
	d.mu.Unlock()
}

// InTx runs fn with all-or-nothing semantics
func (d *DB) InTx(ctx context.Context, fn func(ctx context.Context, tx *repositories.Store) error) error {
	d.txMu.Lock()
	defer d.txMu.Unlock()

	if _, ok := ctx.Deadline(); !ok && d.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.TxTimeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	before := d.snapshot()
	store := d.newStore(d.savepoint)

	if err := fn(ctx, store); err != nil {
		d.restore(before)
		return err
	}

	if err := ctx.Err(); err != nil {
		d.restore(before)
		return &db.CommitError{Err: err}
	}
	if err := d.FailCommit; err != nil {
		d.FailCommit = nil
		d.restore(before)
		return &db.CommitError{Err: err}
	}
	return nil
}

func (d *DB) savepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	before := d.snapshot()
	if err := fn(ctx); err != nil {
		d.restore(before)
		return err
	}
	return nil
}

func (d *DB) fail(op string, v interface{}) error {
	if f, ok := d.FailOn[op]; ok && f != nil {
		return f(v)
	}
	return nil
}

var _ repositories.Transactor = (*DB)(nil)
