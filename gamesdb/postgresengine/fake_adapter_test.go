package postgresengine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gamesops/gamesdb-go/gamesdb/postgresengine/internal/adapters"
)

// fakeStep scripts the outcome of one Query or Exec call. Steps are consumed
// in call order, which is deterministic for every store operation.
type fakeStep struct {
	rows     [][]any
	affected int64
	err      error
}

func rowsStep(rows ...[]any) fakeStep {
	return fakeStep{rows: rows}
}

func affectedStep(affected int64) fakeStep {
	return fakeStep{affected: affected}
}

// fakeDB is a scripted adapters.DBAdapter so store operations can be tested
// without a database.
type fakeDB struct {
	steps     []fakeStep
	queries   []string
	beginErr  error
	commitErr error
	tx        *fakeTx
}

func newFakeDB(steps ...fakeStep) *fakeDB {
	return &fakeDB{steps: steps}
}

func (f *fakeDB) nextStep(query string) (fakeStep, error) {
	f.queries = append(f.queries, query)

	if len(f.steps) == 0 {
		return fakeStep{}, fmt.Errorf("unexpected statement: %s", query)
	}

	step := f.steps[0]
	f.steps = f.steps[1:]

	return step, step.err
}

func (f *fakeDB) Query(_ context.Context, query string) (adapters.DBRows, error) {
	step, err := f.nextStep(query)
	if err != nil {
		return nil, err
	}

	return &fakeRows{rows: step.rows}, nil
}

func (f *fakeDB) Exec(_ context.Context, query string) (adapters.DBResult, error) {
	step, err := f.nextStep(query)
	if err != nil {
		return nil, err
	}

	return fakeResult{affected: step.affected}, nil
}

func (f *fakeDB) Begin(_ context.Context) (adapters.DBTx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}

	f.tx = &fakeTx{db: f, commitErr: f.commitErr}

	return f.tx, nil
}

// fakeTx shares the scripted step queue with its fakeDB and records how the
// transaction ended.
type fakeTx struct {
	db         *fakeDB
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Query(ctx context.Context, query string) (adapters.DBRows, error) {
	return t.db.Query(ctx, query)
}

func (t *fakeTx) Exec(ctx context.Context, query string) (adapters.DBResult, error) {
	return t.db.Exec(ctx, query)
}

func (t *fakeTx) Commit(_ context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}

	t.committed = true

	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	if t.committed {
		return nil
	}

	t.rolledBack = true

	return nil
}

type fakeRows struct {
	rows [][]any
	idx  int
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}

	r.idx++

	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan expects %d destinations, got %d", len(row), len(dest))
	}

	for i, value := range row {
		if err := assignValue(dest[i], value); err != nil {
			return err
		}
	}

	return nil
}

func (r *fakeRows) Close() error {
	return nil
}

func assignValue(dest any, value any) error {
	switch d := dest.(type) {
	case *string:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into *string", value)
		}
		*d = v

	case *int:
		v, ok := value.(int)
		if !ok {
			return fmt.Errorf("cannot scan %T into *int", value)
		}
		*d = v

	case *time.Time:
		v, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("cannot scan %T into *time.Time", value)
		}
		*d = v

	case *sql.NullString:
		if value == nil {
			*d = sql.NullString{}
			return nil
		}
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into *sql.NullString", value)
		}
		*d = sql.NullString{String: v, Valid: true}

	default:
		return fmt.Errorf("unsupported scan destination %T", dest)
	}

	return nil
}

type fakeResult struct {
	affected int64
}

func (r fakeResult) RowsAffected() (int64, error) {
	return r.affected, nil
}

func newTestStore(db *fakeDB) *Store {
	return &Store{db: db}
}
