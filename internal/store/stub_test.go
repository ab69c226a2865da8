package store

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubRows struct {
	values [][]any
	index  int
	err    error
	closed bool
}

func newStubRows(values ...[]any) *stubRows {
	return &stubRows{values: values, index: -1}
}

func (r *stubRows) Close() {
	r.closed = true
	r.index = len(r.values)
}

func (r *stubRows) Err() error {
	return r.err
}

func (r *stubRows) CommandTag() pgconn.CommandTag {
	return pgconn.CommandTag{}
}

func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription {
	return nil
}

func (r *stubRows) Next() bool {
	if r.index+1 >= len(r.values) {
		r.index = len(r.values)
		return false
	}
	r.index++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	if r.index < 0 || r.index >= len(r.values) {
		return fmt.Errorf("no row available")
	}
	return assign(r.values[r.index], dest)
}

func (r *stubRows) Values() ([]any, error) {
	if r.index < 0 || r.index >= len(r.values) {
		return nil, fmt.Errorf("no row available")
	}
	return r.values[r.index], nil
}

func (r *stubRows) RawValues() [][]byte {
	return nil
}

func (r *stubRows) Conn() *pgx.Conn {
	return nil
}

type stubRow struct {
	values []any
	err    error
}

func (r *stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

// assign copies row values into scan targets; each value must have the
// target's element type.
func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("row has %d values, scan has %d targets", len(values), len(dest))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		v := reflect.ValueOf(values[i])
		if !v.IsValid() {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		if !v.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("column %d: cannot scan %T into %s", i, values[i], target.Type())
		}
		target.Set(v)
	}
	return nil
}

type execCall struct {
	sql  string
	args []any
}

// fakeTx records statements issued through a scoped session.
type fakeTx struct {
	pgx.Tx
	execs      []execCall
	queries    []execCall
	execErr    error
	rows       *stubRows
	row        *stubRow
	rolledBack int
}

func (t *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, t.execErr
}

func (t *fakeTx) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	t.queries = append(t.queries, execCall{sql: sql, args: args})
	if t.rows == nil {
		return newStubRows(), nil
	}
	return t.rows, nil
}

func (t *fakeTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	t.queries = append(t.queries, execCall{sql: sql, args: args})
	if t.row == nil {
		return &stubRow{err: pgx.ErrNoRows}
	}
	return t.row
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack++
	return nil
}

type fakeBeginner struct {
	tx      *fakeTx
	opts    []pgx.TxOptions
	err     error
	ctxErrs []error
}

func (b *fakeBeginner) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	b.opts = append(b.opts, opts)
	b.ctxErrs = append(b.ctxErrs, ctx.Err())
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

// stubQuerier stands in for the pool in shared-schema store tests.
type stubQuerier struct {
	execs   []execCall
	queries []execCall
	rows    *stubRows
	row     *stubRow
	err     error
}

func (q *stubQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.execs = append(q.execs, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, q.err
}

func (q *stubQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.queries = append(q.queries, execCall{sql: sql, args: args})
	if q.err != nil {
		return nil, q.err
	}
	if q.rows == nil {
		return newStubRows(), nil
	}
	return q.rows, nil
}

func (q *stubQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.queries = append(q.queries, execCall{sql: sql, args: args})
	if q.row == nil {
		return &stubRow{err: pgx.ErrNoRows}
	}
	return q.row
}
