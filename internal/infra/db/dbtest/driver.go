// Package dbtest provides a scripted database/sql driver for repository
// tests. Every statement is recorded; queries are answered from canned rows
// keyed by a substring of the SQL text.
package dbtest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
)

// Call is one statement seen by the driver.
type Call struct {
	Query string
	Args  []driver.Value
}

// Rows is a canned result set.
type Rows struct {
	Columns []string
	Values  [][]driver.Value
}

type answer struct {
	match string
	rows  Rows
	err   error
}

// Driver records statements and replays canned rows.
type Driver struct {
	mu      sync.Mutex
	execs   []Call
	queries []Call
	answers []answer
	execErr error
}

// Open returns a *sql.DB backed by a fresh Driver.
func Open() (*sql.DB, *Driver) {
	d := &Driver{}
	return sql.OpenDB(connector{d}), d
}

// OnQuery answers queries containing match with rows. First match wins.
func (d *Driver) OnQuery(match string, rows Rows) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.answers = append(d.answers, answer{match: match, rows: rows})
}

// FailQuery makes queries containing match return err.
func (d *Driver) FailQuery(match string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.answers = append(d.answers, answer{match: match, err: err})
}

// FailExec makes every exec return err.
func (d *Driver) FailExec(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.execErr = err
}

func (d *Driver) Execs() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.execs...)
}

func (d *Driver) Queries() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.queries...)
}

type connector struct{ d *Driver }

func (c connector) Connect(context.Context) (driver.Conn, error) { return &conn{d: c.d}, nil }
func (c connector) Driver() driver.Driver                         { return drv{c.d} }

type drv struct{ d *Driver }

func (x drv) Open(string) (driver.Conn, error) { return &conn{d: x.d}, nil }

type conn struct{ d *Driver }

var errNoPrepare = errors.New("dbtest: prepared statements not supported")

func (c *conn) Prepare(string) (driver.Stmt, error) { return nil, errNoPrepare }
func (c *conn) Close() error                        { return nil }
func (c *conn) Begin() (driver.Tx, error)           { return nil, errors.New("dbtest: transactions not supported") }

func (c *conn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.d.execs = append(c.d.execs, Call{Query: query, Args: values(args)})
	if c.d.execErr != nil {
		return nil, c.d.execErr
	}
	return driver.RowsAffected(1), nil
}

func (c *conn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.d.queries = append(c.d.queries, Call{Query: query, Args: values(args)})
	for _, a := range c.d.answers {
		if !strings.Contains(query, a.match) {
			continue
		}
		if a.err != nil {
			return nil, a.err
		}
		return &rows{cols: a.rows.Columns, vals: a.rows.Values}, nil
	}
	return &rows{}, nil
}

func values(args []driver.NamedValue) []driver.Value {
	out := make([]driver.Value, len(args))
	for i, a := range args {
		out[i] = a.Value
	}
	return out
}

type rows struct {
	cols []string
	vals [][]driver.Value
	pos  int
}

func (r *rows) Columns() []string { return r.cols }
func (r *rows) Close() error      { return nil }

func (r *rows) Next(dest []driver.Value) error {
	if r.pos >= len(r.vals) {
		return io.EOF
	}
	copy(dest, r.vals[r.pos])
	r.pos++
	return nil
}
