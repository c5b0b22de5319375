package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// countingDriver records commits and rollbacks; commits can be made to fail
// with a pq error code for the first N attempts to exercise the retry path.
type countingDriver struct {
	state *driverState
}

type driverState struct {
	commits     int64
	rollbacks   int64
	failCommits int64
	failCode    string
}

func (d *countingDriver) Open(name string) (driver.Conn, error) {
	return &countingConn{state: d.state}, nil
}

type countingConn struct {
	state *driverState
}

func (c *countingConn) Prepare(query string) (driver.Stmt, error) {
	return &noopStmt{}, nil
}

func (c *countingConn) Close() error {
	return nil
}

func (c *countingConn) Begin() (driver.Tx, error) {
	return &countingTx{state: c.state}, nil
}

func (c *countingConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	return &countingTx{state: c.state}, nil
}

type countingTx struct {
	state *driverState
}

func (t *countingTx) Commit() error {
	attempt := atomic.AddInt64(&t.state.commits, 1)
	if attempt <= t.state.failCommits {
		code := t.state.failCode
		if code == "" {
			code = "40001"
		}
		return &pq.Error{Code: pq.ErrorCode(code)}
	}
	return nil
}

func (t *countingTx) Rollback() error {
	atomic.AddInt64(&t.state.rollbacks, 1)
	return nil
}

type noopStmt struct{}

func (s *noopStmt) Close() error {
	return nil
}

func (s *noopStmt) NumInput() int {
	return -1
}

func (s *noopStmt) Exec(args []driver.Value) (driver.Result, error) {
	return nil, nil
}

func (s *noopStmt) Query(args []driver.Value) (driver.Rows, error) {
	return nil, nil
}

var driverCounter uint64

func openCountingDB(t *testing.T, state *driverState) *sqlx.DB {
	t.Helper()
	name := fmt.Sprintf("counting-%d", atomic.AddUint64(&driverCounter, 1))
	sql.Register(name, &countingDriver{state: state})
	sqlDB, err := sql.Open(name, "")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlx.NewDb(sqlDB, name)
}

func TestWithTxCommits(t *testing.T) {
	state := &driverState{}
	xdb := openCountingDB(t, state)
	if err := WithTx(context.Background(), xdb, func(*sqlx.Tx) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.commits != 1 || state.rollbacks != 0 {
		t.Fatalf("expected commit=1 rollback=0, got %d/%d", state.commits, state.rollbacks)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	state := &driverState{}
	xdb := openCountingDB(t, state)
	if err := WithTx(context.Background(), xdb, func(*sqlx.Tx) error { return errors.New("boom") }); err == nil {
		t.Fatalf("expected error")
	}
	if state.rollbacks != 1 {
		t.Fatalf("expected rollback=1, got %d", state.rollbacks)
	}
}

func TestWithTxRetriesOnSerializationFailure(t *testing.T) {
	state := &driverState{failCommits: 1}
	xdb := openCountingDB(t, state)
	if err := WithTx(context.Background(), xdb, func(*sqlx.Tx) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.commits != 2 {
		t.Fatalf("expected 2 commit attempts, got %d", state.commits)
	}
}

func TestWithTxRetryCapExceeded(t *testing.T) {
	state := &driverState{failCommits: 10, failCode: "40P01"}
	xdb := openCountingDB(t, state)
	err := WithTx(context.Background(), xdb, func(*sqlx.Tx) error { return nil })
	if err == nil {
		t.Fatalf("expected retry limit error")
	}
	if state.commits != int64(txMaxAttempts) {
		t.Fatalf("expected %d commit attempts, got %d", txMaxAttempts, state.commits)
	}
}

func TestWithTxDoesNotRetryPlainErrors(t *testing.T) {
	state := &driverState{}
	xdb := openCountingDB(t, state)
	calls := 0
	err := WithTx(context.Background(), xdb, func(*sqlx.Tx) error {
		calls++
		return errors.New("constraint violated")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}
