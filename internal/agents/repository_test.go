package agents_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/avernlabs/agent-store/internal/agents"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// promoteState scripts the outcome of default-agent promotion statements: the
// first conflicts promotions fail with err, later ones succeed. attempts
// counts every promotion observed.
type promoteState struct {
	conflicts int
	err       error
	attempts  int
}

func uniqueViolation() *pgconn.PgError {
	return &pgconn.PgError{Code: "23505", ConstraintName: "idx_agents_account_default"}
}

type promoteConnector struct {
	state *promoteState
}

func (c promoteConnector) Connect(context.Context) (driver.Conn, error) {
	return &promoteConn{state: c.state}, nil
}

func (c promoteConnector) Driver() driver.Driver { return promoteDriver{} }

type promoteDriver struct{}

func (promoteDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open through the connector")
}

type promoteConn struct {
	state *promoteState
}

func (c *promoteConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *promoteConn) Close() error { return nil }

func (c *promoteConn) Begin() (driver.Tx, error) { return promoteTx{}, nil }

// CheckNamedValue accepts every argument type, matching pgx behavior for
// values like uuid.UUID that database/sql would otherwise reject.
func (c *promoteConn) CheckNamedValue(*driver.NamedValue) error { return nil }

func (c *promoteConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if strings.Contains(query, "is_default = TRUE") {
		c.state.attempts++
		if c.state.attempts <= c.state.conflicts {
			return nil, c.state.err
		}
	}
	return driver.RowsAffected(1), nil
}

type promoteTx struct{}

func (promoteTx) Commit() error   { return nil }
func (promoteTx) Rollback() error { return nil }

func newPromoteSystem(t *testing.T, state *promoteState, retries int) agents.System {
	t.Helper()

	db := sql.OpenDB(promoteConnector{state: state})
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return agents.New(db, logger, agents.Options{DefaultRetries: retries})
}

func TestSetDefault_RetriesThroughTransientConflicts(t *testing.T) {
	state := &promoteState{conflicts: 2, err: uniqueViolation()}
	sys := newPromoteSystem(t, state, 3)

	if err := sys.SetDefault(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("SetDefault() error = %v, want nil after retries", err)
	}
	if state.attempts != 3 {
		t.Errorf("promotion attempts = %d, want 3", state.attempts)
	}
}

func TestSetDefault_RetriesExhausted(t *testing.T) {
	state := &promoteState{conflicts: 10, err: uniqueViolation()}
	sys := newPromoteSystem(t, state, 3)

	accountID := uuid.New()
	err := sys.SetDefault(context.Background(), accountID, uuid.New())

	if !errors.Is(err, agents.ErrDefaultConflict) {
		t.Fatalf("SetDefault() error = %v, want ErrDefaultConflict", err)
	}
	if !strings.Contains(err.Error(), accountID.String()) {
		t.Errorf("error %q does not identify the account", err)
	}
	if state.attempts != 3 {
		t.Errorf("promotion attempts = %d, want exactly the retry budget of 3", state.attempts)
	}
}

func TestSetDefault_NonConflictErrorNotRetried(t *testing.T) {
	state := &promoteState{conflicts: 10, err: errors.New("connection reset")}
	sys := newPromoteSystem(t, state, 3)

	err := sys.SetDefault(context.Background(), uuid.New(), uuid.New())

	if err == nil {
		t.Fatal("SetDefault() error = nil, want driver error surfaced")
	}
	if errors.Is(err, agents.ErrDefaultConflict) {
		t.Errorf("SetDefault() error = %v, want the underlying error, not conflict exhaustion", err)
	}
	if state.attempts != 1 {
		t.Errorf("promotion attempts = %d, want 1 (no retry on non-conflict errors)", state.attempts)
	}
}

func TestSetDefault_FirstAttemptSucceeds(t *testing.T) {
	state := &promoteState{}
	sys := newPromoteSystem(t, state, 3)

	if err := sys.SetDefault(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("SetDefault() error = %v", err)
	}
	if state.attempts != 1 {
		t.Errorf("promotion attempts = %d, want 1", state.attempts)
	}
}
