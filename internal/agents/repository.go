package agents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/avernlabs/agent-store/pkg/pagination"
	"github.com/avernlabs/agent-store/pkg/query"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Options tunes repository behavior.
type Options struct {
	Pagination pagination.Config

	// MaxConfigSize rejects config documents larger than this many bytes.
	// Zero disables the limit.
	MaxConfigSize int64

	// DefaultRetries bounds the retry budget when concurrent writers race on
	// the per-account default promotion.
	DefaultRetries int
}

type repo struct {
	db      *sql.DB
	logger  *slog.Logger
	options Options
}

// New creates a new agents repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, options Options) System {
	if options.DefaultRetries < 1 {
		options.DefaultRetries = 3
	}
	return &repo{
		db:      db,
		logger:  logger.With("system", "agent"),
		options: options,
	}
}

const agentColumns = `agent_id, account_id, name, description, is_default, is_public,
		avatar, avatar_color, version_count, config, created_at, updated_at`

const versionColumns = `version_id, agent_id, version_number, config, created_at`

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Agent, error) {
	if err := r.checkConfig(cmd.Config, KindAgent); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := `
		INSERT INTO agents (account_id, name, description, is_public, avatar, avatar_color, config)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + agentColumns

	a, err := scanAgent(tx.QueryRowContext(ctx, q,
		cmd.AccountID, cmd.Name, cmd.Description, cmd.IsPublic,
		cmd.Avatar, cmd.AvatarColor, []byte(cmd.Config),
	))
	if err != nil {
		return nil, fmt.Errorf("insert agent: %w", err)
	}

	if _, err := r.createVersionTx(ctx, tx, a.ID, cmd.Config); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	r.logger.Info("agent created", "id", a.ID, "account_id", a.AccountID, "name", a.Name)
	return &a, nil
}

func (r *repo) UpdateConfig(ctx context.Context, id uuid.UUID, config json.RawMessage) (*Agent, error) {
	if err := r.checkConfig(config, KindAgent); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.lockAgent(ctx, tx, id); err != nil {
		return nil, err
	}

	v, err := r.createVersionTx(ctx, tx, id, config)
	if err != nil {
		return nil, err
	}

	q := `
		UPDATE agents
		SET config = $2, updated_at = NOW()
		WHERE agent_id = $1
		RETURNING ` + agentColumns

	a, err := scanAgent(tx.QueryRowContext(ctx, q, id, []byte(config)))
	if err != nil {
		return nil, fmt.Errorf("update agent config: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	r.logger.Info("agent config updated", "id", a.ID, "version", v.VersionNumber)
	return &a, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	// versions cascade at the storage layer; no orphaned snapshots persist
	result, err := r.db.ExecContext(ctx, "DELETE FROM agents WHERE agent_id = $1", id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	r.logger.Info("agent deleted", "id", id)
	return nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Agent, error) {
	q, args := query.NewBuilder(projection, defaultSort).BuildSingle("ID", id)

	a, err := scanAgent(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query agent: %w", err)
	}
	return &a, nil
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Agent], error) {
	page.Normalize(r.options.Pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Description")

	filters.Apply(qb)

	if sort := projectedSort(page.Sort); len(sort) > 0 {
		qb.OrderByFields(sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count agents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	rows, err := r.db.QueryContext(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	agents := make([]Agent, 0)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	result := pagination.NewPageResult(agents, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) SetDefault(ctx context.Context, accountID, agentID uuid.UUID) error {
	for attempt := 1; attempt <= r.options.DefaultRetries; attempt++ {
		err := r.setDefaultOnce(ctx, accountID, agentID)
		if err == nil {
			r.logger.Info("default agent set", "account_id", accountID, "agent_id", agentID)
			return nil
		}
		if !isUniqueViolation(err) {
			return err
		}
		r.logger.Warn("default promotion lost a concurrent race",
			"account_id", accountID, "agent_id", agentID, "attempt", attempt)
	}

	return fmt.Errorf("%w: account %s", ErrDefaultConflict, accountID)
}

// setDefaultOnce demotes the current default and promotes the target in one
// transaction. A concurrent promotion between the two statements surfaces as
// a unique violation on the partial index and is retried by the caller.
func (r *repo) setDefaultOnce(ctx context.Context, accountID, agentID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE agents
		SET is_default = FALSE, updated_at = NOW()
		WHERE account_id = $1 AND is_default AND agent_id <> $2`,
		accountID, agentID,
	)
	if err != nil {
		return fmt.Errorf("demote default agent: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE agents
		SET is_default = TRUE, updated_at = NOW()
		WHERE agent_id = $1 AND account_id = $2`,
		agentID, accountID,
	)
	if err != nil {
		return fmt.Errorf("promote default agent: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *repo) EnsureDefault(ctx context.Context, accountID uuid.UUID, cmd EnsureDefaultCommand) (*Agent, error) {
	if err := r.checkConfig(cmd.Config, KindAgent); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// the partial unique index arbitrates the upsert: a concurrent ensure for
	// the same account resolves to exactly one insert, the other updates
	q := `
		INSERT INTO agents (account_id, name, description, is_default, avatar, avatar_color, config)
		VALUES ($1, $2, $3, TRUE, $4, $5, $6)
		ON CONFLICT (account_id) WHERE is_default
		DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			avatar = EXCLUDED.avatar,
			avatar_color = EXCLUDED.avatar_color,
			config = EXCLUDED.config,
			updated_at = NOW()
		RETURNING ` + agentColumns + `, (xmax = 0) AS inserted`

	var a Agent
	var inserted bool
	err = tx.QueryRowContext(ctx, q,
		accountID, cmd.Name, cmd.Description, cmd.Avatar, cmd.AvatarColor, []byte(cmd.Config),
	).Scan(
		&a.ID, &a.AccountID, &a.Name, &a.Description,
		&a.IsDefault, &a.IsPublic, &a.Avatar, &a.AvatarColor,
		&a.VersionCount, &a.Config, &a.CreatedAt, &a.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert default agent: %w", err)
	}

	needsVersion := inserted
	if !inserted {
		// an update only versions when the config actually changed; repeated
		// ensure calls with the same fallback stay idempotent
		snapshot, err := snapshotConfig(cmd.Config)
		if err != nil {
			return nil, err
		}

		var unchanged bool
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM agent_versions
				WHERE agent_id = $1
				  AND version_number = (
					SELECT MAX(version_number) FROM agent_versions WHERE agent_id = $1
				  )
				  AND config = $2::jsonb
			)`, a.ID, []byte(snapshot),
		).Scan(&unchanged)
		if err != nil {
			return nil, fmt.Errorf("compare latest version: %w", err)
		}
		needsVersion = !unchanged
	}

	if needsVersion {
		if _, err := r.createVersionTx(ctx, tx, a.ID, cmd.Config); err != nil {
			return nil, err
		}
		if err := tx.QueryRowContext(ctx,
			"SELECT version_count, updated_at FROM agents WHERE agent_id = $1", a.ID,
		).Scan(&a.VersionCount, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("refresh agent counters: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	r.logger.Info("default agent ensured",
		"account_id", accountID, "agent_id", a.ID, "created", inserted)
	return &a, nil
}

func (r *repo) Versions(ctx context.Context, agentID uuid.UUID, page pagination.PageRequest) (*pagination.PageResult[AgentVersion], error) {
	if err := r.requireAgent(ctx, agentID); err != nil {
		return nil, err
	}

	page.Normalize(r.options.Pagination)

	qb := query.
		NewBuilder(versionProjection, versionSort).
		WhereEquals("AgentID", agentID)

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count versions: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	rows, err := r.db.QueryContext(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	versions := make([]AgentVersion, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	result := pagination.NewPageResult(versions, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) FindVersion(ctx context.Context, agentID, versionID uuid.UUID) (*AgentVersion, error) {
	q := "SELECT " + versionColumns + " FROM agent_versions WHERE version_id = $1 AND agent_id = $2"

	v, err := scanVersion(r.db.QueryRowContext(ctx, q, versionID, agentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("query version: %w", err)
	}
	return &v, nil
}

func (r *repo) CompareVersions(ctx context.Context, agentID, fromID, toID uuid.UUID) (*VersionDiff, error) {
	from, err := r.FindVersion(ctx, agentID, fromID)
	if err != nil {
		return nil, err
	}
	to, err := r.FindVersion(ctx, agentID, toID)
	if err != nil {
		return nil, err
	}

	changes, err := CompareDocuments(from.Config, to.Config)
	if err != nil {
		return nil, fmt.Errorf("compare versions: %w", err)
	}

	return &VersionDiff{
		FromVersion: from.VersionNumber,
		ToVersion:   to.VersionNumber,
		Changes:     changes,
	}, nil
}

func (r *repo) Rollback(ctx context.Context, agentID, versionID uuid.UUID) (*Agent, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current json.RawMessage
	err = tx.QueryRowContext(ctx,
		"SELECT config FROM agents WHERE agent_id = $1 FOR UPDATE", agentID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock agent: %w", err)
	}

	var snapshot json.RawMessage
	err = tx.QueryRowContext(ctx,
		"SELECT config FROM agent_versions WHERE version_id = $1 AND agent_id = $2",
		versionID, agentID,
	).Scan(&snapshot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("query version: %w", err)
	}

	// rollback is itself a new version, never a rewrite of history
	restored, err := restoreConfig(current, snapshot)
	if err != nil {
		return nil, err
	}

	v, err := r.createVersionTx(ctx, tx, agentID, restored)
	if err != nil {
		return nil, err
	}

	q := `
		UPDATE agents
		SET config = $2, updated_at = NOW()
		WHERE agent_id = $1
		RETURNING ` + agentColumns

	a, err := scanAgent(tx.QueryRowContext(ctx, q, agentID, []byte(restored)))
	if err != nil {
		return nil, fmt.Errorf("update agent config: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	r.logger.Info("agent rolled back",
		"id", agentID, "to_version_id", versionID, "new_version", v.VersionNumber)
	return &a, nil
}

func (r *repo) LatestTools(ctx context.Context, agentID uuid.UUID) (*ToolSet, error) {
	if err := r.requireAgent(ctx, agentID); err != nil {
		return nil, err
	}

	var raw []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT config -> 'tools' FROM agent_versions
		WHERE agent_id = $1
		ORDER BY version_number DESC
		LIMIT 1`, agentID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("query latest tools: %w", err)
	}

	tools := NewToolSet()
	if raw != nil {
		if err := json.Unmarshal(raw, &tools); err != nil {
			return nil, fmt.Errorf("parse tools: %w", err)
		}
	}
	return &tools, nil
}

// createVersionTx snapshots an agent config as the next version and reconciles
// the owning agent's counter in the same transaction. Callers must hold a lock
// on the agent row (FOR UPDATE or a prior UPDATE/INSERT) so that concurrent
// writers serialize their version numbers; the UNIQUE(agent_id, version_number)
// constraint backstops the ordering.
func (r *repo) createVersionTx(ctx context.Context, tx *sql.Tx, agentID uuid.UUID, config json.RawMessage) (*AgentVersion, error) {
	snapshot, err := snapshotConfig(config)
	if err != nil {
		return nil, err
	}
	if err := ValidateConfig(snapshot, KindVersion); err != nil {
		return nil, err
	}

	var next int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version_number), 0) + 1 FROM agent_versions WHERE agent_id = $1",
		agentID,
	).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("next version number: %w", err)
	}

	q := `
		INSERT INTO agent_versions (agent_id, version_number, config)
		VALUES ($1, $2, $3)
		RETURNING ` + versionColumns

	v, err := scanVersion(tx.QueryRowContext(ctx, q, agentID, next, []byte(snapshot)))
	if err != nil {
		return nil, fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE agents
		SET version_count = (SELECT COUNT(*) FROM agent_versions WHERE agent_id = $1),
		    updated_at = NOW()
		WHERE agent_id = $1`, agentID,
	)
	if err != nil {
		return nil, fmt.Errorf("update version count: %w", err)
	}

	return &v, nil
}

func (r *repo) lockAgent(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	var locked bool
	err := tx.QueryRowContext(ctx,
		"SELECT TRUE FROM agents WHERE agent_id = $1 FOR UPDATE", id,
	).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock agent: %w", err)
	}
	return nil
}

func (r *repo) requireAgent(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM agents WHERE agent_id = $1)", id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check agent: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func (r *repo) checkConfig(config json.RawMessage, kind RecordKind) error {
	if max := r.options.MaxConfigSize; max > 0 && int64(len(config)) > max {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrConfigTooLarge, len(config), max)
	}
	if err := ValidateConfig(config, kind); err != nil {
		return err
	}

	// the typed decode catches malformed canonical fields the key-presence
	// check cannot, such as non-string metadata values
	if _, err := ParseDocument(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// projectedSort drops caller-supplied sort fields that are not projected.
func projectedSort(sort []query.SortField) []query.SortField {
	valid := make([]query.SortField, 0, len(sort))
	for _, s := range sort {
		if projection.Has(s.Field) {
			valid = append(valid, s)
		}
	}
	return valid
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
