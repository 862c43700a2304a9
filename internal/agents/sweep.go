package agents

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// SweepStats summarizes one reconciliation pass over a table.
type SweepStats struct {
	Scanned  int
	Repaired int
	Skipped  int
	Failed   int
}

// Sweeper walks agent and version records and repairs structurally incomplete
// config documents in place. Repairs bypass the versioning write path: no
// snapshot is created and version_count is untouched.
type Sweeper struct {
	db     *sql.DB
	logger *slog.Logger
	batch  int
	dryRun bool
}

// NewSweeper creates a reconciliation sweeper. batch bounds how many candidate
// rows are fetched per query; values below 1 fall back to 100.
func NewSweeper(db *sql.DB, logger *slog.Logger, batch int, dryRun bool) *Sweeper {
	if batch < 1 {
		batch = 100
	}
	return &Sweeper{
		db:     db,
		logger: logger.With("system", "sweep"),
		batch:  batch,
		dryRun: dryRun,
	}
}

// SweepAgents reconciles every agents row whose config is missing one of the
// canonical keys. Keyset pagination over agent_id keeps each batch query
// cheap; the update predicate re-checks eligibility so a row repaired by a
// concurrent writer between read and write is left alone.
func (s *Sweeper) SweepAgents(ctx context.Context) (SweepStats, error) {
	var stats SweepStats
	var cursor uuid.UUID

	for {
		rows, err := s.db.QueryContext(ctx, `
			SELECT agent_id, config, avatar, avatar_color, agentpress_tools
			FROM agents
			WHERE agent_id > $1
			  AND NOT (config ? 'system_prompt' AND config ? 'tools' AND config ? 'metadata')
			ORDER BY agent_id
			LIMIT $2`, cursor, s.batch,
		)
		if err != nil {
			return stats, fmt.Errorf("query legacy agents: %w", err)
		}

		batch, err := collectAgentCandidates(rows)
		if err != nil {
			return stats, err
		}
		if len(batch) == 0 {
			return stats, nil
		}

		for _, c := range batch {
			cursor = c.id
			stats.Scanned++

			canonical, changed, err := Reconcile(c.record)
			if err != nil {
				stats.Failed++
				s.logger.Error("agent reconcile failed", "agent_id", c.id, "error", err)
				continue
			}
			if !changed {
				stats.Skipped++
				continue
			}
			if s.dryRun {
				stats.Repaired++
				s.logger.Info("agent needs repair (dry run)", "agent_id", c.id)
				continue
			}

			_, err = s.db.ExecContext(ctx, `
				UPDATE agents
				SET config = $2
				WHERE agent_id = $1
				  AND NOT (config ? 'system_prompt' AND config ? 'tools' AND config ? 'metadata')`,
				c.id, []byte(canonical),
			)
			if err != nil {
				stats.Failed++
				s.logger.Error("agent repair failed", "agent_id", c.id, "error", err)
				continue
			}

			stats.Repaired++
			s.logger.Info("agent repaired", "agent_id", c.id)
		}

		if len(batch) < s.batch {
			return stats, nil
		}
	}
}

// SweepVersions reconciles version snapshots missing system_prompt or tools.
// The owning agent's legacy tool column seeds a missing tools key, matching
// what a snapshot taken at the time would have captured.
func (s *Sweeper) SweepVersions(ctx context.Context) (SweepStats, error) {
	var stats SweepStats
	var cursor uuid.UUID

	for {
		rows, err := s.db.QueryContext(ctx, `
			SELECT v.version_id, v.config, a.agentpress_tools
			FROM agent_versions v
			JOIN agents a ON a.agent_id = v.agent_id
			WHERE v.version_id > $1
			  AND NOT (v.config ? 'system_prompt' AND v.config ? 'tools')
			ORDER BY v.version_id
			LIMIT $2`, cursor, s.batch,
		)
		if err != nil {
			return stats, fmt.Errorf("query legacy versions: %w", err)
		}

		batch, err := collectVersionCandidates(rows)
		if err != nil {
			return stats, err
		}
		if len(batch) == 0 {
			return stats, nil
		}

		for _, c := range batch {
			cursor = c.id
			stats.Scanned++

			canonical, changed, err := Reconcile(c.record)
			if err != nil {
				stats.Failed++
				s.logger.Error("version reconcile failed", "version_id", c.id, "error", err)
				continue
			}
			if !changed {
				stats.Skipped++
				continue
			}
			if s.dryRun {
				stats.Repaired++
				s.logger.Info("version needs repair (dry run)", "version_id", c.id)
				continue
			}

			_, err = s.db.ExecContext(ctx, `
				UPDATE agent_versions
				SET config = $2
				WHERE version_id = $1
				  AND NOT (config ? 'system_prompt' AND config ? 'tools')`,
				c.id, []byte(canonical),
			)
			if err != nil {
				stats.Failed++
				s.logger.Error("version repair failed", "version_id", c.id, "error", err)
				continue
			}

			stats.Repaired++
			s.logger.Info("version repaired", "version_id", c.id)
		}

		if len(batch) < s.batch {
			return stats, nil
		}
	}
}

type candidate struct {
	id     uuid.UUID
	record LegacyRecord
}

func collectAgentCandidates(rows *sql.Rows) ([]candidate, error) {
	defer rows.Close()

	var batch []candidate
	for rows.Next() {
		var c candidate
		var config, legacy []byte
		if err := rows.Scan(&c.id, &config, &c.record.Avatar, &c.record.AvatarColor, &legacy); err != nil {
			return nil, fmt.Errorf("scan legacy agent: %w", err)
		}
		c.record.Kind = KindAgent
		c.record.Config = json.RawMessage(config)
		c.record.AgentpressTools = json.RawMessage(legacy)
		batch = append(batch, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return batch, nil
}

func collectVersionCandidates(rows *sql.Rows) ([]candidate, error) {
	defer rows.Close()

	var batch []candidate
	for rows.Next() {
		var c candidate
		var config, legacy []byte
		if err := rows.Scan(&c.id, &config, &legacy); err != nil {
			return nil, fmt.Errorf("scan legacy version: %w", err)
		}
		c.record.Kind = KindVersion
		c.record.Config = json.RawMessage(config)
		c.record.AgentpressTools = json.RawMessage(legacy)
		batch = append(batch, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return batch, nil
}
