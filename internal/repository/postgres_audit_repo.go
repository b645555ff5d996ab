package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/equipman/internal/model"
)

// PostgresAuditRepo はPostgreSQLを使用した監査ログリポジトリ。
// 追記と照会のみを提供する。UPDATE/DELETE文はこのファイルに存在しない。
type PostgresAuditRepo struct {
	db *sql.DB
}

// NewPostgresAuditRepo はPostgresAuditRepoを生成する。
func NewPostgresAuditRepo(db *sql.DB) *PostgresAuditRepo {
	return &PostgresAuditRepo{db: db}
}

// Insert は監査エントリを追記する。
func (r *PostgresAuditRepo) Insert(ctx context.Context, entry *model.AuditEntry) error {
	changes := entry.Changes
	if changes == nil {
		changes = map[string]any{}
	}
	data, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("failed to marshal audit changes: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, entity_type, entity_id, action, changes, actor_id, actor_name, actor_email, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.EntityType, entry.EntityID, entry.Action, data,
		entry.ActorID, entry.ActorName, entry.ActorEmail, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// List はフィルタに合致するエントリをtimestampの降順で返す。
// EntityType / EntityIDはそれぞれ独立に指定でき、空なら条件なし。
func (r *PostgresAuditRepo) List(ctx context.Context, filter model.AuditFilter, limit int) ([]*model.AuditEntry, error) {
	query := `SELECT id, entity_type, entity_id, action, changes, actor_id, actor_name, actor_email, timestamp
	          FROM audit_logs WHERE ($1 = '' OR entity_type = $1) AND ($2 = '' OR entity_id = $2)
	          ORDER BY timestamp DESC LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, filter.EntityType, filter.EntityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.AuditEntry
	for rows.Next() {
		entry := &model.AuditEntry{}
		var changes []byte
		err := rows.Scan(
			&entry.ID, &entry.EntityType, &entry.EntityID, &entry.Action, &changes,
			&entry.ActorID, &entry.ActorName, &entry.ActorEmail, &entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if err := json.Unmarshal(changes, &entry.Changes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit changes: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return entries, nil
}

// compile-time interface check
var _ AuditRepository = (*PostgresAuditRepo)(nil)
