package store

import (
	"database/sql"
	"fmt"

	"github.com/kce-spotlight/console/internal/model"
)

// AuditStore records admin actions taken through the console.
type AuditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

func scanAuditEvent(scanner interface{ Scan(...any) error }) (*model.AuditEvent, error) {
	var e model.AuditEvent
	err := scanner.Scan(&e.ID, &e.Actor, &e.Entity, &e.EntityID, &e.Action, &e.Detail, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const auditCols = `id, actor, entity, entity_id, action, detail, created_at`

func (s *AuditStore) Record(actor, entity, entityID, action, detail string) (*model.AuditEvent, error) {
	result, err := s.db.Exec(
		`INSERT INTO audit_events (actor, entity, entity_id, action, detail) VALUES (?, ?, ?, ?, ?)`,
		actor, entity, entityID, action, detail,
	)
	if err != nil {
		return nil, fmt.Errorf("insert audit event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+auditCols+` FROM audit_events WHERE id = ?`, id)
	return scanAuditEvent(row)
}

// Recent returns the newest events first. An empty entity matches all.
func (s *AuditStore) Recent(entity string, limit int) ([]model.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + auditCols + ` FROM audit_events`
	args := []any{}
	if entity != "" {
		query += ` WHERE entity = ?`
		args = append(args, entity)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []model.AuditEvent
	for rows.Next() {
		e, err := scanAuditEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// ForEntity returns the history of one record, oldest first.
func (s *AuditStore) ForEntity(entity, entityID string) ([]model.AuditEvent, error) {
	rows, err := s.db.Query(
		`SELECT `+auditCols+` FROM audit_events WHERE entity = ? AND entity_id = ? ORDER BY created_at, id`,
		entity, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("list entity audit events: %w", err)
	}
	defer rows.Close()

	var events []model.AuditEvent
	for rows.Next() {
		e, err := scanAuditEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// Prune deletes events older than the newest keep events.
func (s *AuditStore) Prune(keep int) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM audit_events WHERE id NOT IN (SELECT id FROM audit_events ORDER BY id DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune audit events: %w", err)
	}
	return result.RowsAffected()
}
