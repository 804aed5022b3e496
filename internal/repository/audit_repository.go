package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/taskboard/internal/model"
)

// AuditRepo appends and lists rows of the audit_logs table. Rows are
// never updated or deleted.
type AuditRepo struct{ DB *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{DB: db} }

// Append inserts e and fills in its ID.
func (r *AuditRepo) Append(ctx context.Context, e *model.AuditLogEntry) error {
	bt, bd, bs := snapshotColumns(e.Before)
	at, ad, as := snapshotColumns(e.After)
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO audit_logs
		   (actor_id, action, entity, entity_id,
		    before_title, before_description, before_status,
		    after_title, after_description, after_status,
		    ip, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ActorID, string(e.Action), e.EntityType, e.EntityID,
		bt, bd, bs, at, ad, as,
		nullString(e.IP), e.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// ListByEntity returns one page of entries for an entity, newest first,
// together with the total number of entries for it.
func (r *AuditRepo) ListByEntity(ctx context.Context, entityType, entityID string, p model.Page) ([]model.AuditLogEntry, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM audit_logs WHERE entity=? AND entity_id=?",
		entityType, entityID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, actor_id, action, entity, entity_id,
		        before_title, before_description, before_status,
		        after_title, after_description, after_status,
		        ip, created_at
		   FROM audit_logs
		  WHERE entity=? AND entity_id=?
		  ORDER BY created_at DESC, id DESC
		  LIMIT ? OFFSET ?`,
		entityType, entityID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.AuditLogEntry, 0, p.Limit)
	for rows.Next() {
		var (
			e          model.AuditLogEntry
			action     string
			bt, bd, bs sql.NullString
			at, ad, as sql.NullString
			ip         sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &action, &e.EntityType, &e.EntityID,
			&bt, &bd, &bs, &at, &ad, &as, &ip, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		e.Action = model.AuditAction(action)
		e.Before = snapshotFrom(bt, bd, bs)
		e.After = snapshotFrom(at, ad, as)
		e.IP = ip.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func snapshotColumns(s *model.Snapshot) (title, desc, status sql.NullString) {
	if s == nil {
		return
	}
	if s.Title != nil {
		title = sql.NullString{String: *s.Title, Valid: true}
	}
	if s.Description != nil {
		desc = sql.NullString{String: *s.Description, Valid: true}
	}
	if s.Status != nil {
		status = sql.NullString{String: string(*s.Status), Valid: true}
	}
	return
}

// snapshotFrom materializes a snapshot only when at least one column is
// non-null.
func snapshotFrom(title, desc, status sql.NullString) *model.Snapshot {
	if !title.Valid && !desc.Valid && !status.Valid {
		return nil
	}
	s := &model.Snapshot{}
	if title.Valid {
		v := title.String
		s.Title = &v
	}
	if desc.Valid {
		v := desc.String
		s.Description = &v
	}
	if status.Valid {
		v := model.CardStatus(status.String)
		s.Status = &v
	}
	return s
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
