package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/folioworks/folio/internal/domain/entity"
)

// EntityRow is the writable shape of one entity, across all four tables.
// BookID/ChapterID are only written for tables that carry those columns.
type EntityRow struct {
	Name       string
	Slug       string
	Text       string
	Restricted bool
	CreatedBy  int64
	UpdatedBy  int64
	OwnedBy    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
	BookID     int64
	ChapterID  int64
}

// SaveEntity inserts one entity row and returns its id. Entity CRUD proper
// lives outside the search subsystem; this narrow writer exists for seeding
// and for the entity-lifecycle hooks that drive incremental indexing.
func (s *Store) SaveEntity(ctx context.Context, d entity.Descriptor, row EntityRow) (int64, error) {
	cols := []string{"name", "slug", d.TextField, "restricted",
		"created_by", "updated_by", "owned_by", "created_at", "updated_at"}
	args := []any{row.Name, row.Slug, row.Text, boolToInt(row.Restricted),
		row.CreatedBy, row.UpdatedBy, row.OwnedBy, row.CreatedAt.Unix(), row.UpdatedAt.Unix()}

	if d.HasBookID {
		cols = append(cols, "book_id")
		args = append(args, row.BookID)
	}
	if d.HasChapterID {
		cols = append(cols, "chapter_id")
		args = append(args, row.ChapterID)
	}

	stmt := "INSERT INTO " + d.Table + " (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"

	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, &Error{Op: OpSaveEntity, Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &Error{Op: OpSaveEntity, Err: err}
	}
	return id, nil
}

// DeleteEntity removes one entity row together with its tags, views,
// comments, and permission grants. Term rows are the indexer's to delete.
func (s *Store) DeleteEntity(ctx context.Context, d entity.Descriptor, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+d.Table+" WHERE id = ?", id); err != nil {
		return &Error{Op: OpDeleteEntity, Err: err}
	}
	related := []string{"tags", "views", "comments", "entity_permissions"}
	for _, table := range related {
		if _, err := s.db.ExecContext(ctx,
			"DELETE FROM "+table+" WHERE entity_type = ? AND entity_id = ?",
			string(d.Type), id,
		); err != nil {
			return &Error{Op: OpDeleteEntity, Err: err}
		}
	}
	return nil
}

// ListForIndexing walks one entity table in id order, returning the name
// and body text the indexer tokenizes. offset/limit bound each batch.
func (s *Store) ListForIndexing(ctx context.Context, d entity.Descriptor, offset, limit int) ([]entity.Content, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, "+d.TextField+" FROM "+d.Table+" ORDER BY id LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, &Error{Op: OpListEntities, Err: err}
	}
	defer rows.Close()

	var contents []entity.Content
	for rows.Next() {
		var c entity.Content
		if err := rows.Scan(&c.ID, &c.Name, &c.Text); err != nil {
			return nil, &Error{Op: OpListEntities, Err: err}
		}
		contents = append(contents, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: OpListEntities, Err: err}
	}
	return contents, nil
}

// AddTag attaches a key/value tag to an entity.
func (s *Store) AddTag(ctx context.Context, ref entity.Ref, name, value string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (entity_type, entity_id, name, value) VALUES (?, ?, ?, ?)`,
		string(ref.Type), ref.ID, name, value,
	); err != nil {
		return &Error{Op: OpTag, Err: err}
	}
	return nil
}

// RecordView bumps the per-user view counter for an entity.
func (s *Store) RecordView(ctx context.Context, userID int64, ref entity.Ref) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO views (user_id, entity_type, entity_id, views) VALUES (?, ?, ?, 1)
		 ON CONFLICT(user_id, entity_type, entity_id) DO UPDATE SET views = views + 1`,
		userID, string(ref.Type), ref.ID,
	); err != nil {
		return &Error{Op: OpView, Err: err}
	}
	return nil
}

// AddComment records a comment on an entity, feeding the last_commented sort.
func (s *Store) AddComment(ctx context.Context, ref entity.Ref, text string, createdBy int64, createdAt time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (entity_type, entity_id, text, created_by, created_at) VALUES (?, ?, ?, ?, ?)`,
		string(ref.Type), ref.ID, text, createdBy, createdAt.Unix(),
	); err != nil {
		return &Error{Op: OpComment, Err: err}
	}
	return nil
}

// GrantPermission allows a user an action on one restricted entity.
func (s *Store) GrantPermission(ctx context.Context, ref entity.Ref, userID int64, action string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO entity_permissions (entity_type, entity_id, user_id, action) VALUES (?, ?, ?, ?)`,
		string(ref.Type), ref.ID, userID, action,
	); err != nil {
		return &Error{Op: OpGrant, Err: err}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
