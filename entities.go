package folio

import (
	"context"
	"fmt"
	"time"

	"github.com/folioworks/folio/internal/domain/entity"
	"github.com/folioworks/folio/internal/storage/sqlite"
	indexuc "github.com/folioworks/folio/internal/usecase/index"
)

// Entity types accepted by the EntityService.
const (
	TypeBookshelf = "bookshelf"
	TypeBook      = "book"
	TypeChapter   = "chapter"
	TypePage      = "page"
)

// Entity is the writable shape of one wiki entity.
type Entity struct {
	Type string
	Name string
	Slug string
	// Text is the body: page text, or the description for the container
	// types.
	Text       string
	Restricted bool
	CreatedBy  int64
	UpdatedBy  int64
	OwnedBy    int64
	// BookID and ChapterID place pages and chapters inside their
	// containers; ignored for types without the column.
	BookID    int64
	ChapterID int64
}

// EntityService writes entities and keeps the term index in step: every
// save re-indexes the entity and every delete removes its terms.
type EntityService struct {
	store   *sqlite.Store
	indexer *indexuc.Service
}

// Save inserts an entity, indexes it, and returns its id.
func (s *EntityService) Save(ctx context.Context, e Entity) (int64, error) {
	d, ok := entity.Lookup(entity.Type(e.Type))
	if !ok {
		return 0, fmt.Errorf("save: unknown entity type %q", e.Type)
	}

	now := time.Now()
	id, err := s.store.SaveEntity(ctx, d, sqlite.EntityRow{
		Name:       e.Name,
		Slug:       e.Slug,
		Text:       e.Text,
		Restricted: e.Restricted,
		CreatedBy:  e.CreatedBy,
		UpdatedBy:  e.UpdatedBy,
		OwnedBy:    e.OwnedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
		BookID:     e.BookID,
		ChapterID:  e.ChapterID,
	})
	if err != nil {
		return 0, fmt.Errorf("save: %w", err)
	}

	if err := s.indexer.IndexEntity(ctx, d, entity.Content{ID: id, Name: e.Name, Text: e.Text}); err != nil {
		return 0, fmt.Errorf("save: %w", err)
	}
	return id, nil
}

// Delete removes an entity, its related rows, and its index terms.
func (s *EntityService) Delete(ctx context.Context, entityType string, id int64) error {
	d, ok := entity.Lookup(entity.Type(entityType))
	if !ok {
		return fmt.Errorf("delete: unknown entity type %q", entityType)
	}

	if err := s.store.DeleteEntity(ctx, d, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if err := s.indexer.DeleteEntity(ctx, entity.Ref{Type: d.Type, ID: id}); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Tag attaches a key/value tag to an entity.
func (s *EntityService) Tag(ctx context.Context, entityType string, id int64, name, value string) error {
	ref, err := resolveRef(entityType, id)
	if err != nil {
		return fmt.Errorf("tag: %w", err)
	}
	return s.store.AddTag(ctx, ref, name, value)
}

// RecordView bumps a user's view counter for an entity, feeding the
// viewed_by_me search filters.
func (s *EntityService) RecordView(ctx context.Context, userID int64, entityType string, id int64) error {
	ref, err := resolveRef(entityType, id)
	if err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	return s.store.RecordView(ctx, userID, ref)
}

// Comment records a comment on an entity, feeding the last_commented sort.
func (s *EntityService) Comment(ctx context.Context, entityType string, id int64, text string, userID int64) error {
	ref, err := resolveRef(entityType, id)
	if err != nil {
		return fmt.Errorf("comment: %w", err)
	}
	return s.store.AddComment(ctx, ref, text, userID, time.Now())
}

// Grant allows a user to view one restricted entity.
func (s *EntityService) Grant(ctx context.Context, entityType string, id int64, userID int64) error {
	ref, err := resolveRef(entityType, id)
	if err != nil {
		return fmt.Errorf("grant: %w", err)
	}
	return s.store.GrantPermission(ctx, ref, userID, "view")
}

func resolveRef(entityType string, id int64) (entity.Ref, error) {
	t, ok := entity.ParseType(entityType)
	if !ok {
		return entity.Ref{}, fmt.Errorf("unknown entity type %q", entityType)
	}
	return entity.Ref{Type: t, ID: id}, nil
}
