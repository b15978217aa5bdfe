package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-media/pkg/simplemedia"
)

//go:embed schema.sql
var schema string

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements simplemedia.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// EnsureSchema creates the document table and its indexes when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return r.handlePostgresError("ensure schema", err)
	}
	return nil
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return simplemedia.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", operation, simplemedia.ErrAlreadyExists)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

const selectColumns = `id, kind, status, title, summary, keywords, body,
	created_by, updated_by, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, doc *simplemedia.Document) error {
	query := `
		INSERT INTO media_document (
			id, kind, status, title, summary, keywords, keyword_text, body,
			created_by, updated_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		doc.ID, string(doc.Kind), string(doc.Status), doc.Title, doc.Summary,
		keywords(doc.Keywords), strings.Join(doc.Keywords, " "), doc.Body,
		doc.CreatedBy, doc.UpdatedBy, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create document", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, kind simplemedia.Kind, id uuid.UUID) (*simplemedia.Document, error) {
	query := `SELECT ` + selectColumns + ` FROM media_document WHERE id = $1 AND kind = $2`

	doc, err := scanDocument(r.db.QueryRow(ctx, query, id, string(kind)))
	if err != nil {
		return nil, r.handlePostgresError("get document", err)
	}
	return doc, nil
}

func (r *Repository) Update(ctx context.Context, doc *simplemedia.Document) error {
	query := `
		UPDATE media_document SET
			status = $3, title = $4, summary = $5, keywords = $6,
			keyword_text = $7, body = $8, updated_by = $9, updated_at = $10
		WHERE id = $1 AND kind = $2`

	tag, err := r.db.Exec(ctx, query,
		doc.ID, string(doc.Kind), string(doc.Status), doc.Title, doc.Summary,
		keywords(doc.Keywords), strings.Join(doc.Keywords, " "), doc.Body,
		doc.UpdatedBy, doc.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update document", err)
	}
	if tag.RowsAffected() == 0 {
		return simplemedia.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, kind simplemedia.Kind, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM media_document WHERE id = $1 AND kind = $2`, id, string(kind))
	if err != nil {
		return r.handlePostgresError("delete document", err)
	}
	if tag.RowsAffected() == 0 {
		return simplemedia.ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context, filter simplemedia.ListFilter) ([]*simplemedia.Document, error) {
	query, args := buildListQuery(filter)
	return r.queryDocuments(ctx, "list documents", query, args...)
}

func (r *Repository) Search(ctx context.Context, kind simplemedia.Kind, q string, limit int) ([]*simplemedia.Document, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	query := `SELECT ` + selectColumns + `
		FROM media_document, plainto_tsquery('simple', $2) query
		WHERE kind = $1 AND search_vector @@ query
		ORDER BY ts_rank(search_vector, query) DESC, created_at DESC`
	args := []interface{}{string(kind), q}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	return r.queryDocuments(ctx, "search documents", query, args...)
}

func (r *Repository) GetSingleton(ctx context.Context, kind simplemedia.Kind) (*simplemedia.Document, error) {
	query := `SELECT ` + selectColumns + ` FROM media_document WHERE kind = $1 LIMIT 1`

	doc, err := scanDocument(r.db.QueryRow(ctx, query, string(kind)))
	if err != nil {
		return nil, r.handlePostgresError("get singleton", err)
	}
	return doc, nil
}

// buildListQuery renders the list statement for filter, newest first.
func buildListQuery(filter simplemedia.ListFilter) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(`SELECT ` + selectColumns + ` FROM media_document WHERE kind = $1`)
	args := []interface{}{string(filter.Kind)}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		fmt.Fprintf(&b, ` AND status = $%d`, len(args))
	}
	b.WriteString(` ORDER BY created_at DESC, id`)
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, ` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&b, ` OFFSET $%d`, len(args))
	}
	return b.String(), args
}

func (r *Repository) queryDocuments(ctx context.Context, operation, query string, args ...interface{}) ([]*simplemedia.Document, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError(operation, err)
	}
	defer rows.Close()

	var docs []*simplemedia.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, r.handlePostgresError(operation, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError(operation, err)
	}
	return docs, nil
}

func scanDocument(row pgx.Row) (*simplemedia.Document, error) {
	var (
		doc          simplemedia.Document
		kind, status string
	)
	err := row.Scan(
		&doc.ID, &kind, &status, &doc.Title, &doc.Summary, &doc.Keywords, &doc.Body,
		&doc.CreatedBy, &doc.UpdatedBy, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	doc.Kind = simplemedia.Kind(kind)
	doc.Status = simplemedia.Status(status)
	if len(doc.Keywords) == 0 {
		doc.Keywords = nil
	}
	return &doc, nil
}

func keywords(k []string) []string {
	if k == nil {
		return []string{}
	}
	return k
}
