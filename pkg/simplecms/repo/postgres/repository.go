package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store implements simplecms.DocumentStore using PostgreSQL. Every collection
// shares one jsonb documents table keyed by (collection, id).
type Store struct {
	db DBTX
}

// New creates a new PostgreSQL document store
func New(db DBTX) *Store {
	return &Store{db: db}
}

// NewWithPool creates a new PostgreSQL document store with connection pool
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// Schema is the DDL the store expects. Applied by Init or by an external
// migration tool.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id         TEXT NOT NULL,
    data       JSONB NOT NULL,
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_slug_idx ON documents (collection, (data->>'slug'));
CREATE INDEX IF NOT EXISTS documents_status_idx ON documents (collection, (data->>'status'));
`

// Init creates the documents table if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return s.handlePostgresError("init", err)
	}
	return nil
}

// Error handling helper
func (s *Store) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("duplicate entry")
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

// filterClause builds the WHERE fragment for a filter. Equals keys are sorted
// so generated SQL is deterministic.
func filterClause(filter simplecms.FindFilter, args *[]interface{}) string {
	clauses := []string{"collection = $1"}
	if filter.Status != nil {
		*args = append(*args, string(*filter.Status))
		clauses = append(clauses, fmt.Sprintf("data->>'status' = $%d", len(*args)))
	}
	keys := make([]string, 0, len(filter.Equals))
	for k := range filter.Equals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		*args = append(*args, fmt.Sprint(filter.Equals[k]))
		clauses = append(clauses, fmt.Sprintf("data->>%s = $%d", quoteLiteral(k), len(*args)))
	}
	return strings.Join(clauses, " AND ")
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

const defaultFindLimit = 1000

func (s *Store) Find(ctx context.Context, collection string, filter simplecms.FindFilter, opts simplecms.FindOptions) (simplecms.FindResult, error) {
	args := []interface{}{collection}
	where := filterClause(filter, &args)

	var total int
	countQuery := "SELECT COUNT(*) FROM documents WHERE " + where
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return simplecms.FindResult{}, s.handlePostgresError("find", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultFindLimit
	}
	args = append(args, limit)
	query := fmt.Sprintf(
		"SELECT data FROM documents WHERE %s ORDER BY data->>'createdAt' DESC, id ASC LIMIT $%d",
		where, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return simplecms.FindResult{}, s.handlePostgresError("find", err)
	}
	defer rows.Close()

	docs := []simplecms.RawDocument{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return simplecms.FindResult{}, s.handlePostgresError("find", err)
		}
		var doc simplecms.RawDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return simplecms.FindResult{}, fmt.Errorf("decode document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return simplecms.FindResult{}, s.handlePostgresError("find", err)
	}

	return simplecms.FindResult{
		Docs:        docs,
		TotalDocs:   total,
		HasNextPage: total > limit,
	}, nil
}

func (s *Store) FindByID(ctx context.Context, collection, id string) (simplecms.RawDocument, error) {
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2`

	var data []byte
	err := s.db.QueryRow(ctx, query, collection, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplecms.ErrNotFound
		}
		return nil, s.handlePostgresError("find by id", err)
	}

	var doc simplecms.RawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

func (s *Store) Create(ctx context.Context, collection string, data simplecms.RawDocument) (simplecms.RawDocument, error) {
	doc := make(simplecms.RawDocument, len(data))
	for k, v := range data {
		doc[k] = v
	}
	id, _ := doc["id"].(string)
	if id == "" {
		id = uuid.NewString()
		doc["id"] = id
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	query := `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`
	if _, err := s.db.Exec(ctx, query, collection, id, payload); err != nil {
		return nil, s.handlePostgresError("create", err)
	}
	return doc, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, data simplecms.RawDocument) (simplecms.RawDocument, error) {
	doc := make(simplecms.RawDocument, len(data))
	for k, v := range data {
		doc[k] = v
	}
	doc["id"] = id // identity is never overwritten by incoming data

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	query := `UPDATE documents SET data = $3 WHERE collection = $1 AND id = $2`
	tag, err := s.db.Exec(ctx, query, collection, id, payload)
	if err != nil {
		return nil, s.handlePostgresError("update", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, simplecms.ErrNotFound
	}
	return doc, nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`
	tag, err := s.db.Exec(ctx, query, collection, id)
	if err != nil {
		return s.handlePostgresError("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return simplecms.ErrNotFound
	}
	return nil
}
