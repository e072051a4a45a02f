package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artem13815/resumeflow/pkg/resume"
)

// ResumeRepository хранит записи резюме: ссылку на файл, структуру и исходный текст.
type ResumeRepository struct {
	pool *pgxpool.Pool
}

func NewResumeRepository(pool *pgxpool.Pool) (*ResumeRepository, error) {
	r := &ResumeRepository{pool: pool}
	if err := r.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *ResumeRepository) ensureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS resumes (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	file_name TEXT NOT NULL,
	file_path TEXT NOT NULL,
	file_url TEXT NOT NULL,
	file_type TEXT NOT NULL,
	file_size BIGINT NOT NULL,
	parsed_data JSONB NOT NULL,
	raw_text TEXT NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('pending', 'completed', 'failed')),
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS resumes_user_created_idx ON resumes (user_id, created_at DESC);
`)
	return err
}

func (r *ResumeRepository) Create(ctx context.Context, rec resume.Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	parsed, err := json.Marshal(rec.ParsedData)
	if err != nil {
		return fmt.Errorf("encode parsed data: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
INSERT INTO resumes (id, user_id, file_name, file_path, file_url, file_type, file_size, parsed_data, raw_text, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`, rec.ID, rec.UserID, rec.FileName, rec.FilePath, rec.FileURL, rec.FileType, rec.FileSize, parsed, rec.RawText, string(rec.Status), rec.CreatedAt)
	return err
}

// ListByOwner returns records newest first, without raw text.
func (r *ResumeRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]resume.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, file_name, file_path, file_url, file_type, file_size, parsed_data, '' AS raw_text, status, created_at
FROM resumes WHERE user_id = $3
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`, limit, offset, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []resume.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

func (r *ResumeRepository) GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (resume.Record, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, user_id, file_name, file_path, file_url, file_type, file_size, parsed_data, raw_text, status, created_at
FROM resumes WHERE id = $1 AND user_id = $2
`, id, ownerID)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return resume.Record{}, resume.ErrNotFound
	}
	return rec, err
}

func (r *ResumeRepository) DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) (resume.Record, error) {
	row := r.pool.QueryRow(ctx, `
DELETE FROM resumes WHERE id = $1 AND user_id = $2
RETURNING id, user_id, file_name, file_path, file_url, file_type, file_size, parsed_data, '' AS raw_text, status, created_at
`, id, ownerID)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return resume.Record{}, resume.ErrNotFound
	}
	return rec, err
}

func scanRecord(row pgx.Row) (resume.Record, error) {
	var rec resume.Record
	var parsed []byte
	var status string
	var created time.Time
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.FileName, &rec.FilePath, &rec.FileURL, &rec.FileType,
		&rec.FileSize, &parsed, &rec.RawText, &status, &created); err != nil {
		return resume.Record{}, err
	}
	if err := json.Unmarshal(parsed, &rec.ParsedData); err != nil {
		return resume.Record{}, fmt.Errorf("decode parsed data of %s: %w", rec.ID, err)
	}
	rec.Status = resume.Status(status)
	rec.CreatedAt = created.UTC()
	return rec, nil
}
