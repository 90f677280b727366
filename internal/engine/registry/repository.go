package registry

import (
	"database/sql"
	"errors"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(rec *Record) error {
	query := `
		INSERT INTO codes (
			id, label, resource_path, payload, scan_count, created_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var resource sql.NullString
	if rec.ResourcePath != "" {
		resource = sql.NullString{String: rec.ResourcePath, Valid: true}
	}

	_, err := r.db.Exec(query,
		rec.ID,
		rec.Label,
		resource,
		rec.Payload,
		rec.ScanCount,
		rec.CreatedAt,
		rec.ExpiresAt,
	)

	return err
}

func (r *Repository) GetByID(id string) (*Record, error) {
	query := `
		SELECT id, label, resource_path, payload, scan_count, created_at, expires_at
		FROM codes WHERE id = ?
	`
	rec, err := scanRecord(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (r *Repository) ListAll() ([]*Record, error) {
	query := `
		SELECT id, label, resource_path, payload, scan_count, created_at, expires_at
		FROM codes
		ORDER BY created_at
	`
	return r.queryRecords(query)
}

// ListExpired returns every record whose expiry is strictly before now.
func (r *Repository) ListExpired(now int64) ([]*Record, error) {
	query := `
		SELECT id, label, resource_path, payload, scan_count, created_at, expires_at
		FROM codes
		WHERE expires_at < ?
		ORDER BY created_at
	`
	return r.queryRecords(query, now)
}

func (r *Repository) Delete(id string) error {
	_, err := r.db.Exec("DELETE FROM codes WHERE id = ?", id)
	return err
}

// IncrementScan bumps the scan counter in a single statement so
// concurrent scans never lose an increment. The bool reports whether
// the record still existed.
func (r *Repository) IncrementScan(id string) (bool, error) {
	res, err := r.db.Exec("UPDATE codes SET scan_count = scan_count + 1 WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repository) queryRecords(query string, args ...interface{}) ([]*Record, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(s interface {
	Scan(dest ...interface{}) error
}) (*Record, error) {
	var rec Record
	var resource sql.NullString

	err := s.Scan(
		&rec.ID,
		&rec.Label,
		&resource,
		&rec.Payload,
		&rec.ScanCount,
		&rec.CreatedAt,
		&rec.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	rec.ResourcePath = resource.String
	return &rec, nil
}
