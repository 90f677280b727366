package registry

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ResourceRemover releases the backing file of a file-backed code.
// Removal of an already-missing file must not be an error.
type ResourceRemover interface {
	Remove(path string) error
}

// Service owns the record set. Nothing else mutates or deletes codes.
type Service struct {
	repo  *Repository
	files ResourceRemover
	now   func() time.Time
}

func NewService(repo *Repository, files ResourceRemover) *Service {
	return &Service{repo: repo, files: files, now: time.Now}
}

// Create persists a new record with a fresh id and an expiry of
// ttlDays from now. An empty label defaults to the payload itself.
// On ErrStorage the code was not issued.
func (s *Service) Create(label, payload string, ttlDays int, resourcePath string) (*Record, error) {
	if payload == "" {
		return nil, errors.New("payload must not be empty")
	}
	if ttlDays < 1 {
		return nil, errors.New("ttl must be at least one day")
	}
	if label == "" {
		label = payload
	}

	now := s.now()
	rec := &Record{
		ID:           uuid.New().String(),
		Label:        label,
		ResourcePath: resourcePath,
		Payload:      payload,
		ScanCount:    0,
		CreatedAt:    now.Unix(),
		ExpiresAt:    now.Add(time.Duration(ttlDays) * 24 * time.Hour).Unix(),
	}

	if err := s.repo.Insert(rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return rec, nil
}

// Sweep deletes every record whose expiry has passed, releasing the
// backing file first where one exists. File removal is best-effort: a
// failure is logged and the record is still evicted from the index.
// Running it twice in a row deletes nothing the second time.
func (s *Service) Sweep(now time.Time) (int, error) {
	expired, err := s.repo.ListExpired(now.Unix())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	deleted := 0
	for _, rec := range expired {
		if rec.ResourcePath != "" && s.files != nil {
			if err := s.files.Remove(rec.ResourcePath); err != nil {
				log.Warn().
					Err(err).
					Str("id", rec.ID).
					Str("path", rec.ResourcePath).
					Msg("failed to remove backing file for expired code")
			}
		}
		if err := s.repo.Delete(rec.ID); err != nil {
			return deleted, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		deleted++
	}

	return deleted, nil
}

// ListAll returns the live records ordered by creation time. Callers
// feeding analytics views must Sweep first so expired codes never show.
func (s *Service) ListAll() ([]*Record, error) {
	records, err := s.repo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return records, nil
}

func (s *Service) Get(id string) (*Record, error) {
	rec, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return rec, nil
}

// IncrementScan adds exactly one to the record's scan counter.
// Returns ErrNotFound once the record has been swept; a missing id
// never creates a record.
func (s *Service) IncrementScan(id string) error {
	ok, err := s.repo.IncrementScan(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
