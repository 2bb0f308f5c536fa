// Package store persists contact records with monotonic merge semantics.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contact-cli/internal/model"
)

// Table is the relation holding one row per subject.
const Table = "extract_mogi"

// Filter selects records for Query.
type Filter struct {
	// HasURI keeps only rows with a website or a social link.
	HasURI bool `json:"has_uri,omitempty"`
	// Limit caps the result size; 0 means no limit.
	Limit int `json:"limit,omitempty"`
}

// Stats summarizes the stored records.
type Stats struct {
	Total         int `json:"total"`
	WithURI       int `json:"with_uri"`
	WithEmail     int `json:"with_email"`
	WithMessaging int `json:"with_messaging"`
	WithPhone     int `json:"with_phone"`
	WithoutURI    int `json:"without_uri"`
}

// Repository is the contact store. Upsert looks the subject up by exact name,
// inserts when absent, and otherwise overwrites only the fields present in
// the incoming record.
type Repository interface {
	Upsert(ctx context.Context, rec model.ContactRecord) error
	Get(ctx context.Context, subject string) (*model.ContactRecord, error)
	Query(ctx context.Context, f Filter) ([]model.ContactRecord, error)
	Stats(ctx context.Context) (Stats, error)

	Migrate(ctx context.Context) error
	Close() error
}

// PersistenceError reports a failed, rolled-back write for one subject.
// It matches model.ErrPersistence with errors.Is.
type PersistenceError struct {
	Subject string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %q: %v", e.Subject, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == model.ErrPersistence }

func persistErr(subject string, err error) error {
	return &PersistenceError{Subject: subject, Err: err}
}

func validate(rec model.ContactRecord) error {
	if strings.TrimSpace(rec.SubjectName) == "" {
		return eris.New("store: empty subject name")
	}
	return nil
}

// Open connects to the configured backend and applies the schema.
func Open(ctx context.Context, driver, dsn string, pool *PoolConfig) (Repository, error) {
	var (
		repo Repository
		err  error
	)
	switch strings.ToLower(driver) {
	case "", "sqlite":
		repo, err = NewSQLite(dsn)
	case "postgres", "postgresql":
		repo, err = NewPostgres(ctx, dsn, pool)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

// columns shared by every SELECT; absent values come back as "".
const selectColumns = `id, nome_empresa, COALESCE(telefone, ''), COALESCE(celular_whatsapp, ''),
	COALESCE(facebook_link, ''), COALESCE(email, ''), COALESCE(site, ''), data_extracao`

const hasURIClause = `(COALESCE(site, '') <> '' OR COALESCE(facebook_link, '') <> '')`

type scannable interface {
	Scan(dest ...any) error
}

func scanContact(row scannable) (*model.ContactRecord, error) {
	var r model.ContactRecord
	if err := row.Scan(&r.ID, &r.SubjectName, &r.Phone, &r.MessagingNumber,
		&r.SocialLink, &r.Email, &r.Website, &r.ExtractedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// nullable maps an absent field to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
