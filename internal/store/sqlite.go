package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/contact-cli/internal/model"
)

// SQLiteStore implements Repository using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS extract_mogi (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	nome_empresa     TEXT NOT NULL,
	telefone         TEXT,
	celular_whatsapp TEXT,
	facebook_link    TEXT,
	email            TEXT,
	site             TEXT,
	data_extracao    DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_extract_mogi_nome ON extract_mogi(nome_empresa);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Upsert(ctx context.Context, rec model.ContactRecord) error {
	if err := validate(rec); err != nil {
		return persistErr(rec.SubjectName, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr(rec.SubjectName, eris.Wrap(err, "sqlite: begin"))
	}
	defer tx.Rollback() //nolint:errcheck

	existing, err := scanContact(tx.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM extract_mogi WHERE nome_empresa = ?`, rec.SubjectName))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO extract_mogi (nome_empresa, telefone, celular_whatsapp, facebook_link, email, site, data_extracao)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.SubjectName, nullable(rec.Phone), nullable(rec.MessagingNumber),
			nullable(rec.SocialLink), nullable(rec.Email), nullable(rec.Website), s.now().UTC(),
		)
		if err != nil {
			return persistErr(rec.SubjectName, eris.Wrap(err, "sqlite: insert"))
		}
	case err != nil:
		return persistErr(rec.SubjectName, eris.Wrap(err, "sqlite: lookup"))
	default:
		m := model.Merge(*existing, rec)
		_, err = tx.ExecContext(ctx,
			`UPDATE extract_mogi SET telefone = ?, celular_whatsapp = ?, facebook_link = ?, email = ?, site = ?
			 WHERE id = ?`,
			nullable(m.Phone), nullable(m.MessagingNumber), nullable(m.SocialLink),
			nullable(m.Email), nullable(m.Website), m.ID,
		)
		if err != nil {
			return persistErr(rec.SubjectName, eris.Wrap(err, "sqlite: update"))
		}
	}

	if err := tx.Commit(); err != nil {
		return persistErr(rec.SubjectName, eris.Wrap(err, "sqlite: commit"))
	}
	zap.L().Debug("store: upserted", zap.String("subject", rec.SubjectName), zap.Bool("update", existing != nil))
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, subject string) (*model.ContactRecord, error) {
	rec, err := scanContact(s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM extract_mogi WHERE nome_empresa = ?`, subject))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get %q", subject)
	}
	return rec, nil
}

func (s *SQLiteStore) Query(ctx context.Context, f Filter) ([]model.ContactRecord, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + selectColumns + ` FROM extract_mogi`)
	if f.HasURI {
		b.WriteString(` WHERE ` + hasURIClause)
	}
	b.WriteString(` ORDER BY id`)
	var args []any
	if f.Limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ContactRecord
	for rows.Next() {
		rec, err := scanContact(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan")
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: rows")
}

const sqliteStats = `SELECT
	COUNT(*),
	COALESCE(SUM(CASE WHEN ` + hasURIClause + ` THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN COALESCE(email, '') <> '' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN COALESCE(celular_whatsapp, '') <> '' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN COALESCE(telefone, '') <> '' THEN 1 ELSE 0 END), 0)
FROM extract_mogi`

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, sqliteStats).
		Scan(&st.Total, &st.WithURI, &st.WithEmail, &st.WithMessaging, &st.WithPhone)
	if err != nil {
		return Stats{}, eris.Wrap(err, "sqlite: stats")
	}
	st.WithoutURI = st.Total - st.WithURI
	return st, nil
}
