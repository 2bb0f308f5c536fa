package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contact-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Repository using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns, minConns := int32(4), int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS extract_mogi (
	id               BIGSERIAL PRIMARY KEY,
	nome_empresa     TEXT NOT NULL UNIQUE,
	telefone         TEXT,
	celular_whatsapp TEXT,
	facebook_link    TEXT,
	email            TEXT,
	site             TEXT,
	data_extracao    TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, rec model.ContactRecord) error {
	if err := validate(rec); err != nil {
		return persistErr(rec.SubjectName, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return persistErr(rec.SubjectName, eris.Wrap(err, "postgres: begin"))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	existing, err := scanContact(tx.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM extract_mogi WHERE nome_empresa = $1 FOR UPDATE`, rec.SubjectName))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// data_extracao is filled by the column default.
		_, err = tx.Exec(ctx,
			`INSERT INTO extract_mogi (nome_empresa, telefone, celular_whatsapp, facebook_link, email, site)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			rec.SubjectName, nullable(rec.Phone), nullable(rec.MessagingNumber),
			nullable(rec.SocialLink), nullable(rec.Email), nullable(rec.Website),
		)
		if err != nil {
			return persistErr(rec.SubjectName, eris.Wrap(err, "postgres: insert"))
		}
	case err != nil:
		return persistErr(rec.SubjectName, eris.Wrap(err, "postgres: lookup"))
	default:
		m := model.Merge(*existing, rec)
		_, err = tx.Exec(ctx,
			`UPDATE extract_mogi SET telefone = $1, celular_whatsapp = $2, facebook_link = $3, email = $4, site = $5
			 WHERE id = $6`,
			nullable(m.Phone), nullable(m.MessagingNumber), nullable(m.SocialLink),
			nullable(m.Email), nullable(m.Website), m.ID,
		)
		if err != nil {
			return persistErr(rec.SubjectName, eris.Wrap(err, "postgres: update"))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return persistErr(rec.SubjectName, eris.Wrap(err, "postgres: commit"))
	}
	zap.L().Debug("store: upserted", zap.String("subject", rec.SubjectName), zap.Bool("update", existing != nil))
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, subject string) (*model.ContactRecord, error) {
	rec, err := scanContact(s.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM extract_mogi WHERE nome_empresa = $1`, subject))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get %q", subject)
	}
	return rec, nil
}

func (s *PostgresStore) Query(ctx context.Context, f Filter) ([]model.ContactRecord, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + selectColumns + ` FROM extract_mogi`)
	if f.HasURI {
		b.WriteString(` WHERE ` + hasURIClause)
	}
	b.WriteString(` ORDER BY id`)
	if f.Limit > 0 {
		b.WriteString(` LIMIT ` + strconv.Itoa(f.Limit))
	}

	rows, err := s.pool.Query(ctx, b.String())
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query")
	}
	defer rows.Close()

	var out []model.ContactRecord
	for rows.Next() {
		rec, err := scanContact(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan")
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: rows")
}

const postgresStats = `SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE ` + hasURIClause + `),
	COUNT(*) FILTER (WHERE COALESCE(email, '') <> ''),
	COUNT(*) FILTER (WHERE COALESCE(celular_whatsapp, '') <> ''),
	COUNT(*) FILTER (WHERE COALESCE(telefone, '') <> '')
FROM extract_mogi`

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, postgresStats).
		Scan(&st.Total, &st.WithURI, &st.WithEmail, &st.WithMessaging, &st.WithPhone)
	if err != nil {
		return Stats{}, eris.Wrap(err, "postgres: stats")
	}
	st.WithoutURI = st.Total - st.WithURI
	return st, nil
}
