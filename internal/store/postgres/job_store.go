// Package postgres provides Postgres-backed persistence for companies and
// job postings.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobsift/jobsift/internal/ingest"
	"github.com/jobsift/jobsift/internal/urlnorm"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// JobStore implements ingest.JobStore on a pgx pool.
type JobStore struct {
	pool dbPool
}

// NewJobStore creates a Postgres-backed JobStore using the provided config.
func NewJobStore(ctx context.Context, cfg Config) (*JobStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &JobStore{pool: pool}, nil
}

// NewJobStoreWithPool constructs a store from an existing pool (primarily for
// testing with pgxmock).
func NewJobStoreWithPool(pool dbPool) (*JobStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &JobStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *JobStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Init creates the schema when it does not exist yet.
func (s *JobStore) Init(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS companies (
			id            BIGSERIAL PRIMARY KEY,
			name          TEXT NOT NULL,
			logo          TEXT NOT NULL DEFAULT '',
			industry      TEXT NOT NULL DEFAULT '',
			size          TEXT NOT NULL DEFAULT '',
			stock_symbol  TEXT NOT NULL DEFAULT '',
			founded       TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS companies_name_idx ON companies (lower(name));

		CREATE TABLE IF NOT EXISTS job_postings (
			id                   BIGSERIAL PRIMARY KEY,
			company_id           BIGINT NOT NULL REFERENCES companies (id),
			title                TEXT NOT NULL,
			location             TEXT NOT NULL DEFAULT '',
			description          TEXT NOT NULL DEFAULT '',
			experience_level     TEXT NOT NULL DEFAULT '',
			salary               BIGINT NOT NULL DEFAULT 0,
			salary_max           BIGINT NOT NULL DEFAULT 0,
			hours_per_week       BIGINT NOT NULL DEFAULT 0,
			h1b_visa_sponsorship BOOLEAN NOT NULL DEFAULT FALSE,
			is_remote            BOOLEAN NOT NULL DEFAULT FALSE,
			relocation           BOOLEAN NOT NULL DEFAULT FALSE,
			skills               TEXT NOT NULL DEFAULT '',
			tags                 TEXT NOT NULL DEFAULT '',
			benefits             TEXT NOT NULL DEFAULT '',
			logo                 TEXT NOT NULL DEFAULT '',
			link                 TEXT NOT NULL,
			canonical_link       TEXT NOT NULL,
			signature            TEXT NOT NULL,
			created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS job_postings_signature_idx ON job_postings (signature);
		CREATE INDEX IF NOT EXISTS job_postings_canonical_link_idx ON job_postings (canonical_link);
	`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// CompanyIDByName looks a company up by case-insensitive name.
func (s *JobStore) CompanyIDByName(ctx context.Context, name string) (int64, bool, error) {
	const query = `SELECT id FROM companies WHERE lower(name) = lower($1)`
	var id int64
	err := s.pool.QueryRow(ctx, query, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query company by name: %w", err)
	}
	return id, true, nil
}

// CreateCompany inserts a company and returns its ID.
func (s *JobStore) CreateCompany(ctx context.Context, company ingest.Company) (int64, error) {
	const query = `
		INSERT INTO companies (name, logo, industry, size, stock_symbol, founded)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var id int64
	err := s.pool.QueryRow(ctx, query,
		company.Name,
		company.Logo,
		company.Industry,
		company.Size,
		company.StockSymbol,
		company.Founded,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert company: %w", err)
	}
	return id, nil
}

// CreateJobPosting inserts a posting and returns its ID. The dedup signature
// and the canonical link are computed here so every row carries them.
func (s *JobStore) CreateJobPosting(ctx context.Context, posting ingest.JobPosting, companyID int64, link string) (int64, error) {
	const query = `
		INSERT INTO job_postings (
			company_id, title, location, description, experience_level,
			salary, salary_max, hours_per_week,
			h1b_visa_sponsorship, is_remote, relocation,
			skills, tags, benefits, logo,
			link, canonical_link, signature
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id
	`
	signature := ingest.PostingSignature(posting.Title, posting.CompanyName, posting.Location, posting.Salary)
	var id int64
	err := s.pool.QueryRow(ctx, query,
		companyID,
		posting.Title,
		posting.Location,
		posting.Description,
		posting.ExperienceLevel,
		posting.Salary,
		posting.SalaryMax,
		posting.HoursPerWeek,
		posting.H1BVisaSponsorship,
		posting.IsRemote,
		posting.Relocation,
		posting.Skills,
		posting.Tags,
		posting.Benefits,
		posting.Logo,
		link,
		urlnorm.Canonical(link),
		signature,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert job posting: %w", err)
	}
	return id, nil
}

// DuplicateJobPostings finds postings duplicating each other by content
// signature or by canonical link. Groups matching on different criteria but
// sharing a posting are merged; IDs come back ascending so callers can keep
// the oldest.
func (s *JobStore) DuplicateJobPostings(ctx context.Context) ([]ingest.DuplicateGroup, error) {
	const bySignature = `
		SELECT signature, array_agg(id ORDER BY id)
		FROM job_postings
		GROUP BY signature
		HAVING count(*) > 1
	`
	const byLink = `
		SELECT canonical_link, array_agg(id ORDER BY id)
		FROM job_postings
		GROUP BY canonical_link
		HAVING count(*) > 1
	`
	groups, err := s.duplicateGroups(ctx, bySignature)
	if err != nil {
		return nil, err
	}
	linkGroups, err := s.duplicateGroups(ctx, byLink)
	if err != nil {
		return nil, err
	}
	return ingest.MergeDuplicateGroups(append(groups, linkGroups...)), nil
}

func (s *JobStore) duplicateGroups(ctx context.Context, query string) ([]ingest.DuplicateGroup, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query duplicate postings: %w", err)
	}
	defer rows.Close()

	var groups []ingest.DuplicateGroup
	for rows.Next() {
		var group ingest.DuplicateGroup
		if err := rows.Scan(&group.Key, &group.IDs); err != nil {
			return nil, fmt.Errorf("scan duplicate group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate duplicate groups: %w", err)
	}
	return groups, nil
}

// AllCompanyJobLinks returns the canonical links of every stored posting.
func (s *JobStore) AllCompanyJobLinks(ctx context.Context) ([]string, error) {
	const query = `SELECT canonical_link FROM job_postings`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query job links: %w", err)
	}
	defer rows.Close()

	var links []string
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("scan job link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job links: %w", err)
	}
	return links, nil
}

// DeleteJobPostings removes the postings with the given IDs.
func (s *JobStore) DeleteJobPostings(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `DELETE FROM job_postings WHERE id = ANY($1)`
	if _, err := s.pool.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("delete job postings: %w", err)
	}
	return nil
}
