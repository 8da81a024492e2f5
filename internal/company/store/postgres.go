package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"xup/internal/company/models"
	id "xup/pkg/domain"
	"xup/pkg/platform/sentinel"
)

const (
	uniqueViolation = "23505"

	buidConstraint  = "companies_buid_key"
	emailConstraint = "companies_email_key"
)

const companyColumns = `id, buid, project_name, first_name, last_name, email, team_size, project_url,
	telegram_chat_id, telegram_auth, telegram_auth_status, telegram_auth_callback_url, created_at, updated_at`

// PostgresStore persists companies in the companies table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateIfAbsent inserts c, relying on unique indexes for buid and lower(email).
func (s *PostgresStore) CreateIfAbsent(ctx context.Context, c *models.Company) error {
	query := `INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(c.ID), uuid.UUID(c.BUID), c.ProjectName, c.FirstName, c.LastName, c.Email,
		c.TeamSize, c.ProjectURL, c.TelegramChatID, c.TelegramAuth, c.TelegramAuthStatus,
		c.TelegramAuthCallbackURL, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, companyID id.CompanyID) (*models.Company, error) {
	return s.findOne(ctx, `WHERE id = $1`, uuid.UUID(companyID))
}

func (s *PostgresStore) FindByBUID(ctx context.Context, buid id.BUID) (*models.Company, error) {
	return s.findOne(ctx, `WHERE buid = $1`, uuid.UUID(buid))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Company, error) {
	return s.findOne(ctx, `WHERE lower(email) = lower($1)`, email)
}

// FindByTelegramChatID returns the oldest company bound to chatID.
func (s *PostgresStore) FindByTelegramChatID(ctx context.Context, chatID string) (*models.Company, error) {
	if chatID == "" {
		return nil, sentinel.ErrNotFound
	}
	return s.findOne(ctx, `WHERE telegram_chat_id = $1 ORDER BY created_at ASC LIMIT 1`, chatID)
}

// Update writes every mutable column. buid and created_at are never written.
func (s *PostgresStore) Update(ctx context.Context, c *models.Company) error {
	query := `UPDATE companies SET
			project_name = $2, first_name = $3, last_name = $4, email = $5, team_size = $6,
			project_url = $7, telegram_chat_id = $8, telegram_auth = $9, telegram_auth_status = $10,
			telegram_auth_callback_url = $11, updated_at = $12
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(c.ID), c.ProjectName, c.FirstName, c.LastName, c.Email, c.TeamSize,
		c.ProjectURL, c.TelegramChatID, c.TelegramAuth, c.TelegramAuthStatus,
		c.TelegramAuthCallbackURL, c.UpdatedAt,
	)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("update company: %w", err)
	}
	return requireOneRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, companyID id.CompanyID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM companies WHERE id = $1`, uuid.UUID(companyID))
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	return requireOneRow(res)
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) findOne(ctx context.Context, where string, args ...any) (*models.Company, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies `+where, args...)
	var (
		c         models.Company
		companyID uuid.UUID
		buid      uuid.UUID
	)
	err := row.Scan(&companyID, &buid, &c.ProjectName, &c.FirstName, &c.LastName, &c.Email,
		&c.TeamSize, &c.ProjectURL, &c.TelegramChatID, &c.TelegramAuth, &c.TelegramAuthStatus,
		&c.TelegramAuthCallbackURL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find company: %w", err)
	}
	c.ID = id.CompanyID(companyID)
	c.BUID = id.BUID(buid)
	return &c, nil
}

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return nil
	}
	switch pqErr.Constraint {
	case buidConstraint:
		return ErrBUIDTaken
	case emailConstraint:
		return ErrEmailTaken
	default:
		return fmt.Errorf("%s: %w", pqErr.Constraint, sentinel.ErrAlreadyUsed)
	}
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
