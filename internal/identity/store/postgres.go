package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"xup/internal/identity/models"
	id "xup/pkg/domain"
	"xup/pkg/platform/sentinel"
)

const (
	uniqueViolation = "23505"

	emailConstraint  = "provisional_credentials_email_key"
	chatIDConstraint = "provisional_credentials_chat_id_key"
	codeConstraint   = "provisional_credentials_code_key"
)

const credentialColumns = `id, email, chat_id, buid, token, code, created_at, expires_at`

// PostgresStore persists credentials in provisional_credentials. Partial
// unique indexes on email, chat_id and code enforce one live record per key.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateIfAbsent evicts expired rows holding the same identifier or code and
// inserts c in one transaction.
func (s *PostgresStore) CreateIfAbsent(ctx context.Context, c *models.Credential, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin credential tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	email, chatID := identifierColumns(c.Identifier)
	_, err = tx.ExecContext(ctx, `
		DELETE FROM provisional_credentials
		WHERE expires_at <= $1 AND (email = $2 OR chat_id = $3 OR code = $4)`,
		now, email, chatID, c.Code,
	)
	if err != nil {
		return fmt.Errorf("evict expired credentials: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO provisional_credentials (`+credentialColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(c.ID), email, chatID, uuid.UUID(c.BUID), c.Token, c.Code, c.CreatedAt, c.ExpiresAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			switch pqErr.Constraint {
			case emailConstraint, chatIDConstraint:
				return ErrIdentifierTaken
			case codeConstraint:
				return ErrCodeTaken
			}
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit credential tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string, now time.Time) (*models.Credential, error) {
	return s.findOne(ctx, `WHERE code = $1 AND expires_at > $2`, code, now)
}

func (s *PostgresStore) FindByIdentifier(ctx context.Context, identifier models.Identifier, now time.Time) (*models.Credential, error) {
	switch identifier.Channel {
	case models.ChannelEmail:
		return s.findOne(ctx, `WHERE email = $1 AND expires_at > $2`, identifier.Value, now)
	case models.ChannelChat:
		return s.findOne(ctx, `WHERE chat_id = $1 AND expires_at > $2`, identifier.Value, now)
	}
	return nil, sentinel.ErrNotFound
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM provisional_credentials WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired credentials: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) findOne(ctx context.Context, where string, args ...any) (*models.Credential, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+credentialColumns+` FROM provisional_credentials `+where, args...)
	var (
		c            models.Credential
		credentialID uuid.UUID
		buid         uuid.UUID
		email        sql.NullString
		chatID       sql.NullString
	)
	err := row.Scan(&credentialID, &email, &chatID, &buid, &c.Token, &c.Code, &c.CreatedAt, &c.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	c.ID = id.CredentialID(credentialID)
	c.BUID = id.BUID(buid)
	if chatID.Valid {
		c.Identifier = models.ChatIdentifier(chatID.String)
	} else {
		c.Identifier = models.EmailIdentifier(email.String)
	}
	return &c, nil
}

func identifierColumns(identifier models.Identifier) (email, chatID sql.NullString) {
	switch identifier.Channel {
	case models.ChannelEmail:
		email = sql.NullString{String: identifier.Value, Valid: true}
	case models.ChannelChat:
		chatID = sql.NullString{String: identifier.Value, Valid: true}
	}
	return email, chatID
}
