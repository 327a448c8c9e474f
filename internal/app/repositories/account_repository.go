package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/acadtrack/internal/app/models"
	"github.com/yigit/acadtrack/internal/pkg/apperrors"
	"github.com/yigit/acadtrack/internal/pkg/dberrors"
	"github.com/yigit/acadtrack/internal/pkg/logger"
)

var accountColumns = []string{
	"id", "email", "password_hash", "role", "profile_id", "is_active",
	"last_login_at", "created_at", "updated_at",
}

// AccountRepository handles account database operations
type AccountRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Email, &a.Password, &a.Role, &a.ProfileID, &a.IsActive,
		&a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts an account and returns its id. Emails are stored lowercased.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) (int64, error) {
	sql, args, err := r.sb.Insert("accounts").
		Columns("email", "password_hash", "role", "profile_id", "is_active").
		Values(strings.ToLower(account.Email), account.Password, account.Role, account.ProfileID, account.IsActive).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create account SQL")
		return 0, fmt.Errorf("failed to build create account query: %w", err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "accounts_email_key") {
			return 0, apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("email", account.Email).Msg("Error executing create account query")
		return 0, fmt.Errorf("error creating account: %w", err)
	}

	return id, nil
}

// GetByID retrieves an account by id
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	sql, args, err := r.sb.Select(accountColumns...).
		From("accounts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get account query: %w", err)
	}

	account, err := scanAccount(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAccountNotFound
		}
		logger.Error().Err(err).Int64("accountID", id).Msg("Error scanning account row")
		return nil, fmt.Errorf("error retrieving account: %w", err)
	}
	return account, nil
}

// GetByEmail retrieves an account by email, case-insensitively
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	sql, args, err := r.sb.Select(accountColumns...).
		From("accounts").
		Where("LOWER(email) = LOWER(?)", email).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get account by email query: %w", err)
	}

	account, err := scanAccount(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAccountNotFound
		}
		logger.Error().Err(err).Str("email", email).Msg("Error scanning account row")
		return nil, fmt.Errorf("error retrieving account: %w", err)
	}
	return account, nil
}

// LinkProfile sets profile_id when it is still null. An already linked account
// is left untouched.
func (r *AccountRepository) LinkProfile(ctx context.Context, accountID, profileID int64) error {
	sql, args, err := r.sb.Update("accounts").
		Set("profile_id", profileID).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": accountID, "profile_id": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build link profile query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("accountID", accountID).Int64("profileID", profileID).Msg("Error linking profile")
		return fmt.Errorf("error linking profile: %w", err)
	}
	if cmdTag.RowsAffected() > 0 {
		logger.Info().Int64("accountID", accountID).Int64("profileID", profileID).Msg("Linked account to profile")
	}
	return nil
}

// UpdateLastLogin stamps the last successful login
func (r *AccountRepository) UpdateLastLogin(ctx context.Context, accountID int64, at time.Time) error {
	sql, args, err := r.sb.Update("accounts").
		Set("last_login_at", at).
		Where(squirrel.Eq{"id": accountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update last login query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error updating last login: %w", err)
	}
	return nil
}
