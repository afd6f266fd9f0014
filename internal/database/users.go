package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vidoptimize/internal/models"

	"github.com/jackc/pgx/v5"
)

const userColumns = `
	id, email, name, password_hash, youtube_channel, bio, avatar,
	plan, quota_used, quota_limit, refresh_token, created_at, updated_at
`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.YoutubeChannel,
		&user.Bio,
		&user.Avatar,
		&user.Plan,
		&user.QuotaUsed,
		&user.QuotaLimit,
		&user.RefreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// scanOptionalUser maps pgx.ErrNoRows to (nil, nil).
func scanOptionalUser(row pgx.Row) (*models.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type CreateUserParams struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Plan         models.Plan
	RefreshToken *string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (*models.User, error) {
	plan := arg.Plan
	if plan == "" {
		plan = models.PlanFree
	}

	query := `
		INSERT INTO users (id, email, name, password_hash, plan, quota_limit, refresh_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	row := q.db.QueryRow(ctx, query,
		arg.ID,
		NormalizeEmail(arg.Email),
		arg.Name,
		arg.PasswordHash,
		plan,
		plan.QuotaLimit(),
		arg.RefreshToken,
	)

	user, err := scanUser(row)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanOptionalUser(q.db.QueryRow(ctx, query, NormalizeEmail(email)))
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanOptionalUser(q.db.QueryRow(ctx, query, id))
	if err != nil && pgErrorCode(err) == invalidTextRepresentation {
		// Ids come from token claims; a malformed one cannot match any user.
		return nil, nil
	}
	return user, err
}

func (q *Queries) GetUserByRefreshToken(ctx context.Context, refreshToken string) (*models.User, error) {
	if refreshToken == "" {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE refresh_token = $1`
	return scanOptionalUser(q.db.QueryRow(ctx, query, refreshToken))
}

// SetRefreshToken overwrites the stored refresh token unconditionally.
// A nil token revokes the current one.
func (q *Queries) SetRefreshToken(ctx context.Context, userID string, refreshToken *string) error {
	query := `UPDATE users SET refresh_token = $2, updated_at = NOW() WHERE id = $1`
	res, err := q.db.Exec(ctx, query, userID, refreshToken)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RotateRefreshToken replaces oldToken with newToken only while oldToken is
// still the stored value. Losing a concurrent rotation yields
// ErrRefreshTokenNotRecognized and leaves the row untouched.
func (q *Queries) RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string) error {
	query := `
		UPDATE users
		SET refresh_token = $3, updated_at = NOW()
		WHERE id = $1 AND refresh_token = $2
	`
	res, err := q.db.Exec(ctx, query, userID, oldToken, newToken)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrRefreshTokenNotRecognized
	}
	return nil
}

func (q *Queries) ClearRefreshToken(ctx context.Context, userID string) error {
	return q.SetRefreshToken(ctx, userID, nil)
}

type UpdateProfileParams struct {
	Name           *string
	YoutubeChannel *string
	Bio            *string
	Avatar         *string
}

// UpdateUserProfile applies the non-nil fields of arg.
func (q *Queries) UpdateUserProfile(ctx context.Context, userID string, arg UpdateProfileParams) (*models.User, error) {
	query := `
		UPDATE users
		SET
			name = COALESCE($2, name),
			youtube_channel = COALESCE($3, youtube_channel),
			bio = COALESCE($4, bio),
			avatar = COALESCE($5, avatar),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(q.db.QueryRow(ctx, query, userID, arg.Name, arg.YoutubeChannel, arg.Bio, arg.Avatar))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}
