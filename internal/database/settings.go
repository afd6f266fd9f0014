package database

import (
	"context"
	"fmt"

	"vidoptimize/internal/models"

	"github.com/jackc/pgx/v5"
)

const settingsColumns = `
	email_notifications, push_notifications, sms_notifications, show_profile, show_activity
`

func scanSettings(row pgx.Row) (*models.Settings, error) {
	var s models.Settings
	err := row.Scan(
		&s.Notifications.Email,
		&s.Notifications.Push,
		&s.Notifications.SMS,
		&s.Privacy.ShowProfile,
		&s.Privacy.ShowActivity,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetOrCreateSettings returns the user's settings, inserting the defaults on
// first access.
func (q *Queries) GetOrCreateSettings(ctx context.Context, userID string) (*models.Settings, error) {
	query := `
		INSERT INTO user_settings (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING ` + settingsColumns

	s, err := scanSettings(q.db.QueryRow(ctx, query, userID))
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

type UpdateSettingsParams struct {
	EmailNotifications *bool
	PushNotifications  *bool
	SMSNotifications   *bool
	ShowProfile        *bool
	ShowActivity       *bool
}

// UpdateSettings applies the non-nil fields on top of the stored (or default)
// settings.
func (q *Queries) UpdateSettings(ctx context.Context, userID string, arg UpdateSettingsParams) (*models.Settings, error) {
	query := `
		INSERT INTO user_settings (
			user_id, email_notifications, push_notifications, sms_notifications,
			show_profile, show_activity
		)
		VALUES (
			$1,
			COALESCE($2::boolean, TRUE),
			COALESCE($3::boolean, FALSE),
			COALESCE($4::boolean, FALSE),
			COALESCE($5::boolean, TRUE),
			COALESCE($6::boolean, FALSE)
		)
		ON CONFLICT (user_id) DO UPDATE SET
			email_notifications = COALESCE($2::boolean, user_settings.email_notifications),
			push_notifications = COALESCE($3::boolean, user_settings.push_notifications),
			sms_notifications = COALESCE($4::boolean, user_settings.sms_notifications),
			show_profile = COALESCE($5::boolean, user_settings.show_profile),
			show_activity = COALESCE($6::boolean, user_settings.show_activity),
			updated_at = NOW()
		RETURNING ` + settingsColumns

	s, err := scanSettings(q.db.QueryRow(ctx, query,
		userID,
		arg.EmailNotifications,
		arg.PushNotifications,
		arg.SMSNotifications,
		arg.ShowProfile,
		arg.ShowActivity,
	))
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return s, nil
}
