package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	EventUserRegistered    = "user_registered"
	EventUserLoggedIn      = "user_logged_in"
	EventTokenRefreshed    = "token_refreshed"
	EventRefreshTokenReuse = "refresh_token_reuse"
	EventUserLoggedOut     = "user_logged_out"
	EventProfileUpdated    = "profile_updated"
	EventSettingsUpdated   = "settings_updated"
	EventOptimizationSaved = "optimization_saved"
)

const maxEventsPerPage = 100

func (q *Queries) LogEvent(ctx context.Context, userID string, eventType string, payload interface{}) error {
	var payloadBytes []byte
	if payload != nil {
		var err error
		payloadBytes, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal event payload: %w", err)
		}
	}

	query := `INSERT INTO event_journal (user_id, event_type, payload) VALUES ($1, $2, $3)`
	_, err := q.db.Exec(ctx, query, userID, eventType, payloadBytes)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return ErrUserNotFound
		}
		return err
	}

	return nil
}

type Event struct {
	ID        int64           `json:"id"`
	EventType string          `json:"event_type"`
	EventTime time.Time       `json:"event_time"`
	Payload   json.RawMessage `json:"payload"`
}

func (q *Queries) GetEventsSince(ctx context.Context, userID string, sinceID int64) ([]Event, error) {
	query := `
		SELECT id, event_type, event_time, COALESCE(payload, 'null'::jsonb)
		FROM event_journal
		WHERE user_id = $1 AND id > $2
		ORDER BY id ASC
		LIMIT $3
	`
	rows, err := q.db.Query(ctx, query, userID, sinceID, maxEventsPerPage)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		err := rows.Scan(
			&event.ID,
			&event.EventType,
			&event.EventTime,
			&event.Payload,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if events == nil {
		return []Event{}, nil
	}

	return events, nil
}
