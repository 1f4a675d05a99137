package postgres

import (
	"context"
	"fmt"

	"seocoach-backend/internal/models"
	"seocoach-backend/internal/store"
)

// --- Chat History Methods ---

const appendMessage = `-- name: AppendMessage :exec
INSERT INTO chat_messages (id, session_id, identity, ts, role, content)
VALUES ($1, $2, $3, $4, $5, $6);
`

func (s *PostgresStore) AppendMessage(ctx context.Context, msg models.Message) error {
	_, err := s.db.Exec(ctx, appendMessage,
		msg.ID,
		msg.SessionID,
		msg.Identity,
		msg.Timestamp,
		string(msg.Role),
		msg.Content,
	)
	if err != nil {
		return fmt.Errorf("error inserting chat message: %w", err)
	}
	return nil
}

// The inner query picks the newest rows; the outer one restores ascending order.
const listMessages = `-- name: ListMessages :many
SELECT id, session_id, identity, ts, role, content FROM (
    SELECT id, session_id, identity, ts, role, content
    FROM chat_messages
    WHERE session_id = $1 AND identity = $2
    ORDER BY ts DESC, id DESC
    LIMIT $3
) recent
ORDER BY ts ASC, id ASC;
`

func (s *PostgresStore) ListMessages(ctx context.Context, arg store.ListMessagesParams) ([]models.Message, error) {
	rows, err := s.db.Query(ctx, listMessages, arg.SessionID, arg.Identity, arg.Limit)
	if err != nil {
		return nil, fmt.Errorf("error querying chat messages: %w", err)
	}
	defer rows.Close()

	items := []models.Message{}
	for rows.Next() {
		var m models.Message
		var role string
		if err := rows.Scan(
			&m.ID,
			&m.SessionID,
			&m.Identity,
			&m.Timestamp,
			&role,
			&m.Content,
		); err != nil {
			return nil, fmt.Errorf("error scanning chat message row: %w", err)
		}
		m.Role = models.Role(role)
		items = append(items, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat message rows: %w", err)
	}

	return items, nil
}
