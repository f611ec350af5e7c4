package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zenbox/zenbox/internal/model"
)

// MessageService writes the final message record. It runs on the service's
// own pool with full table access; the ingestion actor is not the mailbox
// owner, so per-row authorization does not apply here.
type MessageService struct {
	db DB
}

func NewMessageService(db DB) *MessageService {
	return &MessageService{db: db}
}

// Create persists a message exactly once. Re-delivered webhooks for the
// same provider message id return the already-stored id with created=false.
func (s *MessageService) Create(ctx context.Context, m *model.Message) (id string, created bool, err error) {
	if m.ProviderMessageID != nil {
		return s.createIdempotent(ctx, m)
	}

	err = s.db.QueryRow(ctx, insertMessageSQL+` RETURNING id`, insertMessageArgs(m)...).Scan(&id)
	if err != nil {
		return "", false, fmt.Errorf("insert message: %w", err)
	}
	return id, true, nil
}

func (s *MessageService) createIdempotent(ctx context.Context, m *model.Message) (string, bool, error) {
	var id string
	err := s.db.QueryRow(ctx,
		insertMessageSQL+` ON CONFLICT (provider_message_id) WHERE provider_message_id IS NOT NULL DO NOTHING RETURNING id`,
		insertMessageArgs(m)...,
	).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, fmt.Errorf("insert message: %w", err)
	}

	// Conflict: the relay re-delivered a message we already stored.
	err = s.db.QueryRow(ctx,
		`SELECT id FROM messages WHERE provider_message_id = $1`, *m.ProviderMessageID,
	).Scan(&id)
	if err != nil {
		return "", false, fmt.Errorf("find duplicate message %s: %w", *m.ProviderMessageID, err)
	}
	return id, false, nil
}

const insertMessageSQL = `INSERT INTO messages (id, account_id, from_address, from_name, subject,
	body, body_html, preview, provider_message_id, received_at, visible_at, status,
	has_paid_stamp, category, archived, deleted, starred, created_at)
 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, false, false, false, $15)`

func insertMessageArgs(m *model.Message) []any {
	return []any{
		m.ID, m.AccountID, m.FromAddress, m.FromName, m.Subject,
		m.Body, m.BodyHTML, m.Preview, m.ProviderMessageID, m.ReceivedAt,
		m.VisibleAt, m.Status, m.HasPaidStamp, m.Category, m.CreatedAt,
	}
}
