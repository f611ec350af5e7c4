package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/zenbox/zenbox/internal/platform"
)

type ContactService struct {
	db DB
}

func NewContactService(db DB) *ContactService {
	return &ContactService{db: db}
}

// IsTrusted reports whether the sender is a known contact marked trusted.
// An unknown sender is simply not trusted, never an error.
func (s *ContactService) IsTrusted(ctx context.Context, accountID, senderAddress string) (bool, error) {
	var trusted bool
	err := s.db.QueryRow(ctx,
		`SELECT is_trusted FROM contacts WHERE account_id = $1 AND sender_address = $2`,
		accountID, strings.ToLower(senderAddress),
	).Scan(&trusted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("look up contact %s: %w", senderAddress, err)
	}
	return trusted, nil
}

// Ensure records the sender as a known (untrusted) contact if absent, so
// later trust decisions have a ledger to work from.
func (s *ContactService) Ensure(ctx context.Context, accountID, senderAddress string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO contacts (id, account_id, sender_address, is_trusted, created_at)
		 VALUES ($1, $2, $3, false, $4)
		 ON CONFLICT (account_id, sender_address) DO NOTHING`,
		platform.NewID(), accountID, strings.ToLower(senderAddress), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("ensure contact %s: %w", senderAddress, err)
	}
	return nil
}
