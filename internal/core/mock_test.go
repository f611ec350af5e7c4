package core

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/zenbox/zenbox/internal/payment"
	"github.com/zenbox/zenbox/internal/relay"
)

// ---------- Mock DB ----------

// mockDB implements the DB interface for testing.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// ---------- Mock Row ----------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

// errRow returns the given error from Scan.
func errRow(err error) *mockRow {
	return &mockRow{scanFunc: func(...any) error { return err }}
}

// idRow scans a single string id.
func idRow(id string) *mockRow {
	return &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = id
		return nil
	}}
}

// ---------- Mock collaborators ----------

type mockPayments struct {
	mock.Mock
}

func (m *mockPayments) Enabled() bool { return true }

func (m *mockPayments) CreateLink(ctx context.Context, params payment.CreateLinkParams) (string, error) {
	args := m.Called(ctx, params)
	return args.String(0), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Enabled() bool { return true }

func (m *mockNotifier) SendPaymentRequest(ctx context.Context, senderAddress, recipientEmail, paymentURL string) error {
	args := m.Called(ctx, senderAddress, recipientEmail, paymentURL)
	return args.Error(0)
}

type mockClassifier struct {
	category string
	err      error
	called   bool
}

func (m *mockClassifier) Enabled() bool { return true }

func (m *mockClassifier) Classify(ctx context.Context, subject, bodyExcerpt string) (string, error) {
	m.called = true
	return m.category, m.err
}

type mockAvatars struct {
	mu     sync.Mutex
	warmed []string
}

func (m *mockAvatars) Enabled() bool { return true }

func (m *mockAvatars) Warm(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warmed = append(m.warmed, email)
	return nil
}

type mockFetcher struct {
	content *relay.EmailContent
	err     error
}

func (m *mockFetcher) Enabled() bool { return true }

func (m *mockFetcher) FetchEmail(ctx context.Context, providerMessageID string) (*relay.EmailContent, error) {
	return m.content, m.err
}
