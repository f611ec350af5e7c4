package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	devOperatorAccountID = "acct_operator_dev_0000000001"
	devEssentialID       = "acct_mara_dev_00000000000001"
	devProID             = "acct_finn_dev_00000000000001"
	devIdentityID        = "idnt_orphan_dev_000000000001"
	devContactID         = "cont_trusted_dev_00000000001"
)

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	domain := os.Getenv("PLATFORM_DOMAIN")
	if domain == "" {
		domain = "zenbox.email"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	fmt.Println("Seeding mailbox database...")

	fmt.Println("  Inserting operator account (system-alias target)...")
	_, err = pool.Exec(ctx,
		`INSERT INTO accounts (id, email, plan_tier) VALUES ($1, $2, 'pro')
		 ON CONFLICT (email) DO NOTHING`,
		devOperatorAccountID, "concierge@"+domain)
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert operator account: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("  Inserting essential-tier account with paywall...")
	_, err = pool.Exec(ctx,
		`INSERT INTO accounts (id, email, plan_tier, paywall_enabled, paywall_price_minor_units,
			blocked_domains)
		 VALUES ($1, $2, 'essential', true, 25, $3)
		 ON CONFLICT (email) DO NOTHING`,
		devEssentialID, "mara@"+domain, []string{"spam.test"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert essential account: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("  Inserting pro-tier account with batched delivery...")
	_, err = pool.Exec(ctx,
		`INSERT INTO accounts (id, email, plan_tier, batched_delivery_enabled, delivery_windows,
			timezone, whitelisted_senders)
		 VALUES ($1, $2, 'pro', true, $3, 'Europe/Stockholm', $4)
		 ON CONFLICT (email) DO NOTHING`,
		devProID, "finn@"+domain, []string{"09:00", "13:00", "17:00"}, []string{"boss@work.test"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert pro account: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("  Inserting orphaned identity (exercises account self-heal)...")
	_, err = pool.Exec(ctx,
		`INSERT INTO identities (id, email) VALUES ($1, $2) ON CONFLICT (email) DO NOTHING`,
		devIdentityID, "orphan@"+domain)
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert identity: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("  Inserting trusted contact...")
	_, err = pool.Exec(ctx,
		`INSERT INTO contacts (id, account_id, sender_address, is_trusted) VALUES ($1, $2, $3, true)
		 ON CONFLICT (account_id, sender_address) DO NOTHING`,
		devContactID, devEssentialID, "friend@example.test")
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert contact: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
