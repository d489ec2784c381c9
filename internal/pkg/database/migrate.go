package database

import (
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Migrate creates the schema if it does not exist yet.
// Statements are idempotent so the runner is safe to call on every startup.
func Migrate(db *sqlx.DB) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'member',
			creator_level INT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS user_accounts (
			user_id UUID PRIMARY KEY REFERENCES users(id),
			current_balance BIGINT NOT NULL DEFAULT 0,
			total_earned BIGINT NOT NULL DEFAULT 0,
			total_spent BIGINT NOT NULL DEFAULT 0,
			lifetime_earnings BIGINT NOT NULL DEFAULT 0,
			last_activity TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS luminaria_transactions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id),
			type TEXT NOT NULL,
			amount BIGINT NOT NULL,
			user_role TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL,
			subcategory TEXT NOT NULL DEFAULT '',
			action_type TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			reference_id TEXT,
			reference_type TEXT,
			from_user_id UUID,
			to_user_id UUID,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_luminaria_tx_user_created
			ON luminaria_transactions (user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_luminaria_tx_category
			ON luminaria_transactions (category)`,

		`CREATE TABLE IF NOT EXISTS marketplace_services (
			id UUID PRIMARY KEY,
			provider_id UUID NOT NULL REFERENCES users(id),
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price BIGINT NOT NULL,
			max_clients INT NOT NULL DEFAULT 0,
			current_clients INT NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS marketplace_bookings (
			id UUID PRIMARY KEY,
			service_id UUID NOT NULL REFERENCES marketplace_services(id),
			client_id UUID NOT NULL REFERENCES users(id),
			provider_id UUID NOT NULL REFERENCES users(id),
			transaction_id UUID,
			total_price BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'confirmed',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			completed_at TIMESTAMPTZ,
			cancelled_at TIMESTAMPTZ
		)`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_client ON marketplace_bookings (client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_provider ON marketplace_bookings (provider_id)`,

		`CREATE TABLE IF NOT EXISTS conversion_requests (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			luminarias_amount BIGINT NOT NULL,
			gross_amount BIGINT NOT NULL,
			commission_amount BIGINT NOT NULL,
			net_amount BIGINT NOT NULL,
			payment_method TEXT NOT NULL,
			payment_details TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			reviewed_by UUID,
			review_notes TEXT,
			transaction_id UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			processed_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS withdrawal_requests (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			original_amount BIGINT NOT NULL,
			processing_fee BIGINT NOT NULL,
			final_amount BIGINT NOT NULL,
			payment_method TEXT NOT NULL,
			payment_details TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			reviewed_by UUID,
			review_notes TEXT,
			transaction_id UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			processed_at TIMESTAMPTZ
		)`,

		`CREATE INDEX IF NOT EXISTS idx_conversion_requests_status ON conversion_requests (status)`,
		`CREATE INDEX IF NOT EXISTS idx_withdrawal_requests_status ON withdrawal_requests (status)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	log.Info().Msg("Database schema up to date")
	return nil
}
