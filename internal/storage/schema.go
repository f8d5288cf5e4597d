package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// SchemaVersion is written to PRAGMA user_version once every table and index
// is in place.
const SchemaVersion = 1

type TableSpec struct {
	Name string
	DDL  string
}

type IndexSpec struct {
	Name  string
	Table string
	DDL   string
}

// tableSpecs is ordered so that every table is created after the tables its
// foreign keys reference.
var tableSpecs = []TableSpec{
	{Name: "users", DDL: `CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		phone TEXT,
		date_of_birth TEXT,
		address TEXT,
		city TEXT,
		state TEXT,
		zip TEXT,
		country TEXT DEFAULT 'USA',
		profile_pic TEXT,
		security_score INTEGER DEFAULT 0,
		two_factor_enabled INTEGER DEFAULT 0,
		biometric_enabled INTEGER DEFAULT 0,
		is_verified INTEGER DEFAULT 0,
		is_active INTEGER DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`},
	{Name: "accounts", DDL: `CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		account_type TEXT NOT NULL,
		account_number TEXT UNIQUE NOT NULL,
		routing_number TEXT DEFAULT '121000248',
		balance REAL DEFAULT 0.00,
		available_balance REAL DEFAULT 0.00,
		currency TEXT DEFAULT 'USD',
		status TEXT DEFAULT 'active',
		account_name TEXT,
		is_primary INTEGER DEFAULT 0,
		color TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`},
	{Name: "transactions", DDL: `CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		transaction_type TEXT NOT NULL,
		amount REAL NOT NULL,
		description TEXT,
		category TEXT,
		merchant_name TEXT,
		reference_number TEXT UNIQUE,
		status TEXT DEFAULT 'completed',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
	)`},
	{Name: "transfers", DDL: `CREATE TABLE IF NOT EXISTS transfers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		from_account_id INTEGER NOT NULL,
		to_account_id INTEGER,
		to_account_number TEXT,
		to_routing_number TEXT,
		amount REAL NOT NULL,
		description TEXT,
		status TEXT DEFAULT 'pending',
		scheduled_for TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		completed_at TIMESTAMP,
		FOREIGN KEY (from_account_id) REFERENCES accounts(id) ON DELETE CASCADE
	)`},
	{Name: "cards", DDL: `CREATE TABLE IF NOT EXISTS cards (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		card_number_encrypted TEXT NOT NULL,
		card_type TEXT DEFAULT 'Debit',
		card_brand TEXT,
		expiry_date TEXT NOT NULL,
		cardholder_name TEXT NOT NULL,
		cvv TEXT,
		status TEXT DEFAULT 'active',
		is_frozen INTEGER DEFAULT 0,
		daily_limit REAL DEFAULT 500.00,
		online_enabled INTEGER DEFAULT 1,
		international_enabled INTEGER DEFAULT 0,
		atm_enabled INTEGER DEFAULT 1,
		virtual_card_available INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
	)`},
	{Name: "investments", DDL: `CREATE TABLE IF NOT EXISTS investments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		investment_type TEXT NOT NULL,
		symbol TEXT,
		name TEXT NOT NULL,
		quantity REAL NOT NULL,
		average_cost REAL NOT NULL,
		current_price REAL NOT NULL,
		current_value REAL NOT NULL,
		change_percent REAL DEFAULT 0,
		change_value REAL DEFAULT 0,
		is_esg INTEGER DEFAULT 0,
		sector TEXT,
		asset_class TEXT,
		risk_level TEXT DEFAULT 'moderate',
		purchased_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`},
	{Name: "savings_goals", DDL: `CREATE TABLE IF NOT EXISTS savings_goals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		goal_name TEXT NOT NULL,
		target_amount REAL NOT NULL,
		current_amount REAL DEFAULT 0,
		target_date TEXT,
		status TEXT DEFAULT 'active',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`},
	{Name: "notifications", DDL: `CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		is_read INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`},
	{Name: "security_events", DDL: `CREATE TABLE IF NOT EXISTS security_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		description TEXT,
		severity TEXT DEFAULT 'low',
		ip_address TEXT,
		user_agent TEXT,
		resolved INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`},
	{Name: "login_history", DDL: `CREATE TABLE IF NOT EXISTS login_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER,
		ip_address TEXT,
		user_agent TEXT,
		location TEXT,
		login_method TEXT,
		success INTEGER,
		failure_reason TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE SET NULL
	)`},
	{Name: "statements", DDL: `CREATE TABLE IF NOT EXISTS statements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		statement_type TEXT DEFAULT 'monthly',
		statement_period_start TEXT NOT NULL,
		statement_period_end TEXT NOT NULL,
		total_credits REAL DEFAULT 0,
		total_debits REAL DEFAULT 0,
		starting_balance REAL DEFAULT 0,
		ending_balance REAL DEFAULT 0,
		file_path TEXT,
		status TEXT DEFAULT 'generated',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
	)`},
}

var indexSpecs = []IndexSpec{
	{Name: "idx_users_email", Table: "users", DDL: `CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`},
	{Name: "idx_accounts_user_id", Table: "accounts", DDL: `CREATE INDEX IF NOT EXISTS idx_accounts_user_id ON accounts(user_id)`},
	{Name: "idx_transactions_account_id", Table: "transactions", DDL: `CREATE INDEX IF NOT EXISTS idx_transactions_account_id ON transactions(account_id)`},
	{Name: "idx_transfers_from_account_id", Table: "transfers", DDL: `CREATE INDEX IF NOT EXISTS idx_transfers_from_account_id ON transfers(from_account_id)`},
	{Name: "idx_cards_account_id", Table: "cards", DDL: `CREATE INDEX IF NOT EXISTS idx_cards_account_id ON cards(account_id)`},
	{Name: "idx_investments_user_id", Table: "investments", DDL: `CREATE INDEX IF NOT EXISTS idx_investments_user_id ON investments(user_id)`},
	{Name: "idx_savings_goals_user_id", Table: "savings_goals", DDL: `CREATE INDEX IF NOT EXISTS idx_savings_goals_user_id ON savings_goals(user_id)`},
	{Name: "idx_notifications_user_id", Table: "notifications", DDL: `CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id)`},
	{Name: "idx_security_events_user_id", Table: "security_events", DDL: `CREATE INDEX IF NOT EXISTS idx_security_events_user_id ON security_events(user_id)`},
	{Name: "idx_login_history_user_id", Table: "login_history", DDL: `CREATE INDEX IF NOT EXISTS idx_login_history_user_id ON login_history(user_id)`},
	{Name: "idx_statements_account_id", Table: "statements", DDL: `CREATE INDEX IF NOT EXISTS idx_statements_account_id ON statements(account_id)`},
}

func Tables() []TableSpec {
	out := make([]TableSpec, len(tableSpecs))
	copy(out, tableSpecs)
	return out
}

func Indexes() []IndexSpec {
	out := make([]IndexSpec, len(indexSpecs))
	copy(out, indexSpecs)
	return out
}

type SchemaOptions struct {
	// Strict stops at the first failed step instead of logging it and moving
	// on to the next table.
	Strict bool
	Logger *slog.Logger
}

type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("ensure %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// SchemaReport lists what EnsureSchema created or confirmed. Failed is only
// populated in tolerant mode.
type SchemaReport struct {
	Tables  []string
	Indexes []string
	Failed  []*StepError
}

func (r SchemaReport) Complete() bool {
	return len(r.Failed) == 0
}

// EnsureTable creates the named table if it does not exist.
func EnsureTable(ctx context.Context, q Querier, name string) error {
	for _, spec := range tableSpecs {
		if spec.Name != name {
			continue
		}
		if _, err := q.ExecContext(ctx, spec.DDL); err != nil {
			return &StepError{Step: "table " + name, Err: err}
		}
		return nil
	}
	return fmt.Errorf("ensure table %q: %w", name, ErrNotFound)
}

// EnsureIndexes creates every lookup index that does not exist yet. It tries
// all of them and returns the joined failures.
func EnsureIndexes(ctx context.Context, q Querier) ([]string, error) {
	created := make([]string, 0, len(indexSpecs))
	var errs []error
	for _, spec := range indexSpecs {
		if _, err := q.ExecContext(ctx, spec.DDL); err != nil {
			errs = append(errs, &StepError{Step: "index " + spec.Name, Err: err})
			continue
		}
		created = append(created, spec.Name)
	}
	return created, errors.Join(errs...)
}

// EnsureSchema provisions every table in dependency order and then the
// indexes. It never alters or drops existing structure, so running it against
// a provisioned store changes nothing.
func EnsureSchema(ctx context.Context, q Querier, opts SchemaOptions) (SchemaReport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	report := SchemaReport{}

	version, err := readUserVersion(ctx, q)
	if err != nil {
		return report, err
	}
	if version > SchemaVersion {
		return report, fmt.Errorf("%w: db=%d code=%d", ErrSchemaTooNew, version, SchemaVersion)
	}

	for _, spec := range tableSpecs {
		if err := EnsureTable(ctx, q, spec.Name); err != nil {
			var stepErr *StepError
			if !errors.As(err, &stepErr) {
				return report, err
			}
			if opts.Strict {
				return report, stepErr
			}
			logger.Error("schema step failed", "step", stepErr.Step, "error", stepErr.Err)
			report.Failed = append(report.Failed, stepErr)
			continue
		}
		report.Tables = append(report.Tables, spec.Name)
		logger.Debug("table ensured", "table", spec.Name)
	}

	created, err := EnsureIndexes(ctx, q)
	report.Indexes = created
	if err != nil {
		if opts.Strict {
			return report, err
		}
		for _, failure := range unwrapStepErrors(err) {
			logger.Error("schema step failed", "step", failure.Step, "error", failure.Err)
			report.Failed = append(report.Failed, failure)
		}
	}

	if report.Complete() && version < SchemaVersion {
		if _, err := q.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, SchemaVersion)); err != nil {
			return report, fmt.Errorf("record schema version: %w", err)
		}
	}
	return report, nil
}

func readUserVersion(ctx context.Context, q Querier) (int, error) {
	version := 0
	err := queryOne(ctx, q, func(rows *sql.Rows) error {
		return rows.Scan(&version)
	}, `PRAGMA user_version`)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func unwrapStepErrors(err error) []*StepError {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		var single *StepError
		if errors.As(err, &single) {
			return []*StepError{single}
		}
		return nil
	}
	out := []*StepError{}
	for _, inner := range joined.Unwrap() {
		var stepErr *StepError
		if errors.As(inner, &stepErr) {
			out = append(out, stepErr)
		}
	}
	return out
}
