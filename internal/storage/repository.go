package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"freedom/internal/core"
	"freedom/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores users, their sessions, accounts and funds.
type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
	}
	repo.logger.Info("SQLite repository ready", "db_path", dbPath, "schema_version", version)
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// UpsertUser returns the user with username, creating it if needed.
func (r *SQLiteRepository) UpsertUser(ctx context.Context, username string) (core.User, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username) VALUES (?, ?) ON CONFLICT(username) DO NOTHING`,
		uuid.NewString(), username)
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}

	var u core.User
	err = r.db.QueryRowContext(ctx,
		`SELECT id, username FROM users WHERE username = ?`, username).Scan(&u.ID, &u.Username)
	if err != nil {
		return core.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, token, userID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO sessions (token, user_id) VALUES (?, ?)`, token, userID)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// SessionUser resolves a session token. It returns core.ErrNotFound for
// unknown tokens.
func (r *SQLiteRepository) SessionUser(ctx context.Context, token string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.username
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ?`, token).Scan(&u.ID, &u.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("select session: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// EnsureAccount creates the user's account from defaults unless one exists.
func (r *SQLiteRepository) EnsureAccount(ctx context.Context, userID string, defaults core.AccountInput) (core.Account, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, name, deposits_per_year) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING`,
		uuid.NewString(), userID, defaults.Name, defaults.DepositsPerYear)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return r.AccountByUser(ctx, userID)
}

// AccountByUser loads the user's account with its funds in creation order.
func (r *SQLiteRepository) AccountByUser(ctx context.Context, userID string) (core.Account, error) {
	var a core.Account
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, deposits_per_year FROM accounts WHERE user_id = ?`, userID).
		Scan(&a.ID, &a.Name, &a.DepositsPerYear)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("select account: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, icon, name FROM funds WHERE account_id = ? ORDER BY seq`, a.ID)
	if err != nil {
		return core.Account{}, fmt.Errorf("select funds: %w", err)
	}
	defer rows.Close()

	a.Funds = []core.Fund{}
	for rows.Next() {
		var f core.Fund
		if err := rows.Scan(&f.ID, &f.Icon, &f.Name); err != nil {
			return core.Account{}, fmt.Errorf("scan fund: %w", err)
		}
		a.Funds = append(a.Funds, f)
	}
	if err := rows.Err(); err != nil {
		return core.Account{}, fmt.Errorf("iterate funds: %w", err)
	}
	return a, nil
}

// UpdateAccount changes the settings of an account owned by userID.
func (r *SQLiteRepository) UpdateAccount(ctx context.Context, userID string, in core.AccountInput) (core.Account, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET name = ?, deposits_per_year = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`,
		in.Name, in.DepositsPerYear, in.ID, userID)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	} else if n == 0 {
		return core.Account{}, core.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Account saved to SQLite", log.FieldAccountID, in.ID)
	return r.AccountByUser(ctx, userID)
}

// CreateFund adds a fund to an account owned by userID.
func (r *SQLiteRepository) CreateFund(ctx context.Context, userID, accountID string, in core.FundInput) (core.Fund, error) {
	var owner string
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM accounts WHERE id = ?`, accountID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != userID) {
		return core.Fund{}, core.ErrNotFound
	}
	if err != nil {
		return core.Fund{}, fmt.Errorf("select account: %w", err)
	}

	f := core.Fund{ID: uuid.NewString(), Icon: in.Icon, Name: in.Name}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO funds (id, account_id, icon, name) VALUES (?, ?, ?, ?)`,
		f.ID, accountID, f.Icon, f.Name)
	if err != nil {
		return core.Fund{}, fmt.Errorf("insert fund: %w", err)
	}

	r.logger.InfoContext(ctx, "Fund saved to SQLite",
		log.FieldAccountID, accountID,
		log.FieldFundID, f.ID,
		log.FieldFundName, f.Name)
	return f, nil
}
