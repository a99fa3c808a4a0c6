// Package store implements the data-access ports on SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/happyhours/orderhub/internal/domain"
	"github.com/happyhours/orderhub/internal/domain/ports"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	role          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS establishments (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	owner_id         TEXT NOT NULL REFERENCES users(id),
	happyhours_start INTEGER NOT NULL,
	happyhours_end   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS beverages (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	establishment_id TEXT NOT NULL REFERENCES establishments(id),
	price            REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS orders (
	id               TEXT PRIMARY KEY,
	client_id        TEXT NOT NULL REFERENCES users(id),
	establishment_id TEXT NOT NULL REFERENCES establishments(id),
	beverage_id      TEXT NOT NULL REFERENCES beverages(id),
	order_date       INTEGER NOT NULL,
	status           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_client_date ON orders(client_id, order_date);
CREATE INDEX IF NOT EXISTS idx_orders_establishment ON orders(establishment_id);

CREATE TABLE IF NOT EXISTS subscriptions (
	id        TEXT PRIMARY KEY,
	user_id   TEXT NOT NULL REFERENCES users(id),
	is_active INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
);
`

// SQLiteStore implements ports.OrderStore, ports.EstablishmentStore and
// ports.UserStore on a single SQLite database.
type SQLiteStore struct {
	db *sql.DB

	stmtInsertOrder  *sql.Stmt
	stmtUpdateStatus *sql.Stmt
	stmtGetOrder     *sql.Stmt
}

// Open opens (and if needed initializes) the database at path. Use ":memory:"
// for an ephemeral store.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure SQLite for concurrent readers and one writer
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			log.Warn().Err(err).Str("pragma", pragma).Msg("failed to set pragma")
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := ensureSchemaVersion(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.prepare(); err != nil {
		db.Close()
		return nil, err
	}

	log.Debug().Str("path", path).Msg("sqlite store opened")
	return s, nil
}

func ensureSchemaVersion(db *sql.DB) error {
	var version int
	err := db.QueryRow(`SELECT version FROM schema_meta LIMIT 1`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = db.Exec(`INSERT INTO schema_meta (version) VALUES (?)`, schemaVersion)
		return err
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case version != schemaVersion:
		return fmt.Errorf("unsupported schema version %d (want %d)", version, schemaVersion)
	}
	return nil
}

func (s *SQLiteStore) prepare() error {
	var err error
	if s.stmtInsertOrder, err = s.db.Prepare(
		`INSERT INTO orders (id, client_id, establishment_id, beverage_id, order_date, status)
		 VALUES (?, ?, ?, ?, ?, ?)`); err != nil {
		return fmt.Errorf("prepare insert order: %w", err)
	}
	if s.stmtUpdateStatus, err = s.db.Prepare(
		`UPDATE orders SET status = ? WHERE id = ?`); err != nil {
		return fmt.Errorf("prepare update status: %w", err)
	}
	if s.stmtGetOrder, err = s.db.Prepare(
		`SELECT id, client_id, establishment_id, beverage_id, order_date, status
		 FROM orders WHERE id = ?`); err != nil {
		return fmt.Errorf("prepare get order: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	for _, stmt := range []*sql.Stmt{s.stmtInsertOrder, s.stmtUpdateStatus, s.stmtGetOrder} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	return s.db.Close()
}

// FindOrders returns the orders matching the filter, oldest first.
func (s *SQLiteStore) FindOrders(ctx context.Context, filter ports.OrderFilter) ([]domain.Order, error) {
	var (
		clauses []string
		args    []interface{}
	)
	if filter.ClientID != "" {
		clauses = append(clauses, "client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.EstablishmentID != "" {
		clauses = append(clauses, "establishment_id = ?")
		args = append(args, filter.EstablishmentID)
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "order_date >= ?")
		args = append(args, filter.Since.UnixMilli())
	}
	if !filter.Until.IsZero() {
		clauses = append(clauses, "order_date < ?")
		args = append(args, filter.Until.UnixMilli())
	}
	for _, status := range filter.ExcludeStatuses {
		clauses = append(clauses, "status != ?")
		args = append(args, string(status))
	}

	query := `SELECT id, client_id, establishment_id, beverage_id, order_date, status FROM orders`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY order_date ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewStoreError("find orders", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, domain.NewStoreError("scan order", err)
		}
		out = append(out, order)
	}
	return out, rows.Err()
}

// CreateOrder persists a new pending order.
func (s *SQLiteStore) CreateOrder(ctx context.Context, clientID, establishmentID, beverageID string, orderDate time.Time) (domain.Order, error) {
	order := domain.Order{
		ID:              uuid.New().String(),
		ClientID:        clientID,
		EstablishmentID: establishmentID,
		BeverageID:      beverageID,
		OrderDate:       orderDate,
		Status:          domain.StatusPending,
	}

	_, err := s.stmtInsertOrder.ExecContext(ctx,
		order.ID, order.ClientID, order.EstablishmentID, order.BeverageID,
		order.OrderDate.UnixMilli(), string(order.Status))
	if err != nil {
		return domain.Order{}, domain.NewStoreError("create order", err)
	}
	return order, nil
}

// UpdateOrderStatus sets the status of an existing order.
func (s *SQLiteStore) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
	res, err := s.stmtUpdateStatus.ExecContext(ctx, string(status), orderID)
	if err != nil {
		return domain.Order{}, domain.NewStoreError("update order status", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Order{}, domain.NewStoreError("update order status", err)
	}
	if affected == 0 {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return s.GetOrder(ctx, orderID)
}

// GetOrder returns one order by ID.
func (s *SQLiteStore) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	row := s.stmtGetOrder.QueryRowContext(ctx, orderID)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, domain.NewStoreError("get order", err)
	}
	return order, nil
}

// GetEstablishment returns one establishment by ID.
func (s *SQLiteStore) GetEstablishment(ctx context.Context, id string) (domain.Establishment, error) {
	var est domain.Establishment
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, happyhours_start, happyhours_end
		 FROM establishments WHERE id = ?`, id).
		Scan(&est.ID, &est.Name, &est.OwnerID, &est.HappyHoursStart, &est.HappyHoursEnd)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Establishment{}, domain.ErrEstablishmentNotFound
	}
	if err != nil {
		return domain.Establishment{}, domain.NewStoreError("get establishment", err)
	}
	return est, nil
}

// ControlledEstablishments returns the IDs of the establishments owned by
// the given user.
func (s *SQLiteStore) ControlledEstablishments(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM establishments WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, domain.NewStoreError("controlled establishments", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.NewStoreError("controlled establishments", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// OwnsEstablishment reports whether the user owns the establishment.
func (s *SQLiteStore) OwnsEstablishment(ctx context.Context, ownerID, establishmentID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM establishments WHERE id = ? AND owner_id = ?`,
		establishmentID, ownerID).Scan(&n)
	if err != nil {
		return false, domain.NewStoreError("owns establishment", err)
	}
	return n > 0, nil
}

// GetBeverage returns one beverage by ID.
func (s *SQLiteStore) GetBeverage(ctx context.Context, id string) (domain.Beverage, error) {
	var bev domain.Beverage
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, establishment_id, price FROM beverages WHERE id = ?`, id).
		Scan(&bev.ID, &bev.Name, &bev.EstablishmentID, &bev.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Beverage{}, domain.ErrBeverageNotFound
	}
	if err != nil {
		return domain.Beverage{}, domain.NewStoreError("get beverage", err)
	}
	return bev, nil
}

// GetUser returns one user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, role FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, domain.NewStoreError("get user", err)
	}
	return u, nil
}

// GetUserByEmail returns one user by email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, role FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, domain.NewStoreError("get user by email", err)
	}
	return u, nil
}

// HasActiveSubscription reports whether the user holds an active subscription.
func (s *SQLiteStore) HasActiveSubscription(ctx context.Context, userID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM subscriptions WHERE user_id = ? AND is_active = 1`, userID).Scan(&n)
	if err != nil {
		return false, domain.NewStoreError("has active subscription", err)
	}
	return n > 0, nil
}

// UpsertUser inserts or replaces a user record. Used by the seed loader.
func (s *SQLiteStore) UpsertUser(ctx context.Context, u domain.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO users (id, email, name, role) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, string(u.Role))
	if err != nil {
		return domain.NewStoreError("upsert user", err)
	}
	return nil
}

// UpsertEstablishment inserts or replaces an establishment record.
func (s *SQLiteStore) UpsertEstablishment(ctx context.Context, est domain.Establishment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO establishments (id, name, owner_id, happyhours_start, happyhours_end)
		 VALUES (?, ?, ?, ?, ?)`,
		est.ID, est.Name, est.OwnerID, est.HappyHoursStart, est.HappyHoursEnd)
	if err != nil {
		return domain.NewStoreError("upsert establishment", err)
	}
	return nil
}

// UpsertBeverage inserts or replaces a beverage record.
func (s *SQLiteStore) UpsertBeverage(ctx context.Context, bev domain.Beverage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO beverages (id, name, establishment_id, price) VALUES (?, ?, ?, ?)`,
		bev.ID, bev.Name, bev.EstablishmentID, bev.Price)
	if err != nil {
		return domain.NewStoreError("upsert beverage", err)
	}
	return nil
}

// SetSubscription activates or deactivates a user's subscription.
func (s *SQLiteStore) SetSubscription(ctx context.Context, userID string, active bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO subscriptions (id, user_id, is_active) VALUES (?, ?, ?)`,
		"sub-"+userID, userID, boolToInt(active))
	if err != nil {
		return domain.NewStoreError("set subscription", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order  domain.Order
		millis int64
		status string
	)
	if err := row.Scan(&order.ID, &order.ClientID, &order.EstablishmentID,
		&order.BeverageID, &millis, &status); err != nil {
		return domain.Order{}, err
	}
	order.OrderDate = time.UnixMilli(millis)
	order.Status = domain.OrderStatus(status)
	return order, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
