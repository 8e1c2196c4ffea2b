// Package sqlite is the durable store adapter, backed by modernc.org/sqlite
// with embedded golang-migrate migrations.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fleetledger/internal/core"
	"fleetledger/internal/store"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

var _ store.Store = (*Repository)(nil)

func New(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func newID() string {
	b := make([]byte, 10)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// --- users ---

func (r *Repository) CreateUser(ctx context.Context, u store.User) (string, error) {
	id := newID()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin create user: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, name) VALUES (?, ?, ?, ?)`,
		id, u.Email, u.PasswordHash, u.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return "", store.ErrEmailTaken
		}
		return "", fmt.Errorf("insert user: %w", err)
	}
	// The profile shares the account ID and is created with the account.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (id, name, email) VALUES (?, ?, ?)`,
		id, u.Name, u.Email)
	if err != nil {
		return "", fmt.Errorf("insert profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit create user: %w", err)
	}
	return id, nil
}

func (r *Repository) UserByEmail(ctx context.Context, email string) (store.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, name, disabled FROM users WHERE email = ?`, email))
}

func (r *Repository) UserByID(ctx context.Context, id string) (store.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, name, disabled FROM users WHERE id = ?`, id))
}

func (r *Repository) scanUser(row *sql.Row) (store.User, error) {
	var u store.User
	var disabled int
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &disabled)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, store.ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.Disabled = disabled != 0
	return u, nil
}

func (r *Repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.execOne(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
}

func (r *Repository) UpdateEmail(ctx context.Context, id, email string) error {
	err := r.execOne(ctx, `UPDATE users SET email = ? WHERE id = ?`, email, id)
	if err != nil && isUniqueViolation(err) {
		return store.ErrEmailTaken
	}
	return err
}

// --- profiles ---

func (r *Repository) GetProfile(ctx context.Context, id string) (core.UserProfile, error) {
	var p core.UserProfile
	var verified int
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, phone, email, email_verified FROM profiles WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Phone, &p.Email, &verified)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserProfile{}, store.ErrNotFound
	}
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("scan profile: %w", err)
	}
	p.EmailVerified = verified != 0
	return p, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, id string, patch store.ProfilePatch) error {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *patch.Phone)
	}
	if patch.Email != nil {
		// A changed email requires re-verification; an unchanged one keeps
		// its flag. The CASE reads the pre-update column value.
		sets = append(sets,
			"email_verified = CASE WHEN email = ? THEN email_verified ELSE 0 END",
			"email = ?")
		args = append(args, *patch.Email, *patch.Email)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	return r.execOne(ctx, "UPDATE profiles SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
}

func (r *Repository) SetEmailVerified(ctx context.Context, id string, verified bool) error {
	return r.execOne(ctx, `UPDATE profiles SET email_verified = ? WHERE id = ?`, boolInt(verified), id)
}

// --- vehicles ---

func (r *Repository) ListVehicles(ctx context.Context, ownerID string) ([]core.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, plate_number, driver_phone, status
		 FROM vehicles WHERE owner_id = ? ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	out := make([]core.Vehicle, 0)
	for rows.Next() {
		var v core.Vehicle
		var phone sql.NullString
		if err := rows.Scan(&v.ID, &v.Name, &v.PlateNumber, &phone, &v.Status); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		v.DriverPhone = phone.String
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *Repository) CreateVehicle(ctx context.Context, ownerID string, v core.Vehicle) (string, error) {
	id := newID()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vehicles (id, owner_id, name, plate_number, driver_phone, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, ownerID, v.Name, v.PlateNumber, nullablePhone(v.DriverPhone), string(v.Status))
	if err != nil {
		return "", fmt.Errorf("insert vehicle: %w", err)
	}
	return id, nil
}

func (r *Repository) UpdateVehicle(ctx context.Context, ownerID, id string, patch store.VehiclePatch) error {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 6)
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.PlateNumber != nil {
		sets = append(sets, "plate_number = ?")
		args = append(args, *patch.PlateNumber)
	}
	if patch.DriverPhone != nil {
		sets = append(sets, "driver_phone = ?")
		args = append(args, nullablePhone(*patch.DriverPhone))
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, ownerID, id)
	return r.execOne(ctx,
		"UPDATE vehicles SET "+strings.Join(sets, ", ")+" WHERE owner_id = ? AND id = ?", args...)
}

func (r *Repository) DeleteVehicle(ctx context.Context, ownerID, id string) error {
	return r.execOne(ctx, `DELETE FROM vehicles WHERE owner_id = ? AND id = ?`, ownerID, id)
}

// --- transactions ---

func (r *Repository) ListTransactions(ctx context.Context, ownerID string, limit int) ([]core.Transaction, error) {
	query := `SELECT id, vehicle_id, vehicle_name, type, category, amount_cents, date, notes
	          FROM transactions WHERE owner_id = ?
	          ORDER BY date DESC, created_at DESC, rowid DESC`
	args := []any{ownerID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		var t core.Transaction
		var dateStr string
		if err := rows.Scan(&t.ID, &t.VehicleID, &t.VehicleName, &t.Type, &t.Category,
			&t.Amount.Cents, &dateStr, &t.Notes); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Date, err = core.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", dateStr, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) CreateTransaction(ctx context.Context, ownerID string, t core.Transaction) (string, error) {
	id := newID()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, owner_id, vehicle_id, vehicle_name, type, category, amount_cents, date, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, t.VehicleID, t.VehicleName, string(t.Type), t.Category,
		t.Amount.Cents, t.Date.String(), t.Notes)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	return r.execOne(ctx, `DELETE FROM transactions WHERE owner_id = ? AND id = ?`, ownerID, id)
}

// --- categories ---

func (r *Repository) ListCategories(ctx context.Context, ownerID string, typ core.TransactionType) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT label FROM categories WHERE owner_id = ? AND type = ? ORDER BY id`,
		ownerID, string(typ))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, label)
	}
	return out, rows.Err()
}

func (r *Repository) AddCategory(ctx context.Context, ownerID string, typ core.TransactionType, label string) error {
	// The unique index collapses duplicate labels case-insensitively.
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO categories (owner_id, type, label) VALUES (?, ?, ?)`,
		ownerID, string(typ), label)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *Repository) RemoveCategory(ctx context.Context, ownerID string, typ core.TransactionType, label string) error {
	return r.execOne(ctx,
		`DELETE FROM categories WHERE owner_id = ? AND type = ? AND label = ? COLLATE NOCASE`,
		ownerID, string(typ), label)
}

// --- helpers ---

// execOne runs a statement that must affect exactly one row, mapping zero
// affected rows to ErrNotFound.
func (r *Repository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullablePhone(phone string) any {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}
	return phone
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
