package db

import (
	"database/sql"
	stderrors "errors"
	"strings"
	"time"
)

// ErrUniqueConstraint is returned when an insert violates the (collection, key) index.
var ErrUniqueConstraint = stderrors.New("unique constraint violation")

// ErrNoRows is returned when an update or delete matches nothing.
var ErrNoRows = sql.ErrNoRows

// Row is one registry entry as stored.
type Row struct {
	Seq        int64
	Collection string
	Key        string
	Value      string
	CreatedAt  int64
	UpdatedAt  int64
}

// Insert stores a new entry. Fails with ErrUniqueConstraint if the key exists.
func Insert(db *sql.DB, collection, key, value string) error {
	now := time.Now().Unix()
	_, err := db.Exec(`
		INSERT INTO registry_entries (collection, key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, collection, key, value, now, now)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return err
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// UpdateValue replaces the value of an existing entry, keeping its position.
func UpdateValue(db *sql.DB, collection, key, value string) error {
	res, err := db.Exec(`
		UPDATE registry_entries SET value = ?, updated_at = ?
		WHERE collection = ? AND key = ?
	`, value, time.Now().Unix(), collection, key)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteEntry removes an entry.
func DeleteEntry(db *sql.DB, collection, key string) error {
	res, err := db.Exec(`DELETE FROM registry_entries WHERE collection = ? AND key = ?`, collection, key)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoRows
	}
	return nil
}

// GetEntry retrieves one entry. Returns ErrNoRows if missing.
func GetEntry(db *sql.DB, collection, key string) (*Row, error) {
	var r Row
	err := db.QueryRow(`
		SELECT seq, collection, key, value, created_at, updated_at
		FROM registry_entries
		WHERE collection = ? AND key = ?
	`, collection, key).Scan(&r.Seq, &r.Collection, &r.Key, &r.Value, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListEntries returns every entry of a collection in insertion order.
func ListEntries(db *sql.DB, collection string) ([]Row, error) {
	rows, err := db.Query(`
		SELECT seq, collection, key, value, created_at, updated_at
		FROM registry_entries
		WHERE collection = ?
		ORDER BY seq ASC
	`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Seq, &r.Collection, &r.Key, &r.Value, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// CountEntries returns how many entries a collection holds.
func CountEntries(db *sql.DB, collection string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM registry_entries WHERE collection = ?`, collection).Scan(&n)
	return n, err
}
