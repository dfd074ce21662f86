package db

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tunestats/tunestats/models"
)

// DB is a wrapper around sql.DB
type DB struct {
	*sql.DB
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err = db.Ping(); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// Initialize sets up the database tables
func (db *DB) Initialize() error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS users (
		email TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		listen_time INTEGER NOT NULL DEFAULT 0,
		last_check_time INTEGER NOT NULL,
		created_at TIMESTAMP
	)`)

	return err
}

// CreateUser adds a new user. It reports false without error when a
// user with the same email already exists, so registration is an
// idempotent no-op rather than a failure.
func (db *DB) CreateUser(user *models.User) (bool, error) {
	result, err := db.Exec(`
	INSERT OR IGNORE INTO users (email, name, access_token, refresh_token, listen_time, last_check_time, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Email, user.Name, user.AccessToken, user.RefreshToken,
		user.ListenTime, user.LastCheckTime, user.CreatedAt)

	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

// GetUserByEmail retrieves a user by email, or nil if none exists
func (db *DB) GetUserByEmail(email string) (*models.User, error) {
	user := &models.User{}

	err := db.QueryRow(`
	SELECT email, name, access_token, refresh_token, listen_time, last_check_time, created_at
	FROM users WHERE email = ?`, email).Scan(
		&user.Email, &user.Name, &user.AccessToken, &user.RefreshToken,
		&user.ListenTime, &user.LastCheckTime, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetAllUsers returns a snapshot of every registered user. Order is
// whatever the database hands back.
func (db *DB) GetAllUsers() ([]*models.User, error) {
	rows, err := db.Query(`
	SELECT email, name, access_token, refresh_token, listen_time, last_check_time, created_at
	FROM users`)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User

	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(
			&user.Email, &user.Name, &user.AccessToken, &user.RefreshToken,
			&user.ListenTime, &user.LastCheckTime, &user.CreatedAt)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// UpdateUserTokens updates a user's Spotify tokens
func (db *DB) UpdateUserTokens(email, accessToken, refreshToken string) error {
	_, err := db.Exec(`
	UPDATE users
	SET access_token = ?, refresh_token = ?
	WHERE email = ?`,
		accessToken, refreshToken, email)

	return err
}

// UpdateListenState writes a user's accumulated listen time together
// with the checkpoint it was attributed up to.
func (db *DB) UpdateListenState(email string, listenTime, lastCheckTime int64) error {
	_, err := db.Exec(`
	UPDATE users
	SET listen_time = ?, last_check_time = ?
	WHERE email = ?`,
		listenTime, lastCheckTime, email)

	return err
}

// TouchLastCheck advances the checkpoint without touching the
// accumulator, used when a poll confirmed the user is not playing.
func (db *DB) TouchLastCheck(email string, lastCheckTime int64) error {
	_, err := db.Exec(`
	UPDATE users
	SET last_check_time = ?
	WHERE email = ?`,
		lastCheckTime, email)

	return err
}
