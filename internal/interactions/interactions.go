package interactions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"newsintel/internal/core"
)

// Store is the SQLite-backed interaction store adapter. Profiles and
// interaction logs are owned by the external account system; the pipeline
// treats the log as append-only and the recommender only reads it.
type Store struct {
	db *sql.DB
}

// NewStore opens the interaction database under dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "interactions.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables
func (s *Store) initialize() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY,
			categories TEXT,
			countries TEXT,
			language TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS interactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			action TEXT NOT NULL,
			timestamp DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions (user_id, timestamp);`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_article ON interactions (fingerprint);`,
	}

	for _, table := range tables {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveProfile upserts a user's stated preferences. This is the write path
// of the external account system, kept here so its contract is pinned.
func (s *Store) SaveProfile(ctx context.Context, profile core.UserProfile) error {
	categories, _ := json.Marshal(profile.Categories)
	countries, _ := json.Marshal(profile.Countries)

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO profiles (user_id, categories, countries, language)
		VALUES (?, ?, ?, ?)`,
		profile.UserID, string(categories), string(countries), profile.Language,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// Append records one interaction at the end of the user's log.
func (s *Store) Append(ctx context.Context, userID string, interaction core.Interaction) error {
	ts := interaction.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interactions (user_id, fingerprint, action, timestamp)
		VALUES (?, ?, ?, ?)`,
		userID, interaction.Fingerprint, interaction.Action, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to append interaction: %w", err)
	}
	return nil
}

// Profile returns the user's preferences together with the ordered
// interaction log. A user unknown to both tables yields
// core.ErrProfileUnavailable.
func (s *Store) Profile(ctx context.Context, userID string) (*core.UserProfile, error) {
	profile := &core.UserProfile{UserID: userID}

	var categories, countries string
	err := s.db.QueryRowContext(ctx,
		`SELECT categories, countries, language FROM profiles WHERE user_id = ?`, userID,
	).Scan(&categories, &countries, &profile.Language)

	known := err == nil
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read profile %s: %w: %v", userID, core.ErrProfileUnavailable, err)
	}
	if known {
		_ = json.Unmarshal([]byte(categories), &profile.Categories)
		_ = json.Unmarshal([]byte(countries), &profile.Countries)
	}

	history, err := s.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.History = history

	if !known && len(history) == 0 {
		return nil, fmt.Errorf("user %s: %w", userID, core.ErrProfileUnavailable)
	}

	return profile, nil
}

// History returns the user's interaction log ordered oldest first.
func (s *Store) History(ctx context.Context, userID string) ([]core.Interaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fingerprint, action, timestamp
		FROM interactions
		WHERE user_id = ?
		ORDER BY timestamp ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read history %s: %w: %v", userID, core.ErrProfileUnavailable, err)
	}
	defer rows.Close()

	var history []core.Interaction
	for rows.Next() {
		var interaction core.Interaction
		if err := rows.Scan(&interaction.Fingerprint, &interaction.Action, &interaction.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		history = append(history, interaction)
	}

	return history, rows.Err()
}

// HistoriesTouching returns, per user, the interactions referencing any of
// the given fingerprints. The requesting user is excluded; the result is
// the neighborhood input for collaborative scoring.
func (s *Store) HistoriesTouching(ctx context.Context, fingerprints []string, excludeUser string) (map[string][]core.Interaction, error) {
	if len(fingerprints) == 0 {
		return map[string][]core.Interaction{}, nil
	}

	placeholders := strings.Repeat("?,", len(fingerprints))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(fingerprints)+1)
	for _, fp := range fingerprints {
		args = append(args, fp)
	}
	args = append(args, excludeUser)

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, fingerprint, action, timestamp
		FROM interactions
		WHERE fingerprint IN (`+placeholders+`) AND user_id != ?
		ORDER BY user_id, timestamp ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read neighborhood interactions: %w", err)
	}
	defer rows.Close()

	histories := make(map[string][]core.Interaction)
	for rows.Next() {
		var userID string
		var interaction core.Interaction
		if err := rows.Scan(&userID, &interaction.Fingerprint, &interaction.Action, &interaction.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		histories[userID] = append(histories[userID], interaction)
	}

	return histories, rows.Err()
}
