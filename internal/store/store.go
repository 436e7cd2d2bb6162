// Package store provides a SQLite-backed implementation of types.ConfigStore.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // register the sqlite3 driver
	"github.com/sirupsen/logrus"

	"github.com/toozej/spotseed/internal/types"
)

// migrations are applied in order; schema_version records how many have run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS blacklist (
		uri TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		artists TEXT NOT NULL DEFAULT '[]',
		added_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS presets (
		name TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS devices (
		name TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		device_name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS playlists (
		name TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		playlist_name TEXT NOT NULL,
		uri TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS default_playlist (
		slot INTEGER PRIMARY KEY CHECK (slot = 1),
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		uri TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`,
}

// Store implements types.ConfigStore on a SQLite database
type Store struct {
	db     *sql.DB
	logger *logrus.Logger
}

// Open connects to the database at path and runs pending migrations
func Open(ctx context.Context, path string, logger *logrus.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return s, nil
}

// Close releases the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return err
	}

	var version int
	err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return err
		}
	case err != nil:
		return err
	}

	for i := version; i < len(migrations); i++ {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE schema_version SET version = ?`, i+1); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		s.logger.WithFields(logrus.Fields{
			"component": "store",
			"operation": "migrate",
			"version":   i + 1,
		}).Debug("Applied schema migration")
	}
	return nil
}

// Blacklist loads every blacklisted track and artist.
func (s *Store) Blacklist(ctx context.Context) (*types.Blacklist, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT uri, name, artists FROM blacklist ORDER BY added_at ASC, uri ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to load blacklist: %w", err)
	}
	defer rows.Close()

	bl := types.NewBlacklist()
	for rows.Next() {
		var entry types.BlacklistEntry
		var artists string
		if err := rows.Scan(&entry.URI, &entry.Name, &artists); err != nil {
			return nil, fmt.Errorf("failed to scan blacklist entry: %w", err)
		}
		if err := json.Unmarshal([]byte(artists), &entry.Artists); err != nil {
			return nil, fmt.Errorf("failed to decode blacklist artists for %s: %w", entry.URI, err)
		}
		if err := bl.Add(entry); err != nil {
			s.logger.WithFields(logrus.Fields{
				"component": "store",
				"operation": "load_blacklist",
				"uri":       entry.URI,
			}).WithError(err).Warn("Skipping malformed blacklist entry")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blacklist: %w", err)
	}
	return bl, nil
}

// AddBlacklistEntry inserts or replaces a blacklist entry.
func (s *Store) AddBlacklistEntry(ctx context.Context, entry types.BlacklistEntry) error {
	kind := entry.Kind()
	if kind != types.KindTrack && kind != types.KindArtist {
		return &types.ValidationError{Field: "uri", Value: entry.URI, Reason: "only tracks and artists can be blacklisted"}
	}
	artists, err := json.Marshal(nonNil(entry.Artists))
	if err != nil {
		return fmt.Errorf("failed to encode blacklist artists: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO blacklist (uri, kind, name, artists) VALUES (?, ?, ?, ?)
		ON CONFLICT(uri) DO UPDATE SET name = excluded.name, artists = excluded.artists`,
		entry.URI, string(kind), entry.Name, string(artists))
	if err != nil {
		return fmt.Errorf("failed to save blacklist entry: %w", err)
	}
	return nil
}

// RemoveBlacklistEntry deletes an entry, reporting whether it existed.
func (s *Store) RemoveBlacklistEntry(ctx context.Context, uri string) (bool, error) {
	return s.deleteRow(ctx, `DELETE FROM blacklist WHERE uri = ?`, uri)
}

// Presets returns every saved preset keyed by name.
func (s *Store) Presets(ctx context.Context) (map[string]types.Preset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, data FROM presets`)
	if err != nil {
		return nil, fmt.Errorf("failed to load presets: %w", err)
	}
	defer rows.Close()

	presets := make(map[string]types.Preset)
	for rows.Next() {
		var name, data string
		if err := rows.Scan(&name, &data); err != nil {
			return nil, fmt.Errorf("failed to scan preset: %w", err)
		}
		var preset types.Preset
		if err := json.Unmarshal([]byte(data), &preset); err != nil {
			return nil, fmt.Errorf("failed to decode preset %q: %w", name, err)
		}
		presets[name] = preset
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate presets: %w", err)
	}
	return presets, nil
}

// SavePreset stores a preset under name, replacing any previous one.
func (s *Store) SavePreset(ctx context.Context, name string, preset types.Preset) error {
	if name == "" {
		return &types.ValidationError{Field: "preset", Reason: "name is required"}
	}
	data, err := json.Marshal(preset)
	if err != nil {
		return fmt.Errorf("failed to encode preset: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO presets (name, data) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		name, string(data))
	if err != nil {
		return fmt.Errorf("failed to save preset: %w", err)
	}
	return nil
}

// RemovePreset deletes a preset, reporting whether it existed.
func (s *Store) RemovePreset(ctx context.Context, name string) (bool, error) {
	return s.deleteRow(ctx, `DELETE FROM presets WHERE name = ?`, name)
}

// Devices returns every saved device alias.
func (s *Store) Devices(ctx context.Context) (map[string]types.Device, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, id, device_name, type FROM devices`)
	if err != nil {
		return nil, fmt.Errorf("failed to load devices: %w", err)
	}
	defer rows.Close()

	devices := make(map[string]types.Device)
	for rows.Next() {
		var alias string
		var d types.Device
		if err := rows.Scan(&alias, &d.ID, &d.Name, &d.Type); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices[alias] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %w", err)
	}
	return devices, nil
}

// SaveDevice stores a device under an alias.
func (s *Store) SaveDevice(ctx context.Context, name string, device types.Device) error {
	if name == "" {
		return &types.ValidationError{Field: "device", Reason: "name is required"}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO devices (name, id, device_name, type) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET id = excluded.id, device_name = excluded.device_name, type = excluded.type`,
		name, device.ID, device.Name, device.Type)
	if err != nil {
		return fmt.Errorf("failed to save device: %w", err)
	}
	return nil
}

// RemoveDevice deletes a device alias, reporting whether it existed.
func (s *Store) RemoveDevice(ctx context.Context, name string) (bool, error) {
	return s.deleteRow(ctx, `DELETE FROM devices WHERE name = ?`, name)
}

// Playlists returns every saved playlist alias.
func (s *Store) Playlists(ctx context.Context) (map[string]types.Playlist, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, id, playlist_name, uri FROM playlists`)
	if err != nil {
		return nil, fmt.Errorf("failed to load playlists: %w", err)
	}
	defer rows.Close()

	playlists := make(map[string]types.Playlist)
	for rows.Next() {
		var alias string
		var p types.Playlist
		if err := rows.Scan(&alias, &p.ID, &p.Name, &p.URI); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists[alias] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate playlists: %w", err)
	}
	return playlists, nil
}

// SavePlaylist stores a playlist under an alias.
func (s *Store) SavePlaylist(ctx context.Context, name string, playlist types.Playlist) error {
	if name == "" {
		return &types.ValidationError{Field: "playlist", Reason: "name is required"}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO playlists (name, id, playlist_name, uri) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET id = excluded.id, playlist_name = excluded.playlist_name, uri = excluded.uri`,
		name, playlist.ID, playlist.Name, playlist.URI)
	if err != nil {
		return fmt.Errorf("failed to save playlist: %w", err)
	}
	return nil
}

// RemovePlaylist deletes a playlist alias, reporting whether it existed.
func (s *Store) RemovePlaylist(ctx context.Context, name string) (bool, error) {
	return s.deleteRow(ctx, `DELETE FROM playlists WHERE name = ?`, name)
}

// DefaultPlaylist returns the cached default playlist, if any.
func (s *Store) DefaultPlaylist(ctx context.Context) (types.Playlist, bool, error) {
	var p types.Playlist
	err := s.db.QueryRowContext(ctx, `SELECT id, name, uri FROM default_playlist WHERE slot = 1`).Scan(&p.ID, &p.Name, &p.URI)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Playlist{}, false, nil
		}
		return types.Playlist{}, false, fmt.Errorf("failed to load default playlist: %w", err)
	}
	return p, true, nil
}

// SetDefaultPlaylist replaces the cached default playlist.
func (s *Store) SetDefaultPlaylist(ctx context.Context, playlist types.Playlist) error {
	if playlist.ID == "" {
		return &types.ValidationError{Field: "playlist", Reason: "id is required"}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO default_playlist (slot, id, name, uri) VALUES (1, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET id = excluded.id, name = excluded.name, uri = excluded.uri, updated_at = CURRENT_TIMESTAMP`,
		playlist.ID, playlist.Name, playlist.URI)
	if err != nil {
		return fmt.Errorf("failed to save default playlist: %w", err)
	}
	return nil
}

func (s *Store) deleteRow(ctx context.Context, query string, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, key)
	if err != nil {
		return false, fmt.Errorf("failed to delete %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return n > 0, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
