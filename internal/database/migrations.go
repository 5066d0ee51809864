package database

import (
	"database/sql"
	"fmt"
	"log"
	"sort"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations holds the embedded schema history. Versions must be unique and
// are applied in ascending order exactly once.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "001_create_grid_cells",
		SQL: `
			CREATE TABLE IF NOT EXISTS grid_cells (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				cell_id TEXT NOT NULL UNIQUE,
				center_lat REAL NOT NULL,
				center_lon REAL NOT NULL,
				area_hectares REAL NOT NULL DEFAULT 1.0,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
	{
		Version: 2,
		Name:    "002_create_backscatter_timeseries",
		SQL: `
			CREATE TABLE IF NOT EXISTS backscatter_timeseries (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				grid_cell_id TEXT NOT NULL,
				observation_date TIMESTAMP NOT NULL,
				vv_mean REAL, vv_std REAL, vv_median REAL, vv_min REAL, vv_max REAL,
				vh_mean REAL, vh_std REAL, vh_median REAL, vh_min REAL, vh_max REAL,
				pixel_count INTEGER NOT NULL DEFAULT 0,
				source_image_id TEXT NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (grid_cell_id, observation_date, source_image_id)
			);
			CREATE INDEX IF NOT EXISTS idx_backscatter_cell_date
				ON backscatter_timeseries (grid_cell_id, observation_date);
		`,
	},
	{
		Version: 3,
		Name:    "003_create_forest_boundaries",
		SQL: `
			CREATE TABLE IF NOT EXISTS forest_boundaries (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				official_code TEXT,
				boundary_type TEXT NOT NULL,
				risk_tier TEXT NOT NULL DEFAULT 'TIER_1',
				polygon_json TEXT NOT NULL
			);
		`,
	},
	{
		Version: 4,
		Name:    "004_create_processed_images",
		SQL: `
			CREATE TABLE IF NOT EXISTS processed_images (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				image_id TEXT NOT NULL UNIQUE,
				acquisition_date TIMESTAMP NOT NULL,
				platform TEXT,
				orbit_direction TEXT,
				status TEXT NOT NULL DEFAULT 'PENDING',
				error_message TEXT,
				num_alerts_generated INTEGER NOT NULL DEFAULT 0,
				processing_date TIMESTAMP,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
	{
		Version: 5,
		Name:    "005_create_alert_candidates",
		SQL: `
			CREATE TABLE IF NOT EXISTS alert_candidates (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				grid_cell_id TEXT NOT NULL,
				detection_date TIMESTAMP NOT NULL,
				confidence_score REAL NOT NULL,
				area_hectares REAL NOT NULL,
				risk_tier TEXT NOT NULL DEFAULT 'TIER_1',
				status TEXT NOT NULL DEFAULT 'PENDING',
				alt_vv_drop_db REAL NOT NULL,
				alt_vh_drop_db REAL NOT NULL,
				optical_score REAL,
				combined_score REAL NOT NULL,
				ndvi_drop REAL,
				source_image_id TEXT NOT NULL,
				boundary_id INTEGER REFERENCES forest_boundaries(id),
				municipality_id INTEGER REFERENCES forest_boundaries(id),
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_alerts_image
				ON alert_candidates (source_image_id);
		`,
	},
}

// MigrationManager manages database migrations
type MigrationManager struct {
	db *sql.DB
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *sql.DB) *MigrationManager {
	return &MigrationManager{db: db}
}

// InitMigrationsTable creates the migrations tracking table
func (m *MigrationManager) InitMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := m.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns a list of applied migration versions
func (m *MigrationManager) GetAppliedMigrations() (map[int]bool, error) {
	rows, err := m.db.Query("SELECT version FROM migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	return applied, nil
}

// ApplyMigration applies a single migration
func (m *MigrationManager) ApplyMigration(migration Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	// Execute migration SQL
	_, err = tx.Exec(migration.SQL)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
	}

	// Record migration
	_, err = tx.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", migration.Version, migration.Name)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
	}

	return nil
}

// RunMigrations runs all pending migrations
func (m *MigrationManager) RunMigrations() error {
	if err := m.InitMigrationsTable(); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations()
	if err != nil {
		return err
	}

	pending := make([]Migration, 0, len(migrations))
	for _, migration := range migrations {
		if !applied[migration.Version] {
			pending = append(pending, migration)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Version < pending[j].Version
	})

	for _, migration := range pending {
		if err := m.ApplyMigration(migration); err != nil {
			return err
		}
		log.Printf("Applied migration %d: %s", migration.Version, migration.Name)
	}

	return nil
}
