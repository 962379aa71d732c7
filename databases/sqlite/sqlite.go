package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const DefaultDBFile string = "previz_studio.sqlite"

// MemoryDB opens a private in-memory database.
const MemoryDB string = ":memory:"

const getCurrentMigration string = `PRAGMA user_version;`
const setCurrentMigration string = `PRAGMA user_version = ?;`

const createGeneratedShotsTableIfNotExistsQuery string = `
CREATE TABLE IF NOT EXISTS generated_shots (
id TEXT NOT NULL PRIMARY KEY,
session_id TEXT NOT NULL,
engine TEXT NOT NULL,
image_url TEXT NOT NULL,
params TEXT NOT NULL,
timestamp INTEGER NOT NULL,
created_at DATETIME NOT NULL
);`

const createShotTimestampIndexIfNotExistsQuery string = `
CREATE INDEX IF NOT EXISTS generated_shots_session_timestamp_index
ON generated_shots(session_id, timestamp);
`

const createSessionSettingsTableIfNotExistsQuery string = `
CREATE TABLE IF NOT EXISTS session_settings (
session_id TEXT NOT NULL PRIMARY KEY,
engine TEXT NOT NULL,
credential TEXT NOT NULL,
scene TEXT NOT NULL,
updated_at DATETIME NOT NULL
);`

type migration struct {
	migrationName  string
	migrationQuery string
}

var migrations = []migration{
	{migrationName: "create generated shots table", migrationQuery: createGeneratedShotsTableIfNotExistsQuery},
	{migrationName: "add generated shots session timestamp index", migrationQuery: createShotTimestampIndexIfNotExistsQuery},
	{migrationName: "create session settings table", migrationQuery: createSessionSettingsTableIfNotExistsQuery},
}

type Config struct {
	// Filename is the database path. Empty means DefaultDBFile in the working directory;
	// MemoryDB opens an in-memory database.
	Filename string
}

func New(ctx context.Context, cfg Config) (*sql.DB, error) {
	filename := cfg.Filename
	if filename == "" {
		var err error

		filename, err = DBFilename()
		if err != nil {
			return nil, err
		}
	}

	if filename != MemoryDB {
		err := touchDBFile(filename)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, err
	}

	if filename == MemoryDB {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	err = migrate(ctx, db)
	if err != nil {
		db.Close()

		return nil, err
	}

	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	var currentMigration int

	row := db.QueryRowContext(ctx, getCurrentMigration)

	err := row.Scan(&currentMigration)
	if err != nil {
		return err
	}

	requiredMigration := len(migrations)

	log.Info().Int("current", currentMigration).Int("required", requiredMigration).Msg("DB version")

	if currentMigration < requiredMigration {
		for migrationNum := currentMigration + 1; migrationNum <= requiredMigration; migrationNum++ {
			err = execMigration(ctx, db, migrationNum)
			if err != nil {
				log.Printf("Error running migration %v '%v': %v", migrationNum, migrations[migrationNum-1].migrationName, err)

				return err
			}
		}
	}

	return nil
}

func execMigration(ctx context.Context, db *sql.DB, migrationNum int) error {
	log.Info().Int("migration", migrationNum).Str("name", migrations[migrationNum-1].migrationName).Msg("Running migration")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	//nolint
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, migrations[migrationNum-1].migrationQuery)
	if err != nil {
		return err
	}

	setQuery := strings.Replace(setCurrentMigration, "?", strconv.Itoa(migrationNum), 1)

	_, err = tx.ExecContext(ctx, setQuery)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func DBFilename() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, DefaultDBFile), nil
}

func touchDBFile(filename string) error {
	_, err := os.Stat(filename)
	if os.IsNotExist(err) {
		file, createErr := os.Create(filename)
		if createErr != nil {
			return createErr
		}

		closeErr := file.Close()
		if closeErr != nil {
			return closeErr
		}
	}

	return nil
}
