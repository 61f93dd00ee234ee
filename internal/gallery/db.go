// Package gallery persists generated images in sqlite so they survive across sessions.
package gallery

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/zer0thgear/zer0-novel-utillities/internal/log"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

const getCurrentMigration string = `PRAGMA user_version;`
const setCurrentMigration string = `PRAGMA user_version = ?;`

const createImagesTableIfNotExistsQuery string = `
CREATE TABLE IF NOT EXISTS images (
id TEXT NOT NULL PRIMARY KEY,
data BLOB NOT NULL,
prompt TEXT NOT NULL,
negative_prompt TEXT NOT NULL,
model TEXT NOT NULL,
parameters TEXT NOT NULL,
timestamp INTEGER NOT NULL,
seed INTEGER NOT NULL
);`

const createTimestampIndexIfNotExistsQuery string = `
CREATE INDEX IF NOT EXISTS images_timestamp_index
ON images(timestamp);
`

const addSourceImageColumnQuery string = `
ALTER TABLE images ADD COLUMN source_image_id TEXT NOT NULL DEFAULT '';
`

type migration struct {
	migrationName  string
	migrationQuery string
}

var migrations = []migration{
	{migrationName: "create images table", migrationQuery: createImagesTableIfNotExistsQuery},
	{migrationName: "add images timestamp index", migrationQuery: createTimestampIndexIfNotExistsQuery},
	{migrationName: "add source image column", migrationQuery: addSourceImageColumnQuery},
}

// OpenDB opens the database at dsn and brings its schema up to date.
// File databases get their parent directory created.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn != MemoryDSN && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create gallery directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Every connection to :memory: is a separate database, and sqlite allows one writer anyway.
	db.SetMaxOpenConns(1)

	err = migrate(ctx, db)
	if err != nil {
		_ = db.Close()
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

	log.Debug(ctx, "gallery schema version",
		log.Int("current", currentMigration),
		log.Int("required", requiredMigration))

	for migrationNum := currentMigration + 1; migrationNum <= requiredMigration; migrationNum++ {
		err = execMigration(ctx, db, migrationNum)
		if err != nil {
			log.Error(ctx, "gallery migration failed",
				log.Int("migration", migrationNum),
				log.String("name", migrations[migrationNum-1].migrationName),
				log.Cause(err))

			return err
		}
	}

	return nil
}

func execMigration(ctx context.Context, db *sql.DB, migrationNum int) error {
	log.Info(ctx, "running gallery migration",
		log.Int("migration", migrationNum),
		log.String("name", migrations[migrationNum-1].migrationName))

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
