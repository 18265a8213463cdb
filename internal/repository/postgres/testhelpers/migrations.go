package testhelpers

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

// ApplyMigrations applies every .up.sql file from dir in lexical order.
// Migrations are idempotent, so re-running them against a prepared database is harmless.
func ApplyMigrations(db *sqlx.DB, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	return execFiles(db, dir, files)
}

// LoadFixtures executes the given SQL files from dir
func LoadFixtures(db *sqlx.DB, dir string, files ...string) error {
	return execFiles(db, dir, files)
}

func execFiles(db *sqlx.DB, dir string, files []string) error {
	for _, file := range files {
		content, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("exec %s: %w", file, err)
		}
	}
	return nil
}
