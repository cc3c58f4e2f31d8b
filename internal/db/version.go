package db

import (
	"github.com/parleyhq/parley/internal/db/migrations"
)

// SchemaVersion returns the number of SQL migration files, which equals
// the current schema version. Reported by the health endpoint so operators
// can confirm which schema a running instance expects.
func SchemaVersion() int {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return 0
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() {
			count++
		}
	}

	return count
}
