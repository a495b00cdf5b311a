package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/edtriage/backend/internal/database"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// appliedMigration records a .sql file that has already run.
type appliedMigration struct {
	Name      string `gorm:"primaryKey"`
	AppliedAt time.Time
}

func (appliedMigration) TableName() string { return "schema_migrations" }

type Runner struct {
	dbManager *database.Manager
	logger    *logrus.Logger
}

func NewRunner(dbManager *database.Manager, logger *logrus.Logger) *Runner {
	return &Runner{
		dbManager: dbManager,
		logger:    logger,
	}
}

// RunMigrations auto-migrates the audit models, then applies each .sql file
// in migrationsPath that has not run before, in name order. Each file runs in
// its own transaction.
func (r *Runner) RunMigrations(migrationsPath string) error {
	if !r.dbManager.HasDatabase() {
		r.logger.Debug("No audit database, skipping migrations")
		return nil
	}

	if err := r.dbManager.Migrate(); err != nil {
		return fmt.Errorf("GORM auto-migration failed: %w", err)
	}

	files, err := listMigrations(migrationsPath)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	db := r.dbManager.DB
	if err := db.AutoMigrate(&appliedMigration{}); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var done []appliedMigration
	if err := db.Find(&done).Error; err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}
	applied := make(map[string]bool, len(done))
	for _, m := range done {
		applied[m.Name] = true
	}

	todo := pending(files, applied)
	for _, name := range todo {
		if err := r.apply(db, migrationsPath, name); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
		r.logger.WithField("file", name).Info("Migration applied")
	}

	r.logger.WithFields(logrus.Fields{
		"applied": len(todo),
		"skipped": len(files) - len(todo),
	}).Info("SQL migrations up to date")
	return nil
}

func (r *Runner) apply(db *gorm.DB, dir, name string) error {
	content, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	statements := Statements(string(content))

	return db.Transaction(func(tx *gorm.DB) error {
		for i, stmt := range statements {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("statement %d: %w", i+1, err)
			}
		}
		return tx.Create(&appliedMigration{Name: name, AppliedAt: time.Now()}).Error
	})
}

// listMigrations returns the .sql file names in dir, sorted. A missing
// directory yields no files.
func listMigrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func pending(files []string, applied map[string]bool) []string {
	var todo []string
	for _, f := range files {
		if !applied[f] {
			todo = append(todo, f)
		}
	}
	return todo
}

// Statements splits a migration into statements. A statement ends at a line
// whose last character is ';'. Whole-line "--" comments are dropped.
func Statements(sql string) []string {
	var (
		statements []string
		current    []string
	)
	flush := func() {
		stmt := strings.TrimSuffix(strings.TrimSpace(strings.Join(current, "\n")), ";")
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(sql, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current = append(current, strings.TrimRight(line, " \t\r"))
		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}
	flush()
	return statements
}
