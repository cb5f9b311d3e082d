package store

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	models "marketplace/model"
)

//go:embed migrations/postgres.sql
var postgresSchema string

//go:embed migrations/mysql.sql
var mysqlSchema string

//go:embed migrations/sqlite.sql
var sqliteSchema string

// DefaultPlans are created when the plans table is empty.
var DefaultPlans = []models.Plan{
	{ID: 1, Name: "Basic", MaxParallelSessions: 2},
	{ID: 2, Name: "Advanced", MaxParallelSessions: 4},
	{ID: 3, Name: "Premium", MaxParallelSessions: 6},
}

// Migrate runs the dialect's DDL one statement at a time.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range splitStatements(s.dialect.schema) {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func splitStatements(schema string) []string {
	var out []string
	for _, stmt := range strings.Split(schema, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// SeedPlans inserts the given plans when the store holds none yet.
func SeedPlans(ctx context.Context, s Store, plans []models.Plan) error {
	return s.InTx(ctx, func(ctx context.Context, tx Tx) error {
		existing, err := tx.ListPlans(ctx)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}
		for _, p := range plans {
			if err := tx.InsertPlan(ctx, p); err != nil {
				return fmt.Errorf("seed plan %d: %w", p.ID, err)
			}
		}
		return nil
	})
}
