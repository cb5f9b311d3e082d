// Package isolation runs the two-terminal plan reader/writer experiment
// that shows what each transaction isolation level lets a reader see of a
// concurrent writer's commit.
package isolation

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math/rand"

	"marketplace/logger"
	models "marketplace/model"
	"marketplace/store"
)

// Levels are walked through in this order by both roles.
var Levels = []sql.IsolationLevel{
	sql.LevelReadCommitted,
	sql.LevelRepeatableRead,
	sql.LevelSerializable,
}

// Pause blocks until the operator lets the experiment go on.
type Pause func(prompt string) error

// LinePause prints prompt to out and waits for a line on in.
func LinePause(in io.Reader, out io.Writer) Pause {
	r := bufio.NewReader(in)
	return func(prompt string) error {
		fmt.Fprint(out, prompt)
		_, err := r.ReadString('\n')
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
}

type Demo struct {
	db     *sql.DB
	rebind func(string) string
	out    io.Writer
	pause  Pause
	intn   func(n int) int
}

// New builds a Demo on the store's connection pool. SQLite has a single
// isolation level, so only postgres and mysql are accepted.
func New(s *store.SQLStore, out io.Writer, pause Pause) (*Demo, error) {
	if s.Driver() == "sqlite3" {
		return nil, errors.New("isolation experiment needs postgres or mysql")
	}
	return &Demo{db: s.DB, rebind: s.Rebind, out: out, pause: pause, intn: rand.Intn}, nil
}

// Run starts the named role, reader or writer.
func (d *Demo) Run(ctx context.Context, role string) error {
	switch role {
	case "reader":
		return d.Reader(ctx)
	case "writer":
		return d.Writer(ctx)
	}
	return fmt.Errorf("unknown isolation role %q, use reader or writer", role)
}

// Reader lists the plans twice inside one transaction per level, pausing
// in between so a writer can commit.
func (d *Demo) Reader(ctx context.Context) error {
	for _, level := range Levels {
		fmt.Fprintf(d.out, "\nTesting isolation level: %s\n", level)
		if err := d.readPlans(ctx, level); err != nil {
			return fmt.Errorf("%s: %w", level, err)
		}
	}
	return nil
}

func (d *Demo) readPlans(ctx context.Context, level sql.IsolationLevel) error {
	tx, err := d.db.BeginTx(ctx, &sql.TxOptions{Isolation: level})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := d.printPlans(ctx, tx, "Plans before commit", level); err != nil {
		return err
	}
	if err := d.pause("Hit enter to continue...\n"); err != nil {
		return err
	}
	if err := d.printPlans(ctx, tx, "Plans after commit", level); err != nil {
		return err
	}
	if err := d.pause("Hit enter to continue..."); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *Demo) printPlans(ctx context.Context, tx *sql.Tx, title string, level sql.IsolationLevel) error {
	rows, err := tx.QueryContext(ctx, `SELECT plan_id, name, max_parallel_sessions FROM plans ORDER BY plan_id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	fmt.Fprintf(d.out, "%s (isolation level: %s):\n", title, level)
	for rows.Next() {
		var p models.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.MaxParallelSessions); err != nil {
			return err
		}
		fmt.Fprintf(d.out, "%d|%s|%d\n", p.ID, p.Name, p.MaxParallelSessions)
	}
	return rows.Err()
}

// Writer inserts one random plan per level and commits it when the
// operator says so. A failed level is reported and the next one runs.
func (d *Demo) Writer(ctx context.Context) error {
	for _, level := range Levels {
		fmt.Fprintf(d.out, "\nTesting isolation level: %s\n", level)
		if err := d.writePlan(ctx, level); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("isolation writer failed", map[string]interface{}{
				"level": level.String(),
				"error": err,
			})
			fmt.Fprintf(d.out, "An error occurred: %v\n", err)
		}
	}
	return nil
}

func (d *Demo) randomPlan() models.Plan {
	return models.Plan{
		ID:                  1000 + d.intn(9000),
		Name:                fmt.Sprintf("Plan_%d", 1000+d.intn(9000)),
		MaxParallelSessions: 6 + d.intn(15),
	}
}

func (d *Demo) writePlan(ctx context.Context, level sql.IsolationLevel) error {
	tx, err := d.db.BeginTx(ctx, &sql.TxOptions{Isolation: level})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	p := d.randomPlan()
	if _, err := tx.ExecContext(ctx,
		d.rebind(`INSERT INTO plans (plan_id, name, max_parallel_sessions) VALUES (?, ?, ?)`),
		p.ID, p.Name, p.MaxParallelSessions); err != nil {
		return err
	}
	if err := d.pause("Hit enter to commit a new plan..."); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	fmt.Fprintf(d.out, "Committed new plan: %s with max_parallel_sessions: %d\n", p.Name, p.MaxParallelSessions)
	return d.pause("Hit enter to continue...")
}
