package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	models "marketplace/model"
)

// sqlTx implements Tx on top of one database/sql transaction. Queries are
// written with ? placeholders and rebound for the dialect.
type sqlTx struct {
	tx *sql.Tx
	d  dialect
}

func (t *sqlTx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := t.tx.ExecContext(ctx, t.d.rebind(query), args...)
	return res, t.d.wrap(err)
}

func (t *sqlTx) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.d.rebind(query), args...)
}

func (t *sqlTx) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := t.tx.QueryContext(ctx, t.d.rebind(query), args...)
	return rows, t.d.wrap(err)
}

// insert maps a uniqueness violation to ErrDuplicate.
func (t *sqlTx) insert(ctx context.Context, query string, args ...any) error {
	_, err := t.tx.ExecContext(ctx, t.d.rebind(query), args...)
	if err != nil && t.d.isUnique(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return t.d.wrap(err)
}

// update returns ErrNotFound when no row matched.
func (t *sqlTx) update(ctx context.Context, query string, args ...any) error {
	res, err := t.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanErr turns sql.ErrNoRows into a nil error so getters can report a
// missing row as (nil, nil).
func (t *sqlTx) scanErr(err error) (found bool, _ error) {
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, t.d.wrap(err)
	}
	return true, nil
}

func nullTime(ts *time.Time) sql.NullTime {
	if ts == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: ts.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	ts := nt.Time.UTC()
	return &ts
}

func (t *sqlTx) InsertPlan(ctx context.Context, p models.Plan) error {
	return t.insert(ctx,
		`INSERT INTO plans (plan_id, name, max_parallel_sessions) VALUES (?, ?, ?)`,
		p.ID, p.Name, p.MaxParallelSessions)
}

func (t *sqlTx) GetPlan(ctx context.Context, planID int) (*models.Plan, error) {
	var p models.Plan
	err := t.queryRow(ctx,
		`SELECT plan_id, name, max_parallel_sessions FROM plans WHERE plan_id = ?`, planID).
		Scan(&p.ID, &p.Name, &p.MaxParallelSessions)
	if ok, err := t.scanErr(err); !ok {
		return nil, err
	}
	return &p, nil
}

func (t *sqlTx) ListPlans(ctx context.Context) ([]models.Plan, error) {
	rows, err := t.query(ctx, `SELECT plan_id, name, max_parallel_sessions FROM plans ORDER BY plan_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Plan{}
	for rows.Next() {
		var p models.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.MaxParallelSessions); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, t.d.wrap(rows.Err())
}

func (t *sqlTx) InsertSeller(ctx context.Context, s models.Seller) error {
	return t.insert(ctx,
		`INSERT INTO sellers (seller_id, password, session_count, plan_id) VALUES (?, ?, ?, ?)`,
		s.ID, s.Secret, s.SessionCount, s.PlanID)
}

func (t *sqlTx) LockSeller(ctx context.Context, sellerID string) (*models.Seller, error) {
	var s models.Seller
	err := t.queryRow(ctx,
		`SELECT seller_id, password, session_count, plan_id FROM sellers WHERE seller_id = ?`+t.d.forUpdate,
		sellerID).
		Scan(&s.ID, &s.Secret, &s.SessionCount, &s.PlanID)
	if ok, err := t.scanErr(err); !ok {
		return nil, err
	}
	return &s, nil
}

func (t *sqlTx) UpdateSeller(ctx context.Context, s models.Seller) error {
	return t.update(ctx,
		`UPDATE sellers SET session_count = ?, plan_id = ? WHERE seller_id = ?`,
		s.SessionCount, s.PlanID, s.ID)
}

var _ Store = (*SQLStore)(nil)
var _ Tx = (*sqlTx)(nil)
