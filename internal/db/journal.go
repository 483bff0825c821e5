package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/buildtall-systems/sodamachine/internal/machine"
	"github.com/shopspring/decimal"
)

// SourceConsole marks events caused by the walk-up console.
const SourceConsole = "console"

// ErrInvalidLimit indicates a non-positive row limit.
var ErrInvalidLimit = errors.New("limit must be positive")

// Entry is one journaled session outcome.
type Entry struct {
	ID          int64
	Source      string
	Kind        machine.EventKind
	OrderID     int64
	Product     string
	Amount      decimal.Decimal
	PaymentType machine.PaymentType
	CreatedAt   time.Time
}

// SMSSource names the SMS channel source for a sender.
func SMSSource(npub string) string {
	return "sms:" + npub
}

// Record appends an event to the journal.
func (db *DB) Record(ctx context.Context, source string, ev machine.Event) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO journal (source, kind, order_id, product, amount, payment_type)
		VALUES (?, ?, ?, ?, ?, ?)
	`, source, string(ev.Kind), ev.OrderID, ev.Product, ev.Amount.String(), string(ev.PaymentType))
	if err != nil {
		return fmt.Errorf("recording %s event: %w", ev.Kind, err)
	}
	return nil
}

// RecordAll appends events in order inside one transaction.
func (db *DB) RecordAll(ctx context.Context, source string, events []machine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO journal (source, kind, order_id, product, amount, payment_type)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx, source, string(ev.Kind), ev.OrderID, ev.Product, ev.Amount.String(), string(ev.PaymentType)); err != nil {
			return fmt.Errorf("recording %s event: %w", ev.Kind, err)
		}
	}

	return tx.Commit()
}

// Recent returns up to limit entries, newest first.
func (db *DB) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, source, kind, order_id, product, amount, payment_type, created_at
		FROM journal
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			kind    string
			amount  string
			payment string
		)
		if err := rows.Scan(&e.ID, &e.Source, &kind, &e.OrderID, &e.Product, &amount, &payment, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		e.Kind = machine.EventKind(kind)
		e.PaymentType = machine.PaymentType(payment)
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("journal row %d amount %q: %w", e.ID, amount, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Totals sums journaled amounts per event kind.
func (db *DB) Totals(ctx context.Context) (map[machine.EventKind]decimal.Decimal, error) {
	rows, err := db.QueryContext(ctx, `SELECT kind, amount FROM journal`)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer func() { _ = rows.Close() }()

	totals := make(map[machine.EventKind]decimal.Decimal)
	for rows.Next() {
		var kind, amount string
		if err := rows.Scan(&kind, &amount); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("journal amount %q: %w", amount, err)
		}
		k := machine.EventKind(kind)
		totals[k] = totals[k].Add(d)
	}
	return totals, rows.Err()
}
