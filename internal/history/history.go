// internal/history/history.go

// Package history keeps an append-only log of order lifecycle events with
// optimistic concurrency, so every status an order ever held can be read
// back in sequence.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrVersionConflict = errors.New("version conflict: order event log moved")

// Event is one recorded lifecycle change for an order.
type Event struct {
	ID        int64           `json:"id"`
	OrderID   uuid.UUID       `json:"orderId"`
	EventType string          `json:"eventType"`
	EventData json.RawMessage `json:"eventData,omitempty"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Event types recorded by the order lifecycle.
const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderPaid      = "OrderPaid"
	EventOrderShipped   = "OrderShipped"
	EventOrderDelivered = "OrderDelivered"
	EventOrderCancelled = "OrderCancelled"
)

// Log is the order event journal.
type Log struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewLog(db *sql.DB) *Log {
	return &Log{
		db:     db,
		tracer: otel.Tracer("bookcourier/history"),
	}
}

// Append records one event at expectedVersion+1, failing if another writer
// got there first.
func (l *Log) Append(ctx context.Context, orderID uuid.UUID, expectedVersion int, eventType string, data interface{}) error {
	ctx, span := l.tracer.Start(ctx, "history.append",
		trace.WithAttributes(
			attribute.String("order.id", orderID.String()),
			attribute.String("event.type", eventType),
			attribute.Int("expected.version", expectedVersion),
		),
	)
	defer span.End()

	var eventData []byte
	if data != nil {
		var err error
		eventData, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal event data: %w", err)
		}
	}

	tx, err := l.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var currentVersion int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0)
		FROM order_events
		WHERE order_id = $1
	`, orderID).Scan(&currentVersion)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("query current version: %w", err)
	}

	if currentVersion != expectedVersion {
		span.SetAttributes(
			attribute.Int("actual.version", currentVersion),
			attribute.Bool("conflict.detected", true),
		)
		return ErrVersionConflict
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_events (order_id, event_type, event_data, version, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, orderID, eventType, eventData, expectedVersion+1, time.Now().UTC())
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrVersionConflict
		}
		return fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	span.SetAttributes(attribute.Bool("append.success", true))
	return nil
}

// Events returns an order's recorded events in version order.
func (l *Log) Events(ctx context.Context, orderID uuid.UUID) ([]Event, error) {
	ctx, span := l.tracer.Start(ctx, "history.load",
		trace.WithAttributes(attribute.String("order.id", orderID.String())),
	)
	defer span.End()

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, order_id, event_type, event_data, version, created_at
		FROM order_events
		WHERE order_id = $1
		ORDER BY version ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(&event.ID, &event.OrderID, &event.EventType, &event.EventData, &event.Version, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	span.SetAttributes(attribute.Int("events.loaded", len(events)))
	return events, nil
}

// CurrentVersion returns the latest recorded version for an order.
func (l *Log) CurrentVersion(ctx context.Context, orderID uuid.UUID) (int, error) {
	var version int
	err := l.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0)
		FROM order_events
		WHERE order_id = $1
	`, orderID).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("query version: %w", err)
	}
	return version, nil
}
