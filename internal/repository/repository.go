// Package repository implements event catalog storage.
// The PostgreSQL implementation uses pgx directly (no ORM).
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/ticket-storefront/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested event does not exist.
var ErrNotFound = model.ErrNotFound

// EventRepository reads and writes the event catalog in PostgreSQL.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, name, location, date_display, time_display, poster_path, organizer_name`

// Create inserts an event with its categories in one transaction. Category
// order is kept through the position column.
func (r *EventRepository) Create(ctx context.Context, e model.Event) (err error) {
	if err := e.Validate(); err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.Name, e.Location, e.DateDisplay, e.TimeDisplay, e.PosterPath, e.OrganizerName,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	for i, c := range e.Categories {
		_, err = tx.Exec(ctx,
			`INSERT INTO ticket_categories
			   (event_id, id, position, name, price, description, max_quantity, availability)
			 VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)`,
			e.ID, c.ID, i, c.Name, c.Price.String(), c.Description, c.MaxQuantity, string(c.Availability),
		)
		if err != nil {
			return fmt.Errorf("insert category %s: %w", c.ID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// List returns every event with its categories in insertion order.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events
		 ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	index := make(map[string]int)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		index[e.ID] = len(events)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	cats, err := r.db.Query(ctx,
		`SELECT event_id, id, name, price::text, description, max_quantity, availability
		 FROM ticket_categories
		 ORDER BY event_id, position`,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer cats.Close()

	for cats.Next() {
		eventID, c, err := scanCategory(cats)
		if err != nil {
			return nil, err
		}
		if i, ok := index[eventID]; ok {
			events[i].Categories = append(events[i].Categories, c)
		}
	}
	return events, cats.Err()
}

// GetByID returns a single event with its categories or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT event_id, id, name, price::text, description, max_quantity, availability
		 FROM ticket_categories
		 WHERE event_id = $1
		 ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		_, c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		e.Categories = append(e.Categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}
	return &e, nil
}

// Count returns the number of stored events.
func (r *EventRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// Seed inserts events when the catalog is empty and reports how many were added.
func (r *EventRepository) Seed(ctx context.Context, events []model.Event) (int, error) {
	n, err := r.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for _, e := range events {
		if err := r.Create(ctx, e); err != nil {
			return 0, fmt.Errorf("seed %s: %w", e.ID, err)
		}
	}
	return len(events), nil
}

func scanEvent(row pgx.Row) (model.Event, error) {
	var e model.Event
	if err := row.Scan(&e.ID, &e.Name, &e.Location, &e.DateDisplay, &e.TimeDisplay, &e.PosterPath, &e.OrganizerName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("scan event: %w", err)
	}
	return e, nil
}

func scanCategory(row pgx.Row) (string, model.TicketCategory, error) {
	var (
		eventID, price, availability string
		c                            model.TicketCategory
	)
	if err := row.Scan(&eventID, &c.ID, &c.Name, &price, &c.Description, &c.MaxQuantity, &availability); err != nil {
		return "", c, fmt.Errorf("scan category: %w", err)
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return "", c, fmt.Errorf("parse price of %s: %w", c.ID, err)
	}
	c.Price = p
	c.Availability = model.Availability(availability)
	return eventID, c, nil
}
