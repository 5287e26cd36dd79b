/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("response not found")

type Response struct {
	ID          string    `json:"id"`
	Person      string    `json:"person"`
	Accepted    bool      `json:"accepted"`
	GiftChoice  string    `json:"giftChoice"`
	CustomGift  string    `json:"customGift"`
	Signature   string    `json:"signature"`
	SubmittedAt time.Time `json:"submittedAt"`
	ReceivedAt  time.Time `json:"receivedAt"`
}

// Responses is the repository for submitted responses.
type Responses struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

func NewResponses(db *sql.DB, driver string) *Responses {
	return &Responses{
		db:     db,
		driver: driver,
		now:    time.Now,
	}
}

// Insert assigns an ID and receive time to r and stores it.
func (s *Responses) Insert(ctx context.Context, r Response) (Response, error) {
	r.ID = uuid.NewString()
	r.ReceivedAt = s.now().UTC()
	r.SubmittedAt = r.SubmittedAt.UTC()

	_, err := s.db.ExecContext(ctx, rebind(s.driver, `
		INSERT INTO response (id, person, accepted, gift_choice, custom_gift, signature, submitted_at, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		r.ID, r.Person, r.Accepted, r.GiftChoice, r.CustomGift, r.Signature, r.SubmittedAt, r.ReceivedAt,
	)
	if err != nil {
		return Response{}, fmt.Errorf("failed to insert response: %w", err)
	}

	return r, nil
}

const selectColumns = `SELECT id, person, accepted, gift_choice, custom_gift, signature, submitted_at, received_at FROM response`

type scanner interface {
	Scan(dest ...any) error
}

func scanResponse(row scanner) (Response, error) {
	var r Response

	err := row.Scan(&r.ID, &r.Person, &r.Accepted, &r.GiftChoice, &r.CustomGift, &r.Signature, &r.SubmittedAt, &r.ReceivedAt)

	return r, err
}

// List returns every response, most recently received first.
func (s *Responses) List(ctx context.Context) ([]Response, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY received_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	responses := []Response{}
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		responses = append(responses, r)
	}

	return responses, rows.Err()
}

func (s *Responses) Get(ctx context.Context, id string) (Response, error) {
	row := s.db.QueryRowContext(ctx, rebind(s.driver, selectColumns+` WHERE id = ?`), id)

	r, err := scanResponse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Response{}, ErrNotFound
	}
	if err != nil {
		return Response{}, fmt.Errorf("failed to get response: %w", err)
	}

	return r, nil
}

func (s *Responses) Count(ctx context.Context) (int, error) {
	var n int

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM response`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}

	return n, nil
}
