// Package store persists the scraped listing set and its notified flags.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"funda-listing-notifier/db"
)

// Listing is one scraped entry, identified by its URL. Rows are never
// deleted; only the notified flag and last_updated_at change.
type Listing struct {
	URL           string    `db:"url" json:"url"`
	Notified      bool      `db:"notified" json:"notified"`
	FirstSeenAt   time.Time `db:"first_seen_at" json:"first_seen_at"`
	LastUpdatedAt time.Time `db:"last_updated_at" json:"last_updated_at"`
}

// Error wraps a storage fault with the operation that produced it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

type ListingStore struct {
	conn      *sqlx.DB
	logger    *zap.SugaredLogger
	validator *validator.Validate
}

type NewListingStoreParams struct {
	fx.In

	Conn   *sqlx.DB
	Logger *zap.SugaredLogger
}

func NewListingStore(p NewListingStoreParams) *ListingStore {
	return &ListingStore{
		conn:      p.Conn,
		logger:    p.Logger,
		validator: validator.New(),
	}
}

// Stage appends raw URLs to the staging buffer. No dedup happens here;
// Merge owns the set-difference against the durable table.
func (s *ListingStore) Stage(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	if err := s.validator.Var(urls, "dive,required"); err != nil {
		return &Error{Op: "stage", Err: fmt.Errorf("validate urls: %w", err)}
	}

	_, err := db.Tx(ctx, s.conn, func(tx *sqlx.Tx) (struct{}, error) {
		q := tx.Rebind(`INSERT INTO listings_staging (url) VALUES (?)`)
		for _, u := range urls {
			if _, err := tx.ExecContext(ctx, q, u); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return &Error{Op: "stage", Err: err}
	}

	s.logger.Infow("listings_staged", "count", len(urls))
	return nil
}

// Merge inserts every staged URL not already present into listings with
// notified=false and fresh timestamps, then clears the staging buffer.
// Pre-existing rows are left untouched. Returns the number of genuinely
// new rows.
func (s *ListingStore) Merge(ctx context.Context) (int, error) {
	inserted, err := db.Tx(ctx, s.conn, func(tx *sqlx.Tx) (int64, error) {
		res, err := tx.ExecContext(ctx, `
INSERT INTO listings (url, notified, first_seen_at, last_updated_at)
SELECT DISTINCT
    url,
    FALSE,
    CURRENT_TIMESTAMP,
    CURRENT_TIMESTAMP
FROM listings_staging
WHERE url NOT IN (SELECT url FROM listings)
`)
		if err != nil {
			return 0, fmt.Errorf("merge staging into listings: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM listings_staging`); err != nil {
			return 0, fmt.Errorf("clear staging: %w", err)
		}
		return n, nil
	})
	if err != nil {
		return 0, &Error{Op: "merge", Err: err}
	}

	s.logger.Infow("listings_merged", "inserted", inserted)
	return int(inserted), nil
}

// Unnotified returns every URL that has not been emailed yet.
func (s *ListingStore) Unnotified(ctx context.Context) ([]string, error) {
	var urls []string
	err := s.conn.SelectContext(ctx, &urls, `
SELECT url FROM listings WHERE notified = FALSE ORDER BY first_seen_at, url
`)
	if err != nil {
		return nil, &Error{Op: "unnotified", Err: err}
	}
	return urls, nil
}

// MarkAllNotified flips every unnotified row in one batch and bumps its
// last_updated_at. Called only after a successful send, so a crash or a
// failed send leaves rows unnotified and they are retried next cycle.
func (s *ListingStore) MarkAllNotified(ctx context.Context) (int, error) {
	res, err := s.conn.ExecContext(ctx, `
UPDATE listings
SET notified = TRUE, last_updated_at = CURRENT_TIMESTAMP
WHERE notified = FALSE
`)
	if err != nil {
		return 0, &Error{Op: "mark_notified", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &Error{Op: "mark_notified", Err: err}
	}

	s.logger.Infow("listings_marked_notified", "count", n)
	return int(n), nil
}

// List returns listings for the status API, optionally filtered on the
// notified flag.
func (s *ListingStore) List(ctx context.Context, notified *bool) ([]Listing, error) {
	q := `SELECT url, notified, first_seen_at, last_updated_at FROM listings`
	switch {
	case notified == nil:
	case *notified:
		q += ` WHERE notified = TRUE`
	default:
		q += ` WHERE notified = FALSE`
	}
	q += ` ORDER BY first_seen_at, url`

	var out []Listing
	if err := s.conn.SelectContext(ctx, &out, q); err != nil {
		return nil, &Error{Op: "list", Err: err}
	}
	return out, nil
}
