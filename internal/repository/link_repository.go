package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"snaplink/internal/entities"

	"github.com/lib/pq"
)

// LinkRepository defines the interface for link database operations
type LinkRepository interface {
	// Create inserts a new link. Fails with ErrDuplicateKey if the short
	// code is already present.
	Create(ctx context.Context, link *entities.Link) error
	// FindByCode returns the link for a code, expired rows included until
	// the reaper removes them. Callers check ExpiresAt.
	FindByCode(ctx context.Context, shortCode string) (*entities.Link, error)
	// AppendClick increments the click count and records the click in one
	// transaction. Fails with ErrNotFound if the code is absent.
	AppendClick(ctx context.Context, shortCode string, click *entities.Click) error
	// GetStats returns the link together with its ordered click log.
	GetStats(ctx context.Context, shortCode string) (*entities.Link, []entities.Click, error)
	// DeleteExpired removes links whose expiry has passed and returns the
	// number of rows removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type linkRepository struct {
	db *sql.DB
}

// NewLinkRepository creates a Postgres-backed link repository
func NewLinkRepository(db *sql.DB) LinkRepository {
	return &linkRepository{db: db}
}

// uniqueViolation is the Postgres error code for unique constraint violations
const uniqueViolation = "23505"

func (r *linkRepository) Create(ctx context.Context, link *entities.Link) error {
	query := `
		INSERT INTO links (short_code, original_url, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, click_count
	`

	err := r.db.QueryRowContext(ctx, query,
		link.ShortCode,
		link.OriginalURL,
		link.CreatedAt.UTC(),
		link.ExpiresAt.UTC(),
	).Scan(&link.ID, &link.ClickCount)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

func (r *linkRepository) FindByCode(ctx context.Context, shortCode string) (*entities.Link, error) {
	query := `
		SELECT id, short_code, original_url, click_count, created_at, expires_at
		FROM links
		WHERE short_code = $1
	`

	var link entities.Link
	err := r.db.QueryRowContext(ctx, query, shortCode).Scan(
		&link.ID,
		&link.ShortCode,
		&link.OriginalURL,
		&link.ClickCount,
		&link.CreatedAt,
		&link.ExpiresAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find link: %w", err)
	}

	return &link, nil
}

// AppendClick runs the counter update and the click insert in one
// transaction so the count can never drift from the log length.
func (r *linkRepository) AppendClick(ctx context.Context, shortCode string, click *entities.Click) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var linkID string
	err = tx.QueryRowContext(ctx, `
		UPDATE links
		SET click_count = click_count + 1
		WHERE short_code = $1
		RETURNING id
	`, shortCode).Scan(&linkID)

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to increment click count: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO link_clicks (link_id, clicked_at, referrer, ip_address, location)
		VALUES ($1, $2, $3, $4, $5)
	`, linkID, click.ClickedAt.UTC(), click.Referrer, click.IPAddress, click.Location)
	if err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit click: %w", err)
	}

	click.LinkID = linkID
	return nil
}

func (r *linkRepository) GetStats(ctx context.Context, shortCode string) (*entities.Link, []entities.Click, error) {
	link, err := r.FindByCode(ctx, shortCode)
	if err != nil {
		return nil, nil, err
	}

	query := `
		SELECT id, link_id, clicked_at, referrer, ip_address, location
		FROM link_clicks
		WHERE link_id = $1
		ORDER BY clicked_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, link.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get clicks: %w", err)
	}
	defer rows.Close()

	var clicks []entities.Click
	for rows.Next() {
		var click entities.Click
		err := rows.Scan(
			&click.ID,
			&click.LinkID,
			&click.ClickedAt,
			&click.Referrer,
			&click.IPAddress,
			&click.Location,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan click: %w", err)
		}
		clicks = append(clicks, click)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating clicks: %w", err)
	}

	return link, clicks, nil
}

func (r *linkRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM links WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired links: %w", err)
	}

	return result.RowsAffected()
}
