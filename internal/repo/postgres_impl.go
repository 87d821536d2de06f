package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// -- Offers --

func (s *PostgresStore) CreateOffer(ctx context.Context, offer Offer) (*Offer, error) {
	const q = `
INSERT INTO offers (name, description, payout, geo, vertical, kpi, tracker, antifraud, appsflyer_app_id, event_name, daily_limit)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id, created_at;
`
	row := s.pool.QueryRow(ctx, q,
		offer.Name,
		offer.Description,
		offer.Payout,
		offer.Geo,
		offer.Vertical,
		offer.KPI,
		offer.Tracker,
		offer.Antifraud,
		offer.AppsFlyerAppID,
		offer.EventName,
		offer.DailyLimit,
	)
	if err := row.Scan(&offer.ID, &offer.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert offer: %w", err)
	}
	return &offer, nil
}

func (s *PostgresStore) ListOffers(ctx context.Context) ([]Offer, error) {
	q := `SELECT ` + offerSelectColumns + ` FROM offers ORDER BY id ASC;`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	var offers []Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offers: %w", err)
	}
	return offers, nil
}

func (s *PostgresStore) GetOffer(ctx context.Context, id int64) (*Offer, error) {
	q := `SELECT ` + offerSelectColumns + ` FROM offers WHERE id = $1 LIMIT 1;`
	offer, err := scanOffer(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("offer %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get offer: %w", err)
	}
	return offer, nil
}

func (s *PostgresStore) UpdateOfferField(ctx context.Context, id int64, column string, value any) (bool, error) {
	if err := checkOfferColumn(column); err != nil {
		return false, err
	}
	q := fmt.Sprintf("UPDATE offers SET %s = $1 WHERE id = $2;", column)
	ct, err := s.pool.Exec(ctx, q, value, id)
	if err != nil {
		return false, fmt.Errorf("update offer field: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (s *PostgresStore) DeleteOffer(ctx context.Context, id int64) (bool, error) {
	ct, err := s.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1;`, id)
	if err != nil {
		return false, fmt.Errorf("delete offer: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// -- Traffic sources --

func (s *PostgresStore) CreateSource(ctx context.Context, src TrafficSource) (*TrafficSource, error) {
	const q = `
INSERT INTO sources (name, conversion, cost, capacity, geo, performance)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at;
`
	row := s.pool.QueryRow(ctx, q,
		src.Name,
		src.Conversion,
		src.Cost,
		src.Capacity,
		src.Geo,
		src.Performance,
	)
	if err := row.Scan(&src.ID, &src.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert source: %w", err)
	}
	return &src, nil
}

func (s *PostgresStore) ListSources(ctx context.Context) ([]TrafficSource, error) {
	q := `SELECT ` + sourceSelectColumns + ` FROM sources ORDER BY id ASC;`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []TrafficSource
	for rows.Next() {
		t, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return sources, nil
}

func (s *PostgresStore) GetSource(ctx context.Context, id int64) (*TrafficSource, error) {
	q := `SELECT ` + sourceSelectColumns + ` FROM sources WHERE id = $1 LIMIT 1;`
	src, err := scanSource(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("source %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get source: %w", err)
	}
	return src, nil
}

func (s *PostgresStore) UpdateSourceField(ctx context.Context, id int64, column string, value any) (bool, error) {
	if err := checkSourceColumn(column); err != nil {
		return false, err
	}
	q := fmt.Sprintf("UPDATE sources SET %s = $1 WHERE id = $2;", column)
	ct, err := s.pool.Exec(ctx, q, value, id)
	if err != nil {
		return false, fmt.Errorf("update source field: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (s *PostgresStore) DeleteSource(ctx context.Context, id int64) (bool, error) {
	ct, err := s.pool.Exec(ctx, `DELETE FROM sources WHERE id = $1;`, id)
	if err != nil {
		return false, fmt.Errorf("delete source: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// -- Users --

func (s *PostgresStore) CreateUser(ctx context.Context, userID int64, username, role string) error {
	const q = `
INSERT INTO users (user_id, username, role)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO NOTHING;
`
	if _, err := s.pool.Exec(ctx, q, userID, strings.TrimPrefix(username, "@"), role); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserRole(ctx context.Context, userID int64) (string, error) {
	const q = `SELECT role FROM users WHERE user_id = $1 LIMIT 1;`
	var role string
	if err := s.pool.QueryRow(ctx, q, userID).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RolePartner, nil
		}
		return "", fmt.Errorf("get user role: %w", err)
	}
	return role, nil
}

func (s *PostgresStore) SetUserRole(ctx context.Context, username, role string) (bool, error) {
	const q = `UPDATE users SET role = $1 WHERE username = $2;`
	ct, err := s.pool.Exec(ctx, q, role, strings.TrimPrefix(username, "@"))
	if err != nil {
		return false, fmt.Errorf("set user role: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}
