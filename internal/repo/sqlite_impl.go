package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// -- Offers --

func (s *SQLiteStore) CreateOffer(ctx context.Context, offer Offer) (*Offer, error) {
	const q = `
INSERT INTO offers (name, description, payout, geo, vertical, kpi, tracker, antifraud, appsflyer_app_id, event_name, daily_limit)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, created_at;
`
	row := s.db.QueryRowContext(ctx, q,
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

const offerSelectColumns = `id, name, description, payout, geo, vertical, kpi, tracker, antifraud, appsflyer_app_id, event_name, daily_limit, created_at`

func scanOffer(row interface{ Scan(...any) error }) (*Offer, error) {
	var o Offer
	err := row.Scan(&o.ID, &o.Name, &o.Description, &o.Payout, &o.Geo, &o.Vertical, &o.KPI, &o.Tracker, &o.Antifraud, &o.AppsFlyerAppID, &o.EventName, &o.DailyLimit, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *SQLiteStore) ListOffers(ctx context.Context) ([]Offer, error) {
	q := `SELECT ` + offerSelectColumns + ` FROM offers ORDER BY id ASC;`
	rows, err := s.db.QueryContext(ctx, q)
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

func (s *SQLiteStore) GetOffer(ctx context.Context, id int64) (*Offer, error) {
	q := `SELECT ` + offerSelectColumns + ` FROM offers WHERE id = ? LIMIT 1;`
	offer, err := scanOffer(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("offer %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get offer: %w", err)
	}
	return offer, nil
}

func (s *SQLiteStore) UpdateOfferField(ctx context.Context, id int64, column string, value any) (bool, error) {
	if err := checkOfferColumn(column); err != nil {
		return false, err
	}
	q := fmt.Sprintf("UPDATE offers SET %s = ? WHERE id = ?;", column)
	ct, err := s.db.ExecContext(ctx, q, value, id)
	if err != nil {
		return false, fmt.Errorf("update offer field: %w", err)
	}
	n, _ := ct.RowsAffected()
	return n > 0, nil
}

func (s *SQLiteStore) DeleteOffer(ctx context.Context, id int64) (bool, error) {
	ct, err := s.db.ExecContext(ctx, `DELETE FROM offers WHERE id = ?;`, id)
	if err != nil {
		return false, fmt.Errorf("delete offer: %w", err)
	}
	n, _ := ct.RowsAffected()
	return n > 0, nil
}

// -- Traffic sources --

func (s *SQLiteStore) CreateSource(ctx context.Context, src TrafficSource) (*TrafficSource, error) {
	const q = `
INSERT INTO sources (name, conversion, cost, capacity, geo, performance)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, created_at;
`
	row := s.db.QueryRowContext(ctx, q,
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

const sourceSelectColumns = `id, name, conversion, cost, capacity, geo, performance, created_at`

func scanSource(row interface{ Scan(...any) error }) (*TrafficSource, error) {
	var t TrafficSource
	err := row.Scan(&t.ID, &t.Name, &t.Conversion, &t.Cost, &t.Capacity, &t.Geo, &t.Performance, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLiteStore) ListSources(ctx context.Context) ([]TrafficSource, error) {
	q := `SELECT ` + sourceSelectColumns + ` FROM sources ORDER BY id ASC;`
	rows, err := s.db.QueryContext(ctx, q)
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

func (s *SQLiteStore) GetSource(ctx context.Context, id int64) (*TrafficSource, error) {
	q := `SELECT ` + sourceSelectColumns + ` FROM sources WHERE id = ? LIMIT 1;`
	src, err := scanSource(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("source %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get source: %w", err)
	}
	return src, nil
}

func (s *SQLiteStore) UpdateSourceField(ctx context.Context, id int64, column string, value any) (bool, error) {
	if err := checkSourceColumn(column); err != nil {
		return false, err
	}
	q := fmt.Sprintf("UPDATE sources SET %s = ? WHERE id = ?;", column)
	ct, err := s.db.ExecContext(ctx, q, value, id)
	if err != nil {
		return false, fmt.Errorf("update source field: %w", err)
	}
	n, _ := ct.RowsAffected()
	return n > 0, nil
}

func (s *SQLiteStore) DeleteSource(ctx context.Context, id int64) (bool, error) {
	ct, err := s.db.ExecContext(ctx, `DELETE FROM sources WHERE id = ?;`, id)
	if err != nil {
		return false, fmt.Errorf("delete source: %w", err)
	}
	n, _ := ct.RowsAffected()
	return n > 0, nil
}

// -- Users --

func (s *SQLiteStore) CreateUser(ctx context.Context, userID int64, username, role string) error {
	const q = `
INSERT INTO users (user_id, username, role)
VALUES (?, ?, ?)
ON CONFLICT (user_id) DO NOTHING;
`
	if _, err := s.db.ExecContext(ctx, q, userID, strings.TrimPrefix(username, "@"), role); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUserRole(ctx context.Context, userID int64) (string, error) {
	const q = `SELECT role FROM users WHERE user_id = ? LIMIT 1;`
	var role string
	if err := s.db.QueryRowContext(ctx, q, userID).Scan(&role); err != nil {
		if err == sql.ErrNoRows {
			return RolePartner, nil
		}
		return "", fmt.Errorf("get user role: %w", err)
	}
	return role, nil
}

func (s *SQLiteStore) SetUserRole(ctx context.Context, username, role string) (bool, error) {
	const q = `UPDATE users SET role = ? WHERE username = ?;`
	ct, err := s.db.ExecContext(ctx, q, role, strings.TrimPrefix(username, "@"))
	if err != nil {
		return false, fmt.Errorf("set user role: %w", err)
	}
	n, _ := ct.RowsAffected()
	return n > 0, nil
}
