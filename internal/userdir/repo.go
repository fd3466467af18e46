package userdir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("user not found")

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgx ping: %w", err)
	}
	slog.Info("user directory connected")
	return pool, nil
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureUser returns the directory record for an identity, creating it
// with the default worker role on first sight.
func (r *Repository) EnsureUser(ctx context.Context, phone string) (*User, error) {
	const query = `
	INSERT INTO users (phone) VALUES ($1)
	ON CONFLICT (phone) DO UPDATE SET phone = EXCLUDED.phone
	RETURNING id, phone, role, markets, created_at;`

	return r.scanUser(r.pool.QueryRow(ctx, query, phone))
}

// Workers lists every record with the worker role, assigned markets
// included.
func (r *Repository) Workers(ctx context.Context) ([]User, error) {
	const query = `
	SELECT id, phone, role, markets, created_at FROM users
	WHERE role = $1 ORDER BY id;`

	rows, err := r.pool.Query(ctx, query, RoleWorker)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	return users, nil
}

// AssignMarkets replaces a user's assigned work locations.
func (r *Repository) AssignMarkets(ctx context.Context, userID int64, markets []Market) (*User, error) {
	payload, err := json.Marshal(markets)
	if err != nil {
		return nil, fmt.Errorf("marshal markets: %w", err)
	}

	const query = `
	UPDATE users SET markets = $2::jsonb WHERE id = $1
	RETURNING id, phone, role, markets, created_at;`

	u, err := r.scanUser(r.pool.QueryRow(ctx, query, userID, string(payload)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// MakeAdmin promotes an existing record to the admin role.
func (r *Repository) MakeAdmin(ctx context.Context, phone string) (*User, error) {
	const query = `
	UPDATE users SET role = $2 WHERE phone = $1
	RETURNING id, phone, role, markets, created_at;`

	u, err := r.scanUser(r.pool.QueryRow(ctx, query, phone, RoleAdmin))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (r *Repository) scanUser(row pgx.Row) (*User, error) {
	var u User
	var markets []byte
	if err := row.Scan(&u.ID, &u.Phone, &u.Role, &markets, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if len(markets) > 0 {
		if err := json.Unmarshal(markets, &u.Markets); err != nil {
			return nil, fmt.Errorf("decode markets: %w", err)
		}
	}
	return &u, nil
}
