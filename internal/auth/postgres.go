package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo reads and administers credentials in postgres. The login flow only
// ever calls FindByUsername; the rest backs the user management tooling.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) FindByUsername(ctx context.Context, username string) (*Credential, error) {
	var c Credential
	err := r.db.QueryRow(
		ctx,
		`SELECT id, username, name, password_hash, is_active, role, created_at
			FROM credential
			WHERE username = $1;`,
		username,
	).Scan(&c.ID, &c.Username, &c.Name, &c.PasswordHash, &c.IsActive, &c.Role, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repo) Add(ctx context.Context, c *Credential) (*Credential, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	err := r.db.QueryRow(
		ctx,
		`INSERT INTO credential
				(username, name, password_hash, is_active, role, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id;`,
		c.Username, c.Name, c.PasswordHash, c.IsActive, c.Role, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("insert credential: %w", err)
	}

	return c, nil
}

func (r *Repo) List(ctx context.Context) ([]Credential, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, username, name, password_hash, is_active, role, created_at
			FROM credential
			ORDER BY username;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var credentials []Credential
	for rows.Next() {
		var c Credential
		if err := rows.Scan(
			&c.ID, &c.Username, &c.Name, &c.PasswordHash, &c.IsActive, &c.Role, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		credentials = append(credentials, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return credentials, nil
}

func (r *Repo) SetActive(ctx context.Context, username string, active bool) error {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE credential SET is_active = $1 WHERE username = $2;`,
		active, username,
	)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCredentialNotFound
	}
	return nil
}
