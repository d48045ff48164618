package crm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrClientNotFound = errors.New("client not found")

type Client struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	SourceID  int       `json:"sourceId"`
	CreatedAt time.Time `json:"createdAt"`
}

type ListParams struct {
	Limit  int
	Offset int
}

// clients without a known marketing source carry a NULL source_id
func nullableSourceID(sourceID int) any {
	if sourceID == 0 {
		return nil
	}
	return sourceID
}

type ClientsRepo struct {
	db *pgxpool.Pool
}

func NewClientsRepo(db *pgxpool.Pool) *ClientsRepo {
	return &ClientsRepo{
		db: db,
	}
}

func (r *ClientsRepo) Add(ctx context.Context, client *Client) (*Client, error) {
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now()
	}

	err := r.db.QueryRow(
		ctx,
		`INSERT INTO client
				(name, phone, source_id, created_at)
				VALUES ($1, $2, $3, $4)
			RETURNING id;`,
		client.Name, client.Phone, nullableSourceID(client.SourceID), client.CreatedAt,
	).Scan(&client.ID)
	if err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}

	return client, nil
}

func (r *ClientsRepo) Get(ctx context.Context, id int) (*Client, error) {
	var c Client
	err := r.db.QueryRow(
		ctx,
		`SELECT id, name, phone, COALESCE(source_id, 0), created_at
			FROM client
			WHERE id = $1;`,
		id,
	).Scan(&c.ID, &c.Name, &c.Phone, &c.SourceID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ClientsRepo) List(ctx context.Context, params ListParams) (_ []Client, total int, err error) {
	if err := r.db.QueryRow(
		ctx, `SELECT COUNT(*) FROM client;`,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, phone, COALESCE(source_id, 0), created_at
			FROM client
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2;`,
		params.Limit, params.Offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.SourceID, &c.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("rows scan: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return clients, total, nil
}

func (r *ClientsRepo) Update(ctx context.Context, client *Client) error {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE client SET name = $1, phone = $2, source_id = $3 WHERE id = $4;`,
		client.Name, client.Phone, nullableSourceID(client.SourceID), client.ID,
	)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

func (r *ClientsRepo) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM client WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}
