package crm

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSourceNotFound = errors.New("marketing source not found")

// MarketingSource is where a client came from (referral, campaign, walk-in...)
type MarketingSource struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type SourcesRepo struct {
	db *pgxpool.Pool
}

func NewSourcesRepo(db *pgxpool.Pool) *SourcesRepo {
	return &SourcesRepo{
		db: db,
	}
}

func (r *SourcesRepo) Add(ctx context.Context, source *MarketingSource) (*MarketingSource, error) {
	err := r.db.QueryRow(
		ctx,
		`INSERT INTO marketing_source (name) VALUES ($1) RETURNING id;`,
		source.Name,
	).Scan(&source.ID)
	if err != nil {
		return nil, fmt.Errorf("insert marketing source: %w", err)
	}
	return source, nil
}

func (r *SourcesRepo) List(ctx context.Context) ([]MarketingSource, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, name FROM marketing_source ORDER BY name;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []MarketingSource
	for rows.Next() {
		var s MarketingSource
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sources, nil
}
