package crm

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Transaction is a single money movement on a client's record. The history
// is read-only here, transactions are written by the POS integration.
type Transaction struct {
	ID         int       `json:"id"`
	ClientID   int       `json:"clientId"`
	AmountCent int64     `json:"amountCent"`
	Currency   string    `json:"currency"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"createdAt"`
}

type TransactionsRepo struct {
	db *pgxpool.Pool
}

func NewTransactionsRepo(db *pgxpool.Pool) *TransactionsRepo {
	return &TransactionsRepo{
		db: db,
	}
}

func (r *TransactionsRepo) ListForClient(
	ctx context.Context,
	clientID int,
	params ListParams,
) (_ []Transaction, total int, err error) {
	if err := r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM transaction WHERE client_id = $1;`,
		clientID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT id, client_id, amount_cent, currency, note, created_at
			FROM transaction
			WHERE client_id = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3;`,
		clientID, params.Limit, params.Offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(
			&tx.ID, &tx.ClientID, &tx.AmountCent, &tx.Currency, &tx.Note, &tx.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("rows scan: %w", err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}
