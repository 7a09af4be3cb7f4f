package domain

import "time"

// Transaction - one ledger row per balance change, written in the same database
// transaction as the change itself
type Transaction struct {
	ID        string                 `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Type      string                 `db:"type" json:"type"`
	Amount    float64                `db:"amount" json:"amount"`
	Meta      map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// TransactionFromCredit builds the ledger row for a credit.
func TransactionFromCredit(id string, userID int64, c Credit, at time.Time) *Transaction {
	return &Transaction{
		ID:        id,
		UserID:    userID,
		Type:      c.Source,
		Amount:    c.Amount,
		Meta:      c.Meta,
		CreatedAt: at,
	}
}
