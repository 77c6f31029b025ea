package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Customer is one row of the telco dataset shown on the dashboard.
type Customer struct {
	CustomerID    string
	ChurnLabel    string
	Contract      string
	MonthlyCharge float64
	TenureMonths  int
}

// LabelCount is the size of one churn label group.
type LabelCount struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// ContractChurn is the churn rate within one contract type.
type ContractChurn struct {
	Contract  string  `json:"contract"`
	Customers int     `json:"customers"`
	Churned   int     `json:"churned"`
	ChurnRate float64 `json:"churn_rate"`
}

// Store keeps the dashboard dataset in SQLite.
type Store struct {
	database *sql.DB
}

// Open opens (or creates) the SQLite database and its schema.
func Open(path string) (*Store, error) {
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	query := `
    CREATE TABLE IF NOT EXISTS customers (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        customer_id TEXT,
        churn_label TEXT NOT NULL,
        contract TEXT,
        monthly_charge REAL DEFAULT 0,
        tenure_months INTEGER DEFAULT 0
    );
    CREATE INDEX IF NOT EXISTS idx_customers_churn ON customers(churn_label);
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{database: database}, nil
}

func (s *Store) Close() error {
	return s.database.Close()
}

// ReplaceCustomers swaps the stored dataset for customers in one transaction.
func (s *Store) ReplaceCustomers(ctx context.Context, customers []Customer) error {
	tx, err := s.database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM customers`); err != nil {
		tx.Rollback()
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO customers (customer_id, churn_label, contract, monthly_charge, tenure_months)
        VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, c := range customers {
		if _, err := stmt.ExecContext(ctx, c.CustomerID, c.ChurnLabel, c.Contract, c.MonthlyCharge, c.TenureMonths); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ChurnDistribution counts customers per churn label, largest group first.
func (s *Store) ChurnDistribution(ctx context.Context) ([]LabelCount, error) {
	rows, err := s.database.QueryContext(ctx, `
        SELECT churn_label, COUNT(*) AS n
        FROM customers
        GROUP BY churn_label
        ORDER BY n DESC, churn_label ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]LabelCount, 0)
	total := 0
	for rows.Next() {
		var lc LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, err
		}
		total += lc.Count
		counts = append(counts, lc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range counts {
		counts[i].Share = float64(counts[i].Count) / float64(total)
	}
	return counts, nil
}

// ChurnByContract reports the churn rate per contract type. churnedLabel is
// the label value that marks a churned customer.
func (s *Store) ChurnByContract(ctx context.Context, churnedLabel string) ([]ContractChurn, error) {
	if churnedLabel == "" {
		return nil, errors.New("churned label required")
	}
	rows, err := s.database.QueryContext(ctx, `
        SELECT COALESCE(NULLIF(contract, ''), 'Unknown') AS c,
               COUNT(*),
               SUM(CASE WHEN churn_label = ? THEN 1 ELSE 0 END)
        FROM customers
        GROUP BY c
        ORDER BY c ASC`, churnedLabel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ContractChurn, 0)
	for rows.Next() {
		var cc ContractChurn
		if err := rows.Scan(&cc.Contract, &cc.Customers, &cc.Churned); err != nil {
			return nil, err
		}
		if cc.Customers > 0 {
			cc.ChurnRate = float64(cc.Churned) / float64(cc.Customers)
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

// CountCustomers returns the number of stored rows.
func (s *Store) CountCustomers(ctx context.Context) (int, error) {
	var n int
	err := s.database.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&n)
	return n, err
}
