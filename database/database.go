package database

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/lib/pq"
)

var ErrNotFound = errors.New("record not found")

type DB struct {
	sqlDB *sql.DB
}

func NewDB(dbURL string) (*DB, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

func (db *DB) GetSQLDB() *sql.DB {
	return db.sqlDB
}

func (db *DB) Ping(ctx context.Context) error {
	return db.sqlDB.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.sqlDB.Close()
}

// EnsureSchema creates the cap override table when it is missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.GetSQLDB().ExecContext(
		ctx,
		`
			CREATE TABLE IF NOT EXISTS deduction_caps (
				ruleset    TEXT NOT NULL,
				category   TEXT NOT NULL,
				max_amount NUMERIC(14, 2) NOT NULL CHECK (max_amount >= 0),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				PRIMARY KEY (ruleset, category)
			)
		`)

	return err
}

func (db *DB) FindAllDeductionCaps(ctx context.Context, ruleset string) ([]DeductionCap, error) {
	var results []DeductionCap

	rows, err := db.GetSQLDB().QueryContext(
		ctx,
		`
			SELECT category, max_amount FROM deduction_caps WHERE ruleset = $1 ORDER BY category
		`, ruleset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			category  string
			maxAmount float64
		)

		err = rows.Scan(&category, &maxAmount)
		if err != nil {
			return nil, err
		}

		results = append(results, DeductionCap{
			Ruleset:   ruleset,
			Category:  category,
			MaxAmount: maxAmount,
		})
	}

	return results, rows.Err()
}

func (db *DB) UpdateDeductionCap(ctx context.Context, ruleset, category string, maxAmount float64) (DeductionCap, error) {
	var result DeductionCap

	err := db.GetSQLDB().QueryRowContext(
		ctx,
		`
			INSERT INTO deduction_caps (ruleset, category, max_amount)
			VALUES ($1, $2, $3)
			ON CONFLICT (ruleset, category)
			DO UPDATE SET max_amount = EXCLUDED.max_amount, updated_at = now()
			RETURNING ruleset, category, max_amount
		`, ruleset, category, maxAmount).Scan(&result.Ruleset, &result.Category, &result.MaxAmount)
	if err != nil {
		return DeductionCap{}, err
	}

	return result, nil
}

func (db *DB) DeleteDeductionCap(ctx context.Context, ruleset, category string) error {
	res, err := db.GetSQLDB().ExecContext(
		ctx,
		`
			DELETE FROM deduction_caps WHERE ruleset = $1 AND category = $2
		`, ruleset, category)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

type DeductionCap struct {
	Ruleset   string  `db:"ruleset" json:"ruleset"`
	Category  string  `db:"category" json:"category"`
	MaxAmount float64 `db:"max_amount" json:"max_amount"`
}

// Caps converts overrides to the map accepted by ruleset.WithCaps.
func Caps(overrides []DeductionCap) map[string]float64 {
	caps := make(map[string]float64, len(overrides))
	for _, o := range overrides {
		caps[o.Category] = o.MaxAmount
	}

	return caps
}
