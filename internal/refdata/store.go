package refdata

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store is the SQLite database of historical yield and price records.
// The engine never queries it directly: LoadHistory reads it once into an
// immutable snapshot.
type Store struct {
	conn *sqlx.DB
}

// OpenStore opens or creates a SQLite database at the given path.
func OpenStore(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	st := &Store{conn: conn}
	if err := st.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return st, nil
}

// Close closes the database connection.
func (st *Store) Close() error {
	return st.conn.Close()
}

func (st *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS yield_history (
		crop TEXT NOT NULL,
		season TEXT NOT NULL,
		year INTEGER NOT NULL,
		yield_kg_ha REAL NOT NULL,
		PRIMARY KEY (crop, season, year)
	);

	CREATE TABLE IF NOT EXISTS price_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		commodity TEXT NOT NULL,
		arrival_date TEXT NOT NULL,
		min_price REAL NOT NULL,
		max_price REAL NOT NULL,
		modal_price REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_price_commodity_date ON price_history(commodity, arrival_date);
	`
	_, err := st.conn.Exec(schema)
	return err
}

// SaveYields writes yield records (full replace).
func (st *Store) SaveYields(rows []YieldPoint) error {
	tx, err := st.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM yield_history"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO yield_history
		(crop, season, year, yield_kg_ha) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, y := range rows {
		if _, err := stmt.Exec(y.Crop, y.Season, y.Year, y.YieldKgHa); err != nil {
			return fmt.Errorf("insert yield %s/%s/%d: %w", y.Crop, y.Season, y.Year, err)
		}
	}

	return tx.Commit()
}

// SavePrices writes price records (full replace).
func (st *Store) SavePrices(rows []PricePoint) error {
	tx, err := st.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM price_history"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO price_history
		(commodity, arrival_date, min_price, max_price, modal_price)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range rows {
		_, err := stmt.Exec(p.Commodity, p.ArrivalDate.Format(DateLayout), p.MinPrice, p.MaxPrice, p.ModalPrice)
		if err != nil {
			return fmt.Errorf("insert price %s %s: %w", p.Commodity, p.ArrivalDate.Format(DateLayout), err)
		}
	}

	return tx.Commit()
}

// LoadYields reads every yield record.
func (st *Store) LoadYields() ([]YieldPoint, error) {
	var rows []YieldPoint
	err := st.conn.Select(&rows,
		"SELECT crop, season, year, yield_kg_ha FROM yield_history ORDER BY crop, year")
	return rows, err
}

type priceRow struct {
	Commodity   string  `db:"commodity"`
	ArrivalDate string  `db:"arrival_date"`
	MinPrice    float64 `db:"min_price"`
	MaxPrice    float64 `db:"max_price"`
	ModalPrice  float64 `db:"modal_price"`
}

// LoadPrices reads every price record. Rows with unparseable dates are
// skipped and logged rather than failing the load.
func (st *Store) LoadPrices() ([]PricePoint, error) {
	var rows []priceRow
	err := st.conn.Select(&rows,
		"SELECT commodity, arrival_date, min_price, max_price, modal_price FROM price_history ORDER BY arrival_date, id")
	if err != nil {
		return nil, err
	}

	out := make([]PricePoint, 0, len(rows))
	skipped := 0
	for _, r := range rows {
		d, err := time.Parse(DateLayout, r.ArrivalDate)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, PricePoint{
			Commodity:   r.Commodity,
			ArrivalDate: d,
			MinPrice:    r.MinPrice,
			MaxPrice:    r.MaxPrice,
			ModalPrice:  r.ModalPrice,
		})
	}
	if skipped > 0 {
		slog.Warn("skipped price rows with bad dates", "count", skipped)
	}
	return out, nil
}

// LoadHistory reads the whole database into an immutable snapshot.
// Returns ErrNoHistory alongside an empty snapshot when the tables are empty.
func (st *Store) LoadHistory() (*History, error) {
	yields, err := st.LoadYields()
	if err != nil {
		return nil, fmt.Errorf("load yields: %w", err)
	}
	prices, err := st.LoadPrices()
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}

	h := NewHistory(yields, prices)
	if h.Empty() {
		return h, ErrNoHistory
	}
	slog.Debug("history snapshot built", "yields", len(yields), "prices", len(prices))
	return h, nil
}
