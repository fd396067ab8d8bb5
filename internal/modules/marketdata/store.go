// Package marketdata is the data collaborator at the engine boundary:
// a SQLite-backed daily price store plus a TTL cache for aligned price
// tables. The engine itself never fetches market data; operators load
// price history through the store and the risk handlers read from it.
package marketdata

import (
	"database/sql"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/aristath/riskcalc/internal/modules/returns"
)

// DailyPrice is one closing price observation.
type DailyPrice struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Close float64 `json:"close"`
}

// PriceTable is an aligned price matrix: every symbol has one price per
// date, gaps already filled. It is the input to returns.NewFromPrices.
type PriceTable struct {
	Symbols []string             `msgpack:"symbols" json:"symbols"`
	Dates   []string             `msgpack:"dates" json:"dates"`
	Prices  map[string][]float64 `msgpack:"prices" json:"prices"`
}

// Store provides access to historical daily prices.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore creates a price store over an open database connection.
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("component", "price_store").Logger(),
	}
}

// Init creates the daily_prices table if it does not exist.
func (s *Store) Init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_prices (
			symbol TEXT NOT NULL,
			date   TEXT NOT NULL,
			close  REAL NOT NULL,
			PRIMARY KEY (symbol, date)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create daily_prices table: %w", err)
	}
	return nil
}

// SavePrices upserts price observations for a symbol.
func (s *Store) SavePrices(symbol string, prices []DailyPrice) error {
	if symbol == "" {
		return fmt.Errorf("%w: empty symbol", domain.ErrInvalidParameter)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (symbol, date, close)
		VALUES (?, ?, ?)
		ON CONFLICT (symbol, date) DO UPDATE SET close = excluded.close
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range prices {
		if p.Close <= 0 {
			return fmt.Errorf("%w: non-positive price %v for %s on %s", domain.ErrInvalidParameter, p.Close, symbol, p.Date)
		}
		if _, err := stmt.Exec(symbol, p.Date, p.Close); err != nil {
			return fmt.Errorf("failed to insert price for %s: %w", symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit prices for %s: %w", symbol, err)
	}

	s.log.Debug().Str("symbol", symbol).Int("count", len(prices)).Msg("Saved daily prices")
	return nil
}

// GetPrices fetches prices for a symbol within [startDate, endDate],
// ordered by date ascending. Empty bounds mean unbounded.
func (s *Store) GetPrices(symbol, startDate, endDate string) ([]DailyPrice, error) {
	query := `SELECT date, close FROM daily_prices WHERE symbol = ?`
	args := []interface{}{symbol}
	if startDate != "" {
		query += ` AND date >= ?`
		args = append(args, startDate)
	}
	if endDate != "" {
		query += ` AND date <= ?`
		args = append(args, endDate)
	}
	query += ` ORDER BY date ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var prices []DailyPrice
	for rows.Next() {
		var p DailyPrice
		if err := rows.Scan(&p.Date, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	return prices, nil
}

// GetPriceTable builds an aligned price table for a symbol list and date
// range. Dates are the sorted union of the symbols' trading dates;
// missing observations are forward-filled and back-filled. A symbol with
// no data in the range fails the whole request.
func (s *Store) GetPriceTable(symbols []string, startDate, endDate string) (*PriceTable, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: no symbols provided", domain.ErrInvalidParameter)
	}

	pricesBySymbol := make(map[string]map[string]float64, len(symbols))
	dateSet := make(map[string]bool)

	for _, symbol := range symbols {
		prices, err := s.GetPrices(symbol, startDate, endDate)
		if err != nil {
			return nil, err
		}
		if len(prices) == 0 {
			return nil, fmt.Errorf("%w: no price history for symbol %s", domain.ErrInsufficientData, symbol)
		}

		byDate := make(map[string]float64, len(prices))
		for _, p := range prices {
			byDate[p.Date] = p.Close
			dateSet[p.Date] = true
		}
		pricesBySymbol[symbol] = byDate
	}

	dates := make([]string, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	missing := 0
	table := &PriceTable{
		Symbols: append([]string(nil), symbols...),
		Dates:   dates,
		Prices:  make(map[string][]float64, len(symbols)),
	}
	for _, symbol := range symbols {
		px := make([]float64, len(dates))
		for i, date := range dates {
			if price, ok := pricesBySymbol[symbol][date]; ok {
				px[i] = price
			} else {
				px[i] = math.NaN()
				missing++
			}
		}
		table.Prices[symbol] = returns.FillMissing(px)
	}

	if missing > 0 {
		s.log.Warn().
			Int("missing_data_points", missing).
			Int("num_dates", len(dates)).
			Msg("Filled missing price data")
	}

	return table, nil
}
