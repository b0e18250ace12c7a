package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionwheel/go/internal/models"
)

const selectPlayers = `
	SELECT name, position, base_price
	FROM auction_players
	ORDER BY name
`

// PostgresSource reads the catalog from the auction_players table
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource returns a Source backed by pool
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// Load implements Source
func (s *PostgresSource) Load(ctx context.Context) ([]models.Item, error) {
	rows, err := s.pool.Query(ctx, selectPlayers)
	if err != nil {
		return nil, fmt.Errorf("failed to query auction_players: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		var price int32
		if err := rows.Scan(&item.Name, &item.Category, &price); err != nil {
			return nil, fmt.Errorf("failed to scan auction_players row: %w", err)
		}
		item.BasePrice = int(price)
		if err := Validate(item); err != nil {
			log.Warn().Err(err).Msg("skipping invalid catalog row")
			continue
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read auction_players: %w", err)
	}
	return items, nil
}
