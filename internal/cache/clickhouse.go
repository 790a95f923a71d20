package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/pulsescan/pulse-feed/internal/models"
)

// TokenArchive appends accepted token records into ClickHouse for historical
// queries. The live feed never reads from here; it exists for analytics and
// the NL->SQL endpoint.
type TokenArchive struct {
	conn driver.Conn
}

// TokenArchiveOptions carries ClickHouse connection settings.
type TokenArchiveOptions struct {
	Addr     string
	Database string
	Username string
	Password string
}

func NewTokenArchive(ctx context.Context, opts TokenArchiveOptions) (*TokenArchive, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	return &TokenArchive{conn: conn}, nil
}

// InsertToken appends one record.
func (a *TokenArchive) InsertToken(ctx context.Context, rec *models.TokenRecord) error {
	query := `
		INSERT INTO tokens (
			mint_address, name, symbol, category,
			price, change_percent, curve_progress,
			tags, uri, event_time
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := a.conn.Exec(ctx, query,
		rec.MintAddress,
		rec.Name,
		rec.Symbol,
		string(rec.Category),
		rec.PriceDisplay,
		rec.ChangePercent,
		rec.CurveProgress,
		strings.Join(rec.Tags, ","),
		rec.URI,
		rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}
	return nil
}

func (a *TokenArchive) Ping(ctx context.Context) error {
	return a.conn.Ping(ctx)
}

func (a *TokenArchive) Close() error {
	return a.conn.Close()
}
