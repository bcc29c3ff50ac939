package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"gloveiq-importer/models"
	"gloveiq-importer/utils"
)

// PostgresWriter persists normalized listings to PostgreSQL. It is an
// optional sink next to the file artifacts; the table mirrors the export's
// last-writer-wins semantics by upserting on listing_pk.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do("postgres ping", db.Ping); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			listing_pk   TEXT PRIMARY KEY,
			glove_id     TEXT         NOT NULL,
			record_type  VARCHAR(16)  NOT NULL,
			source       VARCHAR(32)  NOT NULL,
			url          TEXT         NOT NULL,
			title        TEXT         NOT NULL DEFAULT '',
			brand        TEXT         NOT NULL DEFAULT 'Unknown',
			model_code   TEXT         NOT NULL DEFAULT 'Unknown',
			size_in      NUMERIC(5,2),
			throw_hand   VARCHAR(8)   NOT NULL DEFAULT 'UNK',
			sport        VARCHAR(16)  NOT NULL,
			condition    TEXT         NOT NULL DEFAULT 'Unknown',
			price        NUMERIC(10,2),
			currency     VARCHAR(8)   NOT NULL DEFAULT 'USD',
			imported_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_glove_id ON listings(glove_id);
		CREATE INDEX IF NOT EXISTS idx_listings_source   ON listings(source);
		CREATE INDEX IF NOT EXISTS idx_listings_brand    ON listings(brand);
	`)
	return err
}

// Write batch-upserts all listings keyed by listing_pk.
func (pw *PostgresWriter) Write(listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := pw.upsertBatch(listings[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) upsertBatch(batch []*models.Listing) error {
	const cols = 14
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, l := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			l.ListingPK, l.GloveID, string(l.RecordType), l.Source, l.URL, l.Title,
			l.Brand, l.ModelCode, nullableFloat(l.SizeIn), l.ThrowHand, l.Sport,
			l.Condition, nullableFloat(l.Price), l.Currency)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (listing_pk, glove_id, record_type, source, url, title,
			brand, model_code, size_in, throw_hand, sport, condition, price, currency)
		VALUES %s
		ON CONFLICT (listing_pk) DO UPDATE SET
			glove_id    = EXCLUDED.glove_id,
			record_type = EXCLUDED.record_type,
			source      = EXCLUDED.source,
			url         = EXCLUDED.url,
			title       = EXCLUDED.title,
			brand       = EXCLUDED.brand,
			model_code  = EXCLUDED.model_code,
			size_in     = EXCLUDED.size_in,
			throw_hand  = EXCLUDED.throw_hand,
			sport       = EXCLUDED.sport,
			condition   = EXCLUDED.condition,
			price       = EXCLUDED.price,
			currency    = EXCLUDED.currency,
			imported_at = NOW()
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
