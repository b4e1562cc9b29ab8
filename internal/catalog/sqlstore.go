package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/kosarica/store-recommender/internal/recommender"
)

// dialect captures what differs between the database/sql backends.
type dialect struct {
	driver      string
	placeholder sq.PlaceholderFormat
	schema      []string
	storeUpsert string
	itemUpsert  string
}

var dialects = map[string]dialect{
	TypePQ: {
		driver:      "postgres",
		placeholder: sq.Dollar,
		schema:      portableSchema("CREATE INDEX IF NOT EXISTS"),
		storeUpsert: "ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude",
		itemUpsert:  "ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, brand = EXCLUDED.brand, tags = EXCLUDED.tags",
	},
	TypeSQLite: {
		driver:      "sqlite",
		placeholder: sq.Question,
		schema:      portableSchema("CREATE INDEX IF NOT EXISTS"),
		storeUpsert: "ON CONFLICT (id) DO UPDATE SET name = excluded.name, latitude = excluded.latitude, longitude = excluded.longitude",
		itemUpsert:  "ON CONFLICT (id) DO UPDATE SET name = excluded.name, brand = excluded.brand, tags = excluded.tags",
	},
	TypeMySQL: {
		driver:      "mysql",
		placeholder: sq.Question,
		// MySQL has no CREATE INDEX IF NOT EXISTS; indexes are declared inline
		schema: []string{
			storesDDL,
			itemsDDL,
			`CREATE TABLE IF NOT EXISTS prices (
				id VARCHAR(64) PRIMARY KEY,
				item_id VARCHAR(64) NOT NULL,
				store_id VARCHAR(64) NOT NULL,
				price BIGINT NOT NULL,
				user_id VARCHAR(64) NOT NULL DEFAULT '',
				on_sale BOOLEAN NOT NULL DEFAULT FALSE,
				created_at BIGINT NOT NULL,
				INDEX idx_prices_item (item_id, created_at),
				INDEX idx_prices_store (store_id, created_at)
			)`,
		},
		storeUpsert: "ON DUPLICATE KEY UPDATE name = VALUES(name), latitude = VALUES(latitude), longitude = VALUES(longitude)",
		itemUpsert:  "ON DUPLICATE KEY UPDATE name = VALUES(name), brand = VALUES(brand), tags = VALUES(tags)",
	},
}

const (
	storesDDL = `CREATE TABLE IF NOT EXISTS stores (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		created_at BIGINT NOT NULL
	)`
	itemsDDL = `CREATE TABLE IF NOT EXISTS items (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		brand VARCHAR(255) NOT NULL DEFAULT '',
		tags VARCHAR(1024) NOT NULL DEFAULT ''
	)`
)

func portableSchema(createIndex string) []string {
	return []string{
		storesDDL,
		itemsDDL,
		`CREATE TABLE IF NOT EXISTS prices (
			id VARCHAR(64) PRIMARY KEY,
			item_id VARCHAR(64) NOT NULL,
			store_id VARCHAR(64) NOT NULL,
			price BIGINT NOT NULL,
			user_id VARCHAR(64) NOT NULL DEFAULT '',
			on_sale BOOLEAN NOT NULL DEFAULT FALSE,
			created_at BIGINT NOT NULL
		)`,
		createIndex + ` idx_prices_item ON prices (item_id, created_at)`,
		createIndex + ` idx_prices_store ON prices (store_id, created_at)`,
	}
}

// SQLCatalog is a database/sql backend for Postgres (lib/pq), MySQL and
// SQLite. Timestamps are stored as unix nanoseconds.
type SQLCatalog struct {
	db      *sql.DB
	dialect dialect
	builder sq.StatementBuilderType
	clock   *clock
}

var _ Backend = (*SQLCatalog)(nil)

// OpenSQL opens a database/sql backend. kind is one of TypePQ, TypeMySQL or
// TypeSQLite.
func OpenSQL(ctx context.Context, kind, dsn string, migrate bool) (*SQLCatalog, error) {
	d, ok := dialects[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported sql backend %q", kind)
	}

	switch kind {
	case TypeMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		dsn = cfg.FormatDSN()
	case TypeSQLite:
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if kind == TypeSQLite {
		// One writer at a time; avoids SQLITE_BUSY under concurrent reports
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	c := NewSQLCatalog(db, kind)
	if migrate {
		if err := c.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	return c, nil
}

// NewSQLCatalog wraps an open handle. kind selects the SQL dialect.
func NewSQLCatalog(db *sql.DB, kind string) *SQLCatalog {
	d := dialects[kind]
	return &SQLCatalog{
		db:      db,
		dialect: d,
		builder: sq.StatementBuilder.PlaceholderFormat(d.placeholder),
		clock:   newClock(),
	}
}

// Migrate creates the catalog tables if they do not exist.
func (c *SQLCatalog) Migrate(ctx context.Context) error {
	for i, stmt := range c.dialect.schema {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}

func (c *SQLCatalog) ListAllStores(ctx context.Context) ([]recommender.Store, error) {
	query, args, err := c.builder.Select("id", "name", "latitude", "longitude", "created_at").
		From("stores").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stores: %w", err)
	}
	defer rows.Close()

	stores := []recommender.Store{}
	for rows.Next() {
		var s recommender.Store
		var createdAt int64
		if err := rows.Scan(&s.ID, &s.Name, &s.Location.Latitude, &s.Location.Longitude, &createdAt); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		s.CreatedAt = unixNanoUTC(createdAt)
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

func (c *SQLCatalog) ListPriceRecords(ctx context.Context, itemID string) ([]recommender.PriceRecord, error) {
	return c.queryPrices(ctx, sq.Eq{"item_id": itemID})
}

func (c *SQLCatalog) ListStorePrices(ctx context.Context, storeID string) ([]recommender.PriceRecord, error) {
	if _, err := c.GetStore(ctx, storeID); err != nil {
		return nil, err
	}
	return c.queryPrices(ctx, sq.Eq{"store_id": storeID})
}

func (c *SQLCatalog) queryPrices(ctx context.Context, where sq.Eq) ([]recommender.PriceRecord, error) {
	query, args, err := c.builder.Select(priceColumns...).
		From("prices").
		Where(where).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	records := []recommender.PriceRecord{}
	for rows.Next() {
		var r recommender.PriceRecord
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.ItemID, &r.StoreID, &r.Price, &r.UserID, &r.OnSale, &createdAt); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		r.CreatedAt = unixNanoUTC(createdAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (c *SQLCatalog) GetStore(ctx context.Context, storeID string) (*recommender.Store, error) {
	query, args, err := c.builder.Select("id", "name", "latitude", "longitude", "created_at").
		From("stores").
		Where(sq.Eq{"id": storeID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var s recommender.Store
	var createdAt int64
	err = c.db.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.Name, &s.Location.Latitude, &s.Location.Longitude, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, recommender.ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}
	s.CreatedAt = unixNanoUTC(createdAt)
	return &s, nil
}

func (c *SQLCatalog) GetItem(ctx context.Context, itemID string) (*recommender.Item, error) {
	query, args, err := c.builder.Select("id", "name", "brand", "tags").
		From("items").
		Where(sq.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var item recommender.Item
	var tags string
	err = c.db.QueryRowContext(ctx, query, args...).Scan(&item.ID, &item.Name, &item.Brand, &tags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, recommender.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	item.Tags = splitTags(tags)
	return &item, nil
}

func (c *SQLCatalog) CreateStore(ctx context.Context, store recommender.Store) (recommender.Store, error) {
	store, err := prepareStore(store, c.clock.next())
	if err != nil {
		return store, err
	}

	query, args, err := c.builder.Insert("stores").
		Columns("id", "name", "latitude", "longitude", "created_at").
		Values(store.ID, store.Name, store.Location.Latitude, store.Location.Longitude, store.CreatedAt.UnixNano()).
		Suffix(c.dialect.storeUpsert).
		ToSql()
	if err != nil {
		return store, err
	}

	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return store, fmt.Errorf("insert store: %w", err)
	}

	// The upsert leaves created_at alone, so report the stored value
	query, args, err = c.builder.Select("created_at").From("stores").Where(sq.Eq{"id": store.ID}).ToSql()
	if err != nil {
		return store, err
	}
	var createdAt int64
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&createdAt); err != nil {
		return store, fmt.Errorf("read store: %w", err)
	}
	store.CreatedAt = unixNanoUTC(createdAt)
	return store, nil
}

func (c *SQLCatalog) CreateItem(ctx context.Context, item recommender.Item) (recommender.Item, error) {
	item, err := prepareItem(item)
	if err != nil {
		return item, err
	}

	query, args, err := c.builder.Insert("items").
		Columns("id", "name", "brand", "tags").
		Values(item.ID, item.Name, item.Brand, joinTags(item.Tags)).
		Suffix(c.dialect.itemUpsert).
		ToSql()
	if err != nil {
		return item, err
	}

	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return item, fmt.Errorf("insert item: %w", err)
	}
	return item, nil
}

func (c *SQLCatalog) ReportPrice(ctx context.Context, record recommender.PriceRecord) (recommender.PriceRecord, error) {
	record, err := prepareRecord(record)
	if err != nil {
		return record, err
	}
	if err := checkReferents(ctx, c, record); err != nil {
		return record, err
	}
	record.CreatedAt = c.clock.next()

	query, args, err := c.builder.Insert("prices").
		Columns(priceColumns...).
		Values(record.ID, record.ItemID, record.StoreID, record.Price, record.UserID, record.OnSale, record.CreatedAt.UnixNano()).
		ToSql()
	if err != nil {
		return record, err
	}

	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return record, fmt.Errorf("insert price: %w", err)
	}
	return record, nil
}

func (c *SQLCatalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *SQLCatalog) Close() error {
	return c.db.Close()
}
