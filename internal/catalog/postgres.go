package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kosarica/store-recommender/internal/database"
	"github.com/kosarica/store-recommender/internal/recommender"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var priceColumns = []string{"id", "item_id", "store_id", "price", "user_id", "on_sale", "created_at"}

// PostgresCatalog is the primary backend, built on a pgx pool.
type PostgresCatalog struct {
	db     *pgxpool.Pool
	clock  *clock
	shared bool // pool is the process-wide database.Pool
}

var _ Backend = (*PostgresCatalog)(nil)

// NewPostgresCatalog wraps an existing pool. Close does not close it.
func NewPostgresCatalog(db *pgxpool.Pool) *PostgresCatalog {
	return &PostgresCatalog{db: db, clock: newClock()}
}

// OpenPostgres connects the shared pool and optionally migrates the schema.
func OpenPostgres(ctx context.Context, opts Options) (*PostgresCatalog, error) {
	err := database.Connect(ctx, opts.DSN, database.PoolOptions{
		MaxConns:    opts.MaxConns,
		MinConns:    opts.MinConns,
		MaxLifetime: opts.MaxConnLifetime,
		MaxIdleTime: opts.MaxConnIdleTime,
	})
	if err != nil {
		return nil, err
	}

	c := NewPostgresCatalog(database.Pool())
	c.shared = true
	if opts.Migrate {
		if err := c.Migrate(ctx); err != nil {
			database.Close()
			return nil, err
		}
	}
	return c, nil
}

// Migrate creates the catalog tables if they do not exist.
func (c *PostgresCatalog) Migrate(ctx context.Context) error {
	return database.Migrate(ctx, c.db)
}

func (c *PostgresCatalog) ListAllStores(ctx context.Context) ([]recommender.Store, error) {
	query, args, err := psql.Select("id", "name", "latitude", "longitude", "created_at").
		From("stores").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := c.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stores: %w", err)
	}
	defer rows.Close()

	stores := []recommender.Store{}
	for rows.Next() {
		var s recommender.Store
		if err := rows.Scan(&s.ID, &s.Name, &s.Location.Latitude, &s.Location.Longitude, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

func (c *PostgresCatalog) ListPriceRecords(ctx context.Context, itemID string) ([]recommender.PriceRecord, error) {
	return c.queryPrices(ctx, sq.Eq{"item_id": itemID})
}

func (c *PostgresCatalog) ListStorePrices(ctx context.Context, storeID string) ([]recommender.PriceRecord, error) {
	if _, err := c.GetStore(ctx, storeID); err != nil {
		return nil, err
	}
	return c.queryPrices(ctx, sq.Eq{"store_id": storeID})
}

func (c *PostgresCatalog) queryPrices(ctx context.Context, where sq.Eq) ([]recommender.PriceRecord, error) {
	query, args, err := psql.Select(priceColumns...).
		From("prices").
		Where(where).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := c.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	records := []recommender.PriceRecord{}
	for rows.Next() {
		var r recommender.PriceRecord
		if err := rows.Scan(&r.ID, &r.ItemID, &r.StoreID, &r.Price, &r.UserID, &r.OnSale, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		r.CreatedAt = r.CreatedAt.UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

func (c *PostgresCatalog) GetStore(ctx context.Context, storeID string) (*recommender.Store, error) {
	query, args, err := psql.Select("id", "name", "latitude", "longitude", "created_at").
		From("stores").
		Where(sq.Eq{"id": storeID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var s recommender.Store
	err = c.db.QueryRow(ctx, query, args...).Scan(&s.ID, &s.Name, &s.Location.Latitude, &s.Location.Longitude, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, recommender.ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return &s, nil
}

func (c *PostgresCatalog) GetItem(ctx context.Context, itemID string) (*recommender.Item, error) {
	query, args, err := psql.Select("id", "name", "brand", "tags").
		From("items").
		Where(sq.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var item recommender.Item
	var tags string
	err = c.db.QueryRow(ctx, query, args...).Scan(&item.ID, &item.Name, &item.Brand, &tags)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, recommender.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	item.Tags = splitTags(tags)
	return &item, nil
}

func (c *PostgresCatalog) CreateStore(ctx context.Context, store recommender.Store) (recommender.Store, error) {
	store, err := prepareStore(store, c.clock.next())
	if err != nil {
		return store, err
	}

	query, args, err := psql.Insert("stores").
		Columns("id", "name", "latitude", "longitude", "created_at").
		Values(store.ID, store.Name, store.Location.Latitude, store.Location.Longitude, store.CreatedAt).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude RETURNING created_at").
		ToSql()
	if err != nil {
		return store, err
	}

	if err := c.db.QueryRow(ctx, query, args...).Scan(&store.CreatedAt); err != nil {
		return store, fmt.Errorf("insert store: %w", err)
	}
	store.CreatedAt = store.CreatedAt.UTC()
	return store, nil
}

func (c *PostgresCatalog) CreateItem(ctx context.Context, item recommender.Item) (recommender.Item, error) {
	item, err := prepareItem(item)
	if err != nil {
		return item, err
	}

	query, args, err := psql.Insert("items").
		Columns("id", "name", "brand", "tags").
		Values(item.ID, item.Name, item.Brand, joinTags(item.Tags)).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, brand = EXCLUDED.brand, tags = EXCLUDED.tags").
		ToSql()
	if err != nil {
		return item, err
	}

	if _, err := c.db.Exec(ctx, query, args...); err != nil {
		return item, fmt.Errorf("insert item: %w", err)
	}
	return item, nil
}

func (c *PostgresCatalog) ReportPrice(ctx context.Context, record recommender.PriceRecord) (recommender.PriceRecord, error) {
	record, err := prepareRecord(record)
	if err != nil {
		return record, err
	}
	if err := checkReferents(ctx, c, record); err != nil {
		return record, err
	}
	record.CreatedAt = c.clock.next()

	query, args, err := psql.Insert("prices").
		Columns(priceColumns...).
		Values(record.ID, record.ItemID, record.StoreID, record.Price, record.UserID, record.OnSale, record.CreatedAt).
		ToSql()
	if err != nil {
		return record, err
	}

	if _, err := c.db.Exec(ctx, query, args...); err != nil {
		return record, fmt.Errorf("insert price: %w", err)
	}
	return record, nil
}

func (c *PostgresCatalog) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c *PostgresCatalog) Close() error {
	if c.shared {
		database.Close()
	}
	return nil
}
