// Package importer bulk-loads stores, items and price reports from CSV and
// XLSX files into a catalog.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/store-recommender/internal/catalog"
	"github.com/kosarica/store-recommender/internal/recommender"
)

// Kind is the type of rows a file holds.
type Kind string

const (
	KindStores Kind = "stores"
	KindItems  Kind = "items"
	KindPrices Kind = "prices"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindStores, KindItems, KindPrices:
		return k, nil
	default:
		return "", fmt.Errorf("unknown import kind %q (want stores, items or prices)", s)
	}
}

// columns lists the accepted header names per field, after foldHeader.
var columns = map[Kind]map[string][]string{
	KindStores: {
		"id":        {"id", "store_id", "storeid"},
		"name":      {"name", "naziv", "store_name"},
		"latitude":  {"latitude", "lat"},
		"longitude": {"longitude", "lon", "lng"},
	},
	KindItems: {
		"id":    {"id", "item_id", "itemid"},
		"name":  {"name", "naziv", "item_name"},
		"brand": {"brand", "marka"},
		"tags":  {"tags"},
	},
	KindPrices: {
		"item_id":     {"item_id", "itemid", "sifra_proizvoda", "sifra"},
		"store_id":    {"store_id", "storeid", "poslovnica"},
		"price":       {"price", "cijena"},
		"user_id":     {"user_id", "userid"},
		"sale_status": {"sale_status", "on_sale", "sale", "akcija"},
	},
}

var required = map[Kind][]string{
	KindStores: {"name", "latitude", "longitude"},
	KindItems:  {"name"},
	KindPrices: {"item_id", "store_id", "price"},
}

// RowError describes one rejected row.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Result summarizes an import run.
type Result struct {
	Kind     Kind          `json:"kind"`
	Total    int           `json:"total"`
	Imported int           `json:"imported"`
	Errors   []RowError    `json:"errors,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Importer writes parsed rows into a catalog.
type Importer struct {
	writer catalog.Writer
	logger zerolog.Logger
}

// New creates an importer on top of w.
func New(w catalog.Writer) *Importer {
	return &Importer{
		writer: w,
		logger: log.With().Str("component", "importer").Logger(),
	}
}

// ImportFile reads path (CSV, TSV or XLSX by extension) and imports it.
func (im *Importer) ImportFile(ctx context.Context, kind Kind, path string, opts ReadOptions) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return im.ImportBytes(ctx, kind, filepath.Base(path), data, opts)
}

// ImportBytes imports the contents of a file. name only selects the format
// by its extension.
func (im *Importer) ImportBytes(ctx context.Context, kind Kind, name string, data []byte, opts ReadOptions) (*Result, error) {
	var table *Table
	var err error
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		table, err = ReadXLSX(data, opts)
	case ".tsv":
		if opts.Delimiter == 0 {
			opts.Delimiter = '\t'
		}
		table, err = ReadCSV(data, opts)
	default:
		table, err = ReadCSV(data, opts)
	}
	if err != nil {
		return nil, err
	}

	return im.Import(ctx, kind, table)
}

// Import writes every row of table. Bad rows are collected in the result
// and do not stop the run; a cancelled context does.
func (im *Importer) Import(ctx context.Context, kind Kind, table *Table) (*Result, error) {
	startTime := time.Now()
	fields, err := resolveColumns(kind, table.Headers)
	if err != nil {
		return nil, err
	}

	result := &Result{Kind: kind}
	for i, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if isEmptyRow(row) {
			continue
		}
		result.Total++
		rowNumber := table.FirstRow + i

		get := func(field string) string {
			idx, ok := fields[field]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		if err := im.importRow(ctx, kind, get); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			result.Errors = append(result.Errors, RowError{Row: rowNumber, Message: err.Error()})
			continue
		}
		result.Imported++
	}
	result.Duration = time.Since(startTime)

	im.logger.Info().
		Str("kind", string(kind)).
		Int("total", result.Total).
		Int("imported", result.Imported).
		Int("errors", len(result.Errors)).
		Dur("duration", result.Duration).
		Msg("Import finished")

	return result, nil
}

func (im *Importer) importRow(ctx context.Context, kind Kind, get func(string) string) error {
	switch kind {
	case KindStores:
		lat, err := strconv.ParseFloat(strings.ReplaceAll(get("latitude"), ",", "."), 64)
		if err != nil {
			return fmt.Errorf("invalid latitude %q", get("latitude"))
		}
		lon, err := strconv.ParseFloat(strings.ReplaceAll(get("longitude"), ",", "."), 64)
		if err != nil {
			return fmt.Errorf("invalid longitude %q", get("longitude"))
		}
		_, err = im.writer.CreateStore(ctx, recommender.Store{
			ID:       get("id"),
			Name:     get("name"),
			Location: recommender.Coordinate{Latitude: lat, Longitude: lon},
		})
		return err

	case KindItems:
		_, err := im.writer.CreateItem(ctx, recommender.Item{
			ID:    get("id"),
			Name:  get("name"),
			Brand: get("brand"),
			Tags:  splitTagCell(get("tags")),
		})
		return err

	case KindPrices:
		price, err := ParsePrice(get("price"))
		if err != nil {
			return err
		}
		onSale, err := ParseSaleStatus(get("sale_status"))
		if err != nil {
			return err
		}
		_, err = im.writer.ReportPrice(ctx, recommender.PriceRecord{
			ItemID:  get("item_id"),
			StoreID: get("store_id"),
			Price:   price,
			UserID:  get("user_id"),
			OnSale:  onSale,
		})
		return err
	}
	return fmt.Errorf("unknown import kind %q", kind)
}

// resolveColumns maps field names to column indices using the header row.
func resolveColumns(kind Kind, headers []string) (map[string]int, error) {
	aliases, ok := columns[kind]
	if !ok {
		return nil, fmt.Errorf("unknown import kind %q", kind)
	}

	byHeader := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, dup := byHeader[foldHeader(h)]; !dup {
			byHeader[foldHeader(h)] = i
		}
	}

	fields := make(map[string]int)
	for field, names := range aliases {
		for _, name := range names {
			if idx, ok := byHeader[name]; ok {
				fields[field] = idx
				break
			}
		}
	}

	var missing []string
	for _, field := range required[kind] {
		if _, ok := fields[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns for %s: %s", kind, strings.Join(missing, ", "))
	}
	return fields, nil
}

func splitTagCell(s string) []string {
	if s == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '|' }) {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
