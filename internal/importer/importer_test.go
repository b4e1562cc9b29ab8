package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/kosarica/store-recommender/internal/catalog"
)

const storesCSV = `id,name,latitude,longitude
konzum-1,Konzum Ilica,45.8131,15.9619
spar-1,Spar Arena,45.7711,15.9428
`

const itemsCSV = `id;name;brand;tags
milk;Mlijeko 1L;Dukat;dairy|fresh
bread;Kruh;;
`

func seededImporter(t *testing.T) (*Importer, *catalog.MemoryCatalog) {
	t.Helper()
	ctx := context.Background()
	c := catalog.NewMemoryCatalog()
	im := New(c)

	table, err := ReadCSV([]byte(storesCSV), ReadOptions{})
	require.NoError(t, err)
	res, err := im.Import(ctx, KindStores, table)
	require.NoError(t, err)
	require.Equal(t, 2, res.Imported)

	table, err = ReadCSV([]byte(itemsCSV), ReadOptions{})
	require.NoError(t, err)
	res, err = im.Import(ctx, KindItems, table)
	require.NoError(t, err)
	require.Equal(t, 2, res.Imported, "errors: %v", res.Errors)

	return im, c
}

func TestImportStoresAndItems(t *testing.T) {
	_, c := seededImporter(t)
	ctx := context.Background()

	store, err := c.GetStore(ctx, "spar-1")
	require.NoError(t, err)
	assert.Equal(t, "Spar Arena", store.Name)
	assert.InDelta(t, 45.7711, store.Location.Latitude, 1e-9)

	item, err := c.GetItem(ctx, "milk")
	require.NoError(t, err)
	assert.Equal(t, "Dukat", item.Brand)
	assert.Equal(t, []string{"dairy", "fresh"}, item.Tags)
}

func TestImportPricesCollectsRowErrors(t *testing.T) {
	im, c := seededImporter(t)
	ctx := context.Background()

	data := `item_id,store_id,price,user_id,sale_status
milk,konzum-1,"1,19",u1,0
milk,spar-1,0.99,u2,da
bread,konzum-1,abc,u1,0
bread,nowhere,1.50,u1,0
bread,spar-1,-2,u1,0
bread,spar-1,1.89,u1,maybe

caviar,spar-1,99.00,u1,0
`
	table, err := ReadCSV([]byte(data), ReadOptions{})
	require.NoError(t, err)

	res, err := im.Import(ctx, KindPrices, table)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Total)
	assert.Equal(t, 2, res.Imported)
	require.Len(t, res.Errors, 5)
	assert.Equal(t, 4, res.Errors[0].Row)
	assert.Contains(t, res.Errors[0].Message, "invalid price")

	records, err := c.ListPriceRecords(ctx, "milk")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(119), records[0].Price)
	assert.False(t, records[0].OnSale)
	assert.Equal(t, int64(99), records[1].Price)
	assert.True(t, records[1].OnSale)
}

func TestImportMissingColumns(t *testing.T) {
	im := New(catalog.NewMemoryCatalog())
	table, err := ReadCSV([]byte("id,name\n1,x\n"), ReadOptions{})
	require.NoError(t, err)

	_, err = im.Import(context.Background(), KindStores, table)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude")
}

func TestImportHeaderAliases(t *testing.T) {
	c := catalog.NewMemoryCatalog()
	im := New(c)
	table, err := ReadCSV([]byte("Store ID;Naziv;Lat;Lng\nzg;Zagreb;45,81;15,98\n"), ReadOptions{})
	require.NoError(t, err)

	res, err := im.Import(context.Background(), KindStores, table)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	store, err := c.GetStore(context.Background(), "zg")
	require.NoError(t, err)
	assert.InDelta(t, 45.81, store.Location.Latitude, 1e-9)
}

func TestImportCancelledContext(t *testing.T) {
	im := New(catalog.NewMemoryCatalog())
	table, err := ReadCSV([]byte(storesCSV), ReadOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = im.Import(ctx, KindStores, table)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadCSVWindows1250(t *testing.T) {
	encoded, err := charmap.Windows1250.NewEncoder().String("id;name;brand\nchoc;Čokolada šećer;Kraš\n")
	require.NoError(t, err)

	raw := []byte(encoded)
	assert.Equal(t, EncodingWindows1250, DetectEncoding(raw))

	table, err := ReadCSV(raw, ReadOptions{})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Čokolada šećer", table.Rows[0][1])
	assert.Equal(t, "Kraš", table.Rows[0][2])
}

func TestReadCSVStripsBOM(t *testing.T) {
	table, err := ReadCSV(append([]byte{0xEF, 0xBB, 0xBF}, []byte("id,name\n1,x\n")...), ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "id", table.Headers[0])
}

func TestReadCSVNoHeader(t *testing.T) {
	_, err := ReadCSV([]byte("\n\n"), ReadOptions{})
	assert.Error(t, err)
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    rune
	}{
		{"comma", "a,b,c\n1,2,3\n", ','},
		{"semicolon with decimal commas", "a;b;c\n1,5;2,5;3\n4;5;6\n", ';'},
		{"tab", "a\tb\n1\t2\n", '\t'},
		{"pipe", "a|b|c\n1|2|3\n", '|'},
		{"empty", "", ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDelimiter(tt.content))
		})
	}
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"id", "name", "latitude", "longitude"},
		{"zg-1", "Zagreb Centar", 45.815, 15.9819},
		{"st-1", "Split Riva", 43.5081, 16.4402},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "stores.xlsx")
	require.NoError(t, f.SaveAs(path))

	c := catalog.NewMemoryCatalog()
	res, err := New(c).ImportFile(context.Background(), KindStores, path, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)

	store, err := c.GetStore(context.Background(), "st-1")
	require.NoError(t, err)
	assert.Equal(t, "Split Riva", store.Name)
	assert.InDelta(t, 16.4402, store.Location.Longitude, 1e-9)
}

func TestImportFileTSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.tsv")
	require.NoError(t, os.WriteFile(path, []byte("id\tname\nmilk\tMilk\n"), 0644))

	c := catalog.NewMemoryCatalog()
	res, err := New(c).ImportFile(context.Background(), KindItems, path, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
}

func TestImportBytesPicksFormatByName(t *testing.T) {
	c := catalog.NewMemoryCatalog()
	res, err := New(c).ImportBytes(context.Background(), KindItems, "items.tsv", []byte("id\tname\nmilk\tMilk\n"), ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	_, err = New(c).ImportBytes(context.Background(), KindItems, "items.xlsx", []byte("id,name\n"), ReadOptions{})
	assert.Error(t, err)
}

func TestImportFileMissing(t *testing.T) {
	_, err := New(catalog.NewMemoryCatalog()).ImportFile(context.Background(), KindItems, "/does/not/exist.csv", ReadOptions{})
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Prices ")
	require.NoError(t, err)
	assert.Equal(t, KindPrices, k)

	_, err = ParseKind("users")
	assert.Error(t, err)
}
