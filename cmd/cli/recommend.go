package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kosarica/store-recommender/internal/importer"
	"github.com/kosarica/store-recommender/internal/recommender"
)

var (
	latitude  float64
	longitude float64
	radiusKm  float64
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <item-id>...",
	Short: "Recommend the cheapest nearby store that stocks every item",
	Example: `  recommender recommend --lat 45.815 --lon 15.9819 milk bread
  recommender recommend --lat 45.815 --lon 15.9819 --radius 10 --json milk`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecommend,
}

var nearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "List stores around a point, closest first",
	Args:  cobra.NoArgs,
	RunE:  runNearby,
}

var compareCmd = &cobra.Command{
	Use:   "compare <item-id>...",
	Short: "Show the best known price of each item",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCompare,
}

func init() {
	for _, cmd := range []*cobra.Command{recommendCmd, nearbyCmd} {
		cmd.Flags().Float64Var(&latitude, "lat", 0, "latitude of the user")
		cmd.Flags().Float64Var(&longitude, "lon", 0, "longitude of the user")
		cmd.Flags().Float64Var(&radiusKm, "radius", 0, "search radius in km (default from config)")
		cmd.MarkFlagRequired("lat")
		cmd.MarkFlagRequired("lon")
	}
	rootCmd.AddCommand(recommendCmd, nearbyCmd, compareCmd)
}

// newEngine opens the catalog and builds an engine over it.
func newEngine(ctx context.Context) (*recommender.Engine, func(), error) {
	backend, err := openCatalog(ctx, false)
	if err != nil {
		return nil, nil, err
	}
	engine, err := recommender.NewEngine(backend, &cfg.Recommender)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return engine, func() { backend.Close() }, nil
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	engine, closeFn, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	rec, err := engine.RecommendStore(ctx, args, recommender.Coordinate{Latitude: latitude, Longitude: longitude}, radiusKm)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(os.Stdout, rec)
	}
	displayRecommendation(os.Stdout, rec)
	return nil
}

func displayRecommendation(out io.Writer, rec *recommender.Recommendation) {
	fmt.Fprintf(out, "Store:    %s (%s)\n", rec.Store.Name, rec.StoreID)
	fmt.Fprintf(out, "Distance: %.2f km\n", rec.Distance)
	fmt.Fprintf(out, "Total:    %s\n", importer.FormatMinor(rec.TotalCost))
	fmt.Fprintf(out, "Feasible: %d of %d stores in range\n\n", rec.FeasibleStores, rec.EvaluatedStores)

	items := make([]string, 0, len(rec.Breakdown))
	for id := range rec.Breakdown {
		items = append(items, id)
	}
	sort.Strings(items)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ITEM\tPRICE\tSALE\tREPORTED")
	for _, id := range items {
		r := rec.Breakdown[id]
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", id, importer.FormatMinor(r.Price), r.OnSale, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
}

func runNearby(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	engine, closeFn, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	stores, err := engine.NearbyStores(ctx, recommender.Coordinate{Latitude: latitude, Longitude: longitude}, radiusKm)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(os.Stdout, stores)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "STORE\tNAME\tDISTANCE")
	for _, s := range stores {
		fmt.Fprintf(w, "%s\t%s\t%.2f km\n", s.Store.ID, s.Store.Name, s.Distance)
	}
	w.Flush()
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	engine, closeFn, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	best, err := engine.ComparePrices(ctx, args)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(os.Stdout, best)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ITEM\tSTORE\tPRICE\tSALE")
	seen := make(map[string]bool, len(args))
	for _, id := range args {
		if seen[id] {
			continue
		}
		seen[id] = true
		r := best[id]
		if r == nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\n", id)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", id, r.StoreID, importer.FormatMinor(r.Price), r.OnSale)
	}
	w.Flush()
	return nil
}
