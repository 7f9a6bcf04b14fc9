package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/webmap/dataset"
	"github.com/paulmach/webmap/feature"
	"github.com/paulmach/webmap/ingest"
	"github.com/paulmach/webmap/internal/log"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import GeoJSON, CSV or OSM XML into the dataset store",
	Long: `Import reads the file into features and stores them as a dataset, so
REST_DATA layers naming it can be rendered without a query service.

The format is taken from the file extension unless --format is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("name", "", "dataset name, e.g. World:Cities (default: file name)")
	importCmd.Flags().String("format", "", "geojson, csv or osm")
	importCmd.Flags().String("x", "lon", "csv x column")
	importCmd.Flags().String("y", "lat", "csv y column")
	importCmd.Flags().String("from", "", "projection of the file")
	importCmd.Flags().String("to", "", "projection of the stored geometry")
}

func runImport(cmd *cobra.Command, args []string) error {
	path := viper.GetString("db")
	if path == "" {
		return errors.New("--db is required")
	}

	filename := args[0]
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	}

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}

	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")

	var features []*feature.Feature
	switch format {
	case "geojson", "json":
		features, err = ingest.GeoJSON(data, from, to)
	case "csv":
		x, _ := cmd.Flags().GetString("x")
		y, _ := cmd.Flags().GetString("y")

		var t ingest.Table
		t, err = ingest.CSV(string(data), ingest.CSVOptions{})
		if err == nil {
			features, err = ingest.Tabular(t, ingest.TabularOptions{XField: x, YField: y, From: from, To: to})
		}
	case "osm", "xml":
		features, err = ingest.OSM(data, to)
	default:
		return errors.Errorf("unknown format: %q", format)
	}
	if err != nil {
		return err
	}

	store, err := dataset.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Import(context.Background(), name, features); err != nil {
		return err
	}

	log.WithComponent("import").Info("imported",
		slog.String("dataset", name),
		slog.Int("features", len(features)))

	return nil
}
