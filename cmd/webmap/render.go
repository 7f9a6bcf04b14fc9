package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/paulmach/webmap"
	"github.com/paulmach/webmap/dataset"
	"github.com/paulmach/webmap/internal/log"
	"github.com/paulmach/webmap/internal/server"
	"github.com/paulmach/webmap/source"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var renderCmd = &cobra.Command{
	Use:   "render <document file or map url>",
	Short: "Render a map document into styled GeoJSON layers",
	Long: `Render loads the map document, fetches and styles every layer and writes
the map as json. Feature layers carry a GeoJSON FeatureCollection with the
resolved style of each feature in its "style" property.

Documents are json or yaml files, or a portal map url.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("output", "o", "", "output file path (default: stdout)")
	renderCmd.Flags().Bool("pretty", false, "pretty print json output")
	renderCmd.Flags().String("key", "", "credential key appended to the map url")
	renderCmd.Flags().String("value", "", "credential value")
	renderCmd.Flags().String("token", "", "token registered for the portal")
	renderCmd.Flags().Float64("rate", 10, "requests per second, 0 for no limit")
	renderCmd.Flags().Int("concurrency", webmap.DefaultConcurrency, "layers processed at once")

	viper.BindPFlag("render.rate", renderCmd.Flags().Lookup("rate"))
	viper.BindPFlag("render.concurrency", renderCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("render.token", renderCmd.Flags().Lookup("token"))
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger := log.WithComponent("render")
	target := args[0]
	isURL := strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")

	token := ""
	if isURL {
		token = viper.GetString("render.token")
	}

	client := source.NewClient(
		source.WithRateLimit(viper.GetFloat64("render.rate"), 10),
		source.WithSecurity(portalSecurity(target, token)),
		source.WithLogger(logger),
	)

	key, _ := cmd.Flags().GetString("key")
	value, _ := cmd.Flags().GetString("value")

	opts := []webmap.Option{
		webmap.WithLogger(logger),
		webmap.WithConcurrency(viper.GetInt("render.concurrency")),
		webmap.WithCredential(key, value),
		webmap.WithQuerier(source.NewHTTPQuerier(client)),
		webmap.WithLayerHook(func(m *webmap.Map, l *webmap.Layer) {
			logger.Debug("layer done",
				slog.String("name", l.Name),
				slog.String("status", l.Status.String()),
				slog.Int("features", len(l.Features)))
		}),
	}

	if isURL {
		opts = append(opts, webmap.WithPortal(source.NewPortal(webmap.PortalRoot(target), client)))
	}

	if path := viper.GetString("db"); path != "" {
		store, err := dataset.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()

		opts = append(opts, webmap.WithQuerier(store))
	}

	wm := webmap.New(target, opts...)

	var (
		m   *webmap.Map
		err error
	)
	if isURL {
		m, err = wm.Load(ctx)
	} else {
		var doc *webmap.Document
		doc, err = webmap.LoadDocument(target)
		if err == nil {
			m, err = wm.Process(ctx, doc)
		}
	}
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("output")
	pretty, _ := cmd.Flags().GetBool("pretty")
	return writeJSON(out, server.NewRenderBody(m), pretty)
}

// portalSecurity registers the token for the whole portal of the map url
// so dataset fetches are authorized too.
func portalSecurity(mapURL, token string) *source.Security {
	security := source.NewSecurity()
	if token != "" {
		security.RegisterToken([]string{webmap.PortalRoot(mapURL)}, token)
	}

	return security
}
