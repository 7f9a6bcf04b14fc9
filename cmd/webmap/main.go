// Command webmap renders portal map documents into styled GeoJSON and
// serves the styling API.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/paulmach/webmap/internal/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "webmap",
	Short: "Render portal map documents into styled GeoJSON",
	Long: `webmap loads a portal map document, fetches each layer's data, applies
the layer filter and builds its thematic style (unique, range, heat, symbol,
marker and labels).

Examples:
  # Render a document file, REST_DATA layers read from a local dataset store
  webmap render map.json --db data/webmap.duckdb

  # Render a portal map with a credential
  webmap render http://host/iportal/web/maps/123/map --key key --value secret

  # Classify values
  webmap classify --method "natural breaks" --count 4 1 2 4 8 16 32

  # Serve the HTTP API
  webmap serve --addr :8080`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Init(log.Options{
			Level:     viper.GetString("log.level"),
			Format:    viper.GetString("log.format"),
			AddSource: viper.GetBool("log.source"),
			File:      viper.GetString("log.file"),
		})
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	env := log.FromEnv()
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.webmap.yaml or $HOME/.webmap.yaml)")
	rootCmd.PersistentFlags().String("log-level", env.Level, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", env.Format, "log format (text, json)")
	rootCmd.PersistentFlags().Bool("log-source", env.AddSource, "add source locations to log records")
	rootCmd.PersistentFlags().String("log-file", env.File, "also write json logs to this rotated file")
	rootCmd.PersistentFlags().String("db", "", "dataset store, a duckdb file")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log.source", rootCmd.PersistentFlags().Lookup("log-source"))
	viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".webmap")
	}

	viper.SetEnvPrefix("WEBMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && viper.GetString("log.level") == "debug" {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// output opens the output file, stdout for "" or "-".
func output(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}

	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func writeJSON(path string, v interface{}, pretty bool) error {
	w, err := output(path)
	if err != nil {
		return err
	}
	defer w.Close()

	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}

	return enc.Encode(v)
}
