package main

import (
	"strconv"
	"strings"

	"github.com/paulmach/webmap/classify"
	"github.com/paulmach/webmap/colorramp"
	"github.com/paulmach/webmap/theme"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <value>...",
	Short: "Compute class boundaries for a list of numbers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		values := make([]float64, 0, len(args))
		for _, a := range args {
			v, err := strconv.ParseFloat(a, 64)
			if err != nil {
				return errors.Errorf("not a number: %q", a)
			}
			values = append(values, v)
		}

		name, _ := cmd.Flags().GetString("method")
		method, ok := classify.ParseMethod(name)
		if !ok {
			return errors.Errorf("unknown method: %q", name)
		}

		count, _ := cmd.Flags().GetInt("count")
		breaks, err := classify.Classify(values, method, count)
		if err != nil {
			return err
		}

		return writeJSON("", map[string]interface{}{
			"method":  method.String(),
			"breaks":  breaks,
			"classes": breaks.Classes(),
		}, false)
	},
}

var rampCmd = &cobra.Command{
	Use:   "ramp <color>...",
	Short: "Expand anchor colors into a color ramp",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		mode, _ := cmd.Flags().GetString("mode")

		m := colorramp.Ranged
		switch strings.ToLower(mode) {
		case "ranged":
		case "categorical":
			m = colorramp.Categorical
		default:
			return errors.Errorf("unknown mode: %q", mode)
		}

		colors, err := colorramp.Expand(args, count, m)
		if err != nil {
			return err
		}

		return writeJSON("", colors, false)
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(rampCmd)

	classifyCmd.Flags().StringP("method", "m", "offset", "segment method (offset, natural breaks, square root, logarithm)")
	classifyCmd.Flags().IntP("count", "n", theme.DefaultSegmentCount, "number of classes")

	rampCmd.Flags().IntP("count", "n", theme.DefaultSegmentCount, "number of colors")
	rampCmd.Flags().String("mode", "ranged", "sampling mode (ranged, categorical)")
}
