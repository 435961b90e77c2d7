package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/viz/expr"
	"github.com/gogpu/viz/metadata"
	"github.com/gogpu/viz/palette"
	"github.com/gogpu/viz/style"
)

func newLegendCmd(cfg *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "legend",
		Short: "Print the legend of a ramp over a dataset property",
		Example: `  vizinspect legend --dataset ds.yaml --property kind --palette prism --top 3
  vizinspect legend --dataset ds.yaml --property price --palette 1,4,16 --samples 5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			md, err := loadMetadata(cfg)
			if err != nil {
				return err
			}
			v, target, err := buildStyle(cfg, md)
			if err != nil {
				return err
			}
			l, err := v.Legend(target, expr.LegendConfig{
				Samples:       cfg.GetInt("samples"),
				DefaultOthers: cfg.GetString("others"),
			})
			if err != nil {
				return err
			}
			printLegend(cmd.OutOrStdout(), l)
			return nil
		},
	}
	addRampFlags(cmd)
	cmd.Flags().Int("samples", expr.DefaultLegendSamples, "samples of a numeric legend")
	cmd.Flags().String("others", expr.DefaultOthersLabel, "label of the others bucket")
	return cmd
}

func addRampFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("property", "p", "", "dataset property fed to the ramp")
	f.String("palette", palette.Prism.Name,
		"named palette ("+strings.Join(palette.Names(), ", ")+"), hex colors or numbers, comma separated")
	f.Int("top", 0, "keep only the N most frequent categories")
	f.Float64("width", style.DefaultWidth, "constant width of a color ramp style")
	f.Float64("stroke-width", style.DefaultStrokeWidth, "constant stroke width")
}

// buildStyle binds a style whose color, or width for numeric palettes, is
// a ramp over the chosen property.
func buildStyle(cfg *viper.Viper, md *metadata.Metadata) (*style.Viz, style.Property, error) {
	name := cfg.GetString("property")
	if name == "" {
		return nil, "", errors.New("--property is required")
	}
	var input any = expr.Prop(name)
	if n := cfg.GetInt("top"); n > 0 {
		top, err := expr.Top(expr.Prop(name), n)
		if err != nil {
			return nil, "", err
		}
		input = top
	}
	pal, target, err := parsePalette(cfg.GetString("palette"))
	if err != nil {
		return nil, "", err
	}
	ramp, err := expr.Ramp(input, pal)
	if err != nil {
		return nil, "", err
	}

	opts := []style.Option{
		style.WithExpression(target, ramp),
		style.WithStrokeWidth(cfg.GetFloat64("stroke-width")),
	}
	if target != style.Width {
		opts = append(opts, style.WithWidth(cfg.GetFloat64("width")))
	}
	v, err := style.New(opts...)
	if err != nil {
		return nil, "", err
	}
	if err := v.Bind(md); err != nil {
		return nil, "", err
	}
	return v, target, nil
}

// parsePalette resolves a palette name, a list of hex colors or a list of
// numbers. Number lists style the width.
func parsePalette(s string) (any, style.Property, error) {
	if p, err := palette.Named(s); err == nil {
		return p, style.Color, nil
	}
	parts := strings.Split(s, ",")
	numbers := make([]float64, 0, len(parts))
	for _, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			break
		}
		numbers = append(numbers, f)
	}
	if len(numbers) == len(parts) {
		return numbers, style.Width, nil
	}

	colors := make([]palette.Color, 0, len(parts))
	for _, part := range parts {
		c, err := palette.ParseHex(strings.TrimSpace(part))
		if err != nil {
			return nil, "", fmt.Errorf("palette %q: %w", s, err)
		}
		colors = append(colors, c)
	}
	return colors, style.Color, nil
}

func printLegend(w io.Writer, l expr.Legend) {
	header := color.New(color.Bold)
	header.Fprintf(w, "%s legend of %s\n", l.Type, l.Name)
	if l.Type == expr.LegendNumber {
		fmt.Fprintf(w, "range %s .. %s\n", formatValue(l.Min), formatValue(l.Max))
	}
	for _, e := range l.Data {
		fmt.Fprintf(w, "%s %-24s %s\n", swatch(e.Value), formatValue(e.Key), formatValue(e.Value))
	}
}

// swatch renders a color as a true-color block.
func swatch(v any) string {
	c, ok := v.(palette.Color)
	if !ok {
		return "  "
	}
	r, g, b, _ := c.RGBA8()
	return color.BgRGB(int(r), int(g), int(b)).Sprint("  ")
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', 6, 64)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case palette.Color:
		return x.Hex()
	case palette.Image:
		return x.URL
	}
	return fmt.Sprint(v)
}
