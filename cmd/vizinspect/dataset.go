package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/viz/metadata"
)

var errNoDataset = errors.New("no dataset: set --dataset or --snapshot")

// datasetDesc is the dataset description file.
//
//	properties:
//	  - name: price
//	    type: number
//	    min: 0
//	    max: 250
//	  - name: kind
//	    type: category
//	    categories: [bar, cafe, shop]
//	    frequencies: [12, 30, 4]
//	  - name: opened
//	    type: date
//	    min: "2020-01-01T00:00:00Z"
//	    max: "2024-01-01T00:00:00Z"
type datasetDesc struct {
	Properties []propertyDesc `mapstructure:"properties"`
}

type propertyDesc struct {
	Name        string   `mapstructure:"name"`
	Type        string   `mapstructure:"type"`
	Min         string   `mapstructure:"min"`
	Max         string   `mapstructure:"max"`
	Sum         float64  `mapstructure:"sum"`
	Count       int      `mapstructure:"count"`
	Categories  []string `mapstructure:"categories"`
	Frequencies []int    `mapstructure:"frequencies"`
}

// loadMetadata reads the snapshot when one is set, the dataset
// description otherwise.
func loadMetadata(cfg *viper.Viper) (*metadata.Metadata, error) {
	if path := cfg.GetString("snapshot"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return metadata.Load(raw)
	}
	path := cfg.GetString("dataset")
	if path == "" {
		return nil, errNoDataset
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	var desc datasetDesc
	if err := v.Unmarshal(&desc); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return desc.metadata()
}

func (d datasetDesc) metadata() (*metadata.Metadata, error) {
	props := make([]metadata.Property, 0, len(d.Properties))
	for _, pd := range d.Properties {
		p, err := pd.property()
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", pd.Name, err)
		}
		props = append(props, p)
	}
	return metadata.New(props...), nil
}

func (pd propertyDesc) property() (metadata.Property, error) {
	if pd.Name == "" {
		return metadata.Property{}, errors.New("missing name")
	}
	typ := metadata.Number
	if pd.Type != "" {
		var err error
		if typ, err = metadata.ParseType(pd.Type); err != nil {
			return metadata.Property{}, err
		}
	}
	p := metadata.Property{
		Name:  pd.Name,
		Type:  typ,
		Stats: metadata.Stats{Sum: pd.Sum, Count: pd.Count},
	}
	var err error
	if p.Stats.Min, err = parseBound(pd.Min); err != nil {
		return metadata.Property{}, fmt.Errorf("min: %w", err)
	}
	if p.Stats.Max, err = parseBound(pd.Max); err != nil {
		return metadata.Property{}, fmt.Errorf("max: %w", err)
	}
	for i, name := range pd.Categories {
		c := metadata.CategoryStat{Name: name}
		if i < len(pd.Frequencies) {
			c.Frequency = pd.Frequencies[i]
		}
		p.Stats.Categories = append(p.Stats.Categories, c)
	}
	return p, nil
}

// parseBound accepts a number, epoch milliseconds for dates, or an RFC 3339
// time.
func parseBound(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("%q is neither a number nor an RFC 3339 time", s)
	}
	return float64(t.UnixMilli()), nil
}

func newSnapshotCmd(cfg *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write the dataset metadata as a compressed snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			md, err := loadMetadata(cfg)
			if err != nil {
				return err
			}
			raw, err := md.MarshalBinary()
			if err != nil {
				return err
			}
			out := cfg.GetString("out")
			if err := os.WriteFile(out, raw, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d properties, %d categories to %s (%d bytes)\n",
				len(md.Names()), md.NumCategories(), out, len(raw))
			return nil
		},
	}
	cmd.Flags().StringP("out", "o", "metadata.snap", "output file")
	return cmd
}
