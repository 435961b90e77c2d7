package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/viz/shader"
)

func newShaderCmd(cfg *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shader",
		Short: "Print the WGSL style program of a ramp over a dataset property",
		RunE: func(cmd *cobra.Command, _ []string) error {
			md, err := loadMetadata(cfg)
			if err != nil {
				return err
			}
			v, _, err := buildStyle(cfg, md)
			if err != nil {
				return err
			}
			module, err := v.Program(shader.NewAllocator())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, b := range v.Bindings() {
				fmt.Fprintf(out, "// %s <- $%s\n", shader.Property(b.ID), b.Name)
			}
			fmt.Fprint(out, module)

			if !cfg.GetBool("compile") {
				return nil
			}
			words, err := shader.Compile(module)
			if err != nil {
				color.New(color.FgRed, color.Bold).Fprintln(cmd.ErrOrStderr(), "compilation failed")
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "compiled: %d SPIR-V words\n", len(words))
			return nil
		},
	}
	addRampFlags(cmd)
	cmd.Flags().Bool("compile", false, "compile the program to SPIR-V")
	return cmd
}
