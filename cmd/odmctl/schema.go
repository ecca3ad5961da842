package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/forgo/odmapi/internal/odm"
)

type schemaModel struct {
	Name    string        `json:"name"`
	Exposed bool          `json:"exposed"`
	Enabled bool          `json:"enabled"`
	Fields  []schemaField `json:"fields"`
}

type schemaField struct {
	Name     string   `json:"name"`
	Kind     odm.Kind `json:"kind"`
	Required bool     `json:"required,omitempty"`
	Hidden   bool     `json:"hidden,omitempty"`
	Model    string   `json:"model,omitempty"`
}

func newSchemaCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Validate and print the model schema",
		Long: `Load the model schema, report every problem in it, and print the
models with their HTTP API flags and fields.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, reg, err := opts.load()
			if err != nil {
				return err
			}
			models := describe(reg)
			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(models)
			}
			return printModels(cmd, models)
		},
	}
}

func describe(reg *odm.Registry) []schemaModel {
	out := make([]schemaModel, 0)
	for _, m := range reg.Models() {
		sm := schemaModel{Name: m.Name, Exposed: m.Exposed, Enabled: m.Enabled, Fields: make([]schemaField, 0, len(m.Fields))}
		for _, f := range m.Fields {
			sm.Fields = append(sm.Fields, schemaField{
				Name:     f.Name,
				Kind:     f.Kind,
				Required: f.Required,
				Hidden:   f.Hidden,
				Model:    f.RefModel,
			})
		}
		out = append(out, sm)
	}
	return out
}

func printModels(cmd *cobra.Command, models []schemaModel) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tHTTP API\tFIELDS")
	for _, m := range models {
		names := make([]string, len(m.Fields))
		for i, f := range m.Fields {
			names[i] = f.Name + ":" + string(f.Kind)
			if f.Required {
				names[i] += "!"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name, apiState(m), strings.Join(names, " "))
	}
	return w.Flush()
}

func apiState(m schemaModel) string {
	switch {
	case !m.Exposed:
		return "none"
	case m.Enabled:
		return "enabled"
	}
	return "disabled"
}
