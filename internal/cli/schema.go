package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/topograph"
)

// AttributeOutput describes one installed attribute.
type AttributeOutput struct {
	ID          int64  `json:"id"`
	Solitonid   string `json:"solitonid"`
	ValueType   string `json:"value_type"`
	Cardinality string `json:"cardinality"`
	Unique      string `json:"unique,omitempty"`
	Index       bool   `json:"index,omitempty"`
	Fulltext    bool   `json:"fulltext,omitempty"`
	Component   bool   `json:"component,omitempty"`
	NoHistory   bool   `json:"no_history,omitempty"`
}

// SchemaOutput lists the installed attributes by causetid.
type SchemaOutput struct {
	Attributes []AttributeOutput `json:"attributes"`
}

func (o SchemaOutput) String() string {
	var b strings.Builder
	for _, a := range o.Attributes {
		fmt.Fprintf(&b, "%d\t%s\t%s\t%s", a.ID, a.Solitonid, a.ValueType, a.Cardinality)
		if a.Unique != "" {
			fmt.Fprintf(&b, "\tunique=%s", a.Unique)
		}
		for _, flag := range []struct {
			set  bool
			name string
		}{{a.Index, "index"}, {a.Fulltext, "fulltext"}, {a.Component, "component"}, {a.NoHistory, "noHistory"}} {
			if flag.set {
				b.WriteString("\t" + flag.name)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "List installed attributes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer s.close()

			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(newSchemaOutput(s.conn.Schema()))
		},
	}
}

func newSchemaOutput(schema *topograph.Schema) SchemaOutput {
	out := SchemaOutput{Attributes: []AttributeOutput{}}
	for _, id := range schema.AttributeIDs() {
		attr, _ := schema.Attribute(id)
		a := AttributeOutput{
			ID:          int64(id),
			Solitonid:   schema.Describe(id),
			ValueType:   attr.ValueType.String(),
			Cardinality: attr.Cardinality.String(),
			Index:       attr.Index,
			Fulltext:    attr.Fulltext,
			Component:   attr.Component,
			NoHistory:   attr.NoHistory,
		}
		if attr.Unique != core.UniqueNone {
			a.Unique = attr.Unique.String()
		}
		out.Attributes = append(out.Attributes, a)
	}
	return out
}
