package profile

import (
	"log/slog"

	"github.com/Doomsbay/TaxPasta/taxpasta/table"
)

// krakenReportSchema declares the Kraken-style report, optionally with the
// two minimizer columns of `--report-minimizer-data`.
func krakenReportSchema(name string, minimizers bool) *Schema {
	cols := []Column{
		{Name: "percent", Kind: FloatKind, Checks: []Check{InRange(0, 100)}},
		{Name: "clade_assigned_reads", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "direct_assigned_reads", Kind: IntKind, Checks: []Check{NonNegative()}},
	}
	if minimizers {
		cols = append(cols,
			Column{Name: "number_of_minimizers", Kind: IntKind, Checks: []Check{NonNegative()}},
			Column{Name: "number_distinct_minimizers", Kind: IntKind, Checks: []Check{NonNegative()}},
		)
	}
	cols = append(cols,
		Column{Name: "taxonomy_level", Kind: StringKind},
		Column{Name: "taxonomy_id", Kind: IntKind, Checks: []Check{NonNegative()}},
		Column{Name: "name", Kind: StringKind},
	)
	return &Schema{Name: name, Columns: cols}
}

var (
	kraken2Schema           = krakenReportSchema("kraken2", false)
	kraken2MinimizersSchema = krakenReportSchema("kraken2_minimizers", true)
)

// Kraken2Reader reads Kraken2 reports with or without minimizer data; the
// variant is chosen by the column count.
type Kraken2Reader struct{}

func (Kraken2Reader) Read(src table.Source) (*ProducerTable, error) {
	return readProfile(Kraken2, src, layout{
		schemas: []*Schema{kraken2Schema, kraken2MinimizersSchema},
	})
}

// Kraken2Standardiser keeps reads assigned directly to each taxon. The
// report's own "unclassified" row already carries id 0.
type Kraken2Standardiser struct {
	Logger *slog.Logger
}

func (s Kraken2Standardiser) Transform(t *ProducerTable) (*StandardProfile, error) {
	return transform(Kraken2, s.Logger, t, []*Schema{kraken2Schema, kraken2MinimizersSchema}, directAssigned)
}

func directAssigned(t *ProducerTable, b *builder) {
	for i := 0; i < t.Len(); i++ {
		b.add(t.Value(i, "taxonomy_id").Int, t.Value(i, "direct_assigned_reads").Int)
	}
}
