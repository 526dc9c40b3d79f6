package profile

import (
	"log/slog"

	"github.com/Doomsbay/TaxPasta/taxpasta/table"
)

var ganonSchema = &Schema{
	Name: "ganon",
	Columns: []Column{
		{Name: "rank", Kind: StringKind},
		{Name: "target", Kind: StringKind},
		{Name: "lineage", Kind: StringKind},
		{Name: "name", Kind: StringKind},
		{Name: "number_unique", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "number_shared", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "number_children", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "number_cumulative", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "percent_cumulative", Kind: FloatKind, Checks: []Check{InRange(0, 100)}},
	},
}

// GanonReader reads `ganon report` tables (read counts, no header).
type GanonReader struct{}

func (GanonReader) Read(src table.Source) (*ProducerTable, error) {
	return readProfile(Ganon, src, layout{
		schemas: []*Schema{ganonSchema},
	})
}

// GanonStandardiser counts reads matched to each target, unique and shared.
// Targets that are not numeric taxonomy ids, such as the "-" of the
// unclassified row, are unclassified.
type GanonStandardiser struct {
	Logger *slog.Logger
}

func (s GanonStandardiser) Transform(t *ProducerTable) (*StandardProfile, error) {
	return transform(Ganon, s.Logger, t, []*Schema{ganonSchema}, func(t *ProducerTable, b *builder) {
		for i := 0; i < t.Len(); i++ {
			count := t.Value(i, "number_unique").Int + t.Value(i, "number_shared").Int
			b.addRaw(t.Value(i, "target").Raw, count)
		}
	})
}
