package profile

import (
	"log/slog"

	"github.com/Doomsbay/TaxPasta/taxpasta/table"
)

var brackenSchema = &Schema{
	Name: "bracken",
	Columns: []Column{
		{Name: "name", Kind: StringKind},
		{Name: "taxonomy_id", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "taxonomy_lvl", Kind: StringKind},
		{Name: "kraken_assigned_reads", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "added_reads", Kind: IntKind},
		{Name: "new_est_reads", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "fraction_total_reads", Kind: FloatKind, Checks: []Check{InRange(0, 1)}},
	},
}

// BrackenReader reads Bracken abundance re-estimation tables. Column names
// come from the file header.
type BrackenReader struct{}

func (BrackenReader) Read(src table.Source) (*ProducerTable, error) {
	return readProfile(Bracken, src, layout{
		schemas: []*Schema{brackenSchema},
		header:  true,
	})
}

// BrackenStandardiser keeps the re-estimated read counts.
type BrackenStandardiser struct {
	Logger *slog.Logger
}

func (s BrackenStandardiser) Transform(t *ProducerTable) (*StandardProfile, error) {
	return transform(Bracken, s.Logger, t, []*Schema{brackenSchema}, func(t *ProducerTable, b *builder) {
		for i := 0; i < t.Len(); i++ {
			b.add(t.Value(i, "taxonomy_id").Int, t.Value(i, "new_est_reads").Int)
		}
	})
}
