package profile

import (
	"log/slog"

	"github.com/Doomsbay/TaxPasta/taxpasta/table"
)

var diamondSchema = &Schema{
	Name: "diamond",
	Columns: []Column{
		{Name: "query_id", Kind: StringKind},
		{Name: "taxonomy_id", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "e_value", Kind: FloatKind, Checks: []Check{NonNegative()}},
	},
}

// DiamondReader reads DIAMOND taxonomic classification output
// (`--outfmt 102`): one line per query.
type DiamondReader struct{}

func (DiamondReader) Read(src table.Source) (*ProducerTable, error) {
	return readProfile(Diamond, src, layout{
		schemas: []*Schema{diamondSchema},
	})
}

// DiamondStandardiser counts queries per taxon. Queries without a hit carry
// taxonomy id 0 and end up unclassified.
type DiamondStandardiser struct {
	Logger *slog.Logger
}

func (s DiamondStandardiser) Transform(t *ProducerTable) (*StandardProfile, error) {
	return transform(Diamond, s.Logger, t, []*Schema{diamondSchema}, func(t *ProducerTable, b *builder) {
		for i := 0; i < t.Len(); i++ {
			b.add(t.Value(i, "taxonomy_id").Int, 1)
		}
	})
}
