package profile

import (
	"log/slog"

	"github.com/Doomsbay/TaxPasta/taxpasta/table"
)

var kaijuSchema = &Schema{
	Name: "kaiju",
	Columns: []Column{
		{Name: "file", Kind: StringKind},
		{Name: "percent", Kind: FloatKind, Checks: []Check{InRange(0, 100)}},
		{Name: "reads", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "taxon_id", Kind: IntKind, Nullable: true, Checks: []Check{NonNegative()}},
		{Name: "taxon_name", Kind: StringKind},
	},
}

// KaijuReader reads kaiju2table summaries.
type KaijuReader struct{}

func (KaijuReader) Read(src table.Source) (*ProducerTable, error) {
	return readProfile(Kaiju, src, layout{
		schemas: []*Schema{kaijuSchema},
		header:  true,
	})
}

// KaijuStandardiser treats rows without a taxon id ("unclassified", "cannot
// be assigned ...") as unclassified.
type KaijuStandardiser struct {
	Logger *slog.Logger
}

func (s KaijuStandardiser) Transform(t *ProducerTable) (*StandardProfile, error) {
	return transform(Kaiju, s.Logger, t, []*Schema{kaijuSchema}, nullableID("taxon_id", "reads"))
}

// nullableID adds one row per input, with missing ids unclassified.
func nullableID(idColumn, countColumn string) func(*ProducerTable, *builder) {
	return func(t *ProducerTable, b *builder) {
		for i := 0; i < t.Len(); i++ {
			id := t.Value(i, idColumn)
			count := t.Value(i, countColumn).Int
			if id.Null {
				b.addUnclassified(count)
				continue
			}
			b.add(id.Int, count)
		}
	}
}
