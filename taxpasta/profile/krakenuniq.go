package profile

import (
	"log/slog"

	"github.com/Doomsbay/TaxPasta/taxpasta/table"
)

// krakenUniqHeader is the header line as KrakenUniq writes it.
var krakenUniqHeader = []string{"%", "reads", "taxReads", "kmers", "dup", "cov", "taxID", "rank", "taxName"}

var krakenUniqSchema = &Schema{
	Name: "krakenuniq",
	Columns: []Column{
		{Name: "percent", Kind: FloatKind, Checks: []Check{InRange(0, 100)}},
		{Name: "reads", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "tax_reads", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "kmers", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "duplication", Kind: FloatKind, Checks: []Check{NonNegative()}},
		{Name: "coverage", Kind: FloatKind, Nullable: true},
		{Name: "taxonomy_id", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "rank", Kind: StringKind},
		{Name: "name", Kind: StringKind},
	},
}

// KrakenUniqReader reads KrakenUniq reports. Comment lines precede the
// header, which is the first line starting with "%".
type KrakenUniqReader struct{}

func (KrakenUniqReader) Read(src table.Source) (*ProducerTable, error) {
	return readProfile(KrakenUniq, src, layout{
		schemas:        []*Schema{krakenUniqSchema},
		header:         true,
		fileNames:      krakenUniqHeader,
		marker:         "%\t",
		markerIsHeader: true,
	})
}

// KrakenUniqStandardiser keeps reads assigned directly to each taxon.
type KrakenUniqStandardiser struct {
	Logger *slog.Logger
}

func (s KrakenUniqStandardiser) Transform(t *ProducerTable) (*StandardProfile, error) {
	return transform(KrakenUniq, s.Logger, t, []*Schema{krakenUniqSchema}, func(t *ProducerTable, b *builder) {
		for i := 0; i < t.Len(); i++ {
			b.add(t.Value(i, "taxonomy_id").Int, t.Value(i, "tax_reads").Int)
		}
	})
}
