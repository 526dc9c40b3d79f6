package profile

import (
	"log/slog"
	"strings"

	"github.com/Doomsbay/TaxPasta/taxpasta/table"
	"github.com/shopspring/decimal"
)

const (
	// MetaPhlAnScale turns relative abundances into integer counts. MetaPhlAn
	// reports at most six decimals.
	MetaPhlAnScale = 1_000_000

	// metaphlanHeaderLine is where MetaPhlAn 3 puts its header.
	metaphlanHeaderLine = 4
)

var metaphlanSchema = &Schema{
	Name: "metaphlan",
	Columns: []Column{
		{Name: "clade_name", Kind: StringKind},
		{Name: "ncbi_tax_id", Kind: StringKind},
		{Name: "relative_abundance", Kind: FloatKind, Checks: []Check{InRange(0, 100)}},
		{Name: "additional_species", Kind: StringKind, Nullable: true},
	},
}

// MetaPhlAnReader reads MetaPhlAn 3 and 4 profiles. MetaPhlAn 4 adds a read
// count line to the preamble, so the header is located by scanning for
// "#clade_name". Identifiers stay text.
type MetaPhlAnReader struct{}

func (MetaPhlAnReader) Read(src table.Source) (*ProducerTable, error) {
	return readProfile(MetaPhlAn, src, layout{
		schemas: []*Schema{metaphlanSchema},
		skip:    metaphlanHeaderLine,
		marker:  "#clade_name",
	})
}

// MetaPhlAnStandardiser takes the leaf of the NCBI lineage as identifier and
// scales abundances by MetaPhlAnScale. Unresolvable leaves and -1 collapse
// into one unclassified row, which is always present.
type MetaPhlAnStandardiser struct {
	Logger *slog.Logger
}

func (s MetaPhlAnStandardiser) Transform(t *ProducerTable) (*StandardProfile, error) {
	scale := decimal.NewFromInt(MetaPhlAnScale)
	return transform(MetaPhlAn, s.Logger, t, []*Schema{metaphlanSchema}, func(t *ProducerTable, b *builder) {
		b.keepUnclassified = true
		for i := 0; i < t.Len(); i++ {
			id := leafID(t.Value(i, "ncbi_tax_id").Raw)
			b.addRaw(id, truncate(t.Value(i, "relative_abundance"), scale))
		}
	})
}

// leafID returns the last segment of a pipe-delimited lineage.
func leafID(lineage string) string {
	if i := strings.LastIndexByte(lineage, '|'); i >= 0 {
		return lineage[i+1:]
	}
	return lineage
}
