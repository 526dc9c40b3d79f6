package profile

import (
	"log/slog"

	"github.com/Doomsbay/TaxPasta/taxpasta/table"
)

var kmcpSchema = &Schema{
	Name: "kmcp",
	Columns: []Column{
		{Name: "ref", Kind: StringKind},
		{Name: "percentage", Kind: FloatKind, Checks: []Check{InRange(0, 100)}},
		{Name: "coverage", Kind: FloatKind},
		{Name: "score", Kind: FloatKind},
		{Name: "chunksFrac", Kind: FloatKind, Checks: []Check{InRange(0, 1)}},
		{Name: "chunksRelDepth", Kind: StringKind},
		{Name: "chunksRelDepthStd", Kind: FloatKind},
		{Name: "reads", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "ureads", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "hicureads", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "refsize", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "refname", Kind: StringKind, Nullable: true},
		{Name: "taxid", Kind: IntKind, Nullable: true, Checks: []Check{NonNegative()}},
		{Name: "rank", Kind: StringKind, Nullable: true},
		{Name: "taxname", Kind: StringKind, Nullable: true},
		{Name: "taxpath", Kind: StringKind, Nullable: true},
		{Name: "taxpathsn", Kind: StringKind, Nullable: true},
	},
}

// KMCPReader reads `kmcp profile` output.
type KMCPReader struct{}

func (KMCPReader) Read(src table.Source) (*ProducerTable, error) {
	return readProfile(KMCP, src, layout{
		schemas: []*Schema{kmcpSchema},
		header:  true,
	})
}

// KMCPStandardiser counts reads per reference taxid; references without a
// taxid are unclassified.
type KMCPStandardiser struct {
	Logger *slog.Logger
}

func (s KMCPStandardiser) Transform(t *ProducerTable) (*StandardProfile, error) {
	return transform(KMCP, s.Logger, t, []*Schema{kmcpSchema}, nullableID("taxid", "reads"))
}
