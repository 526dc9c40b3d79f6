package profile

import (
	"log/slog"

	"github.com/Doomsbay/TaxPasta/taxpasta/table"
)

const motusHeaderLine = 3

var motusSchema = &Schema{
	Name: "motus",
	Columns: []Column{
		{Name: "consensus_taxonomy", Kind: StringKind},
		{Name: "ncbi_tax_id", Kind: IntKind, Nullable: true, Checks: []Check{NonNegative()}},
		{Name: "read_count", Kind: IntKind, Checks: []Check{NonNegative()}},
	},
}

// MOTUsReader reads `motus profile -c` output.
type MOTUsReader struct{}

func (MOTUsReader) Read(src table.Source) (*ProducerTable, error) {
	return readProfile(MOTUs, src, layout{
		schemas: []*Schema{motusSchema},
		skip:    motusHeaderLine,
		marker:  "#consensus_taxonomy",
	})
}

// MOTUsStandardiser sums read counts per NCBI id; several mOTUs may share
// one. The "unassigned" row has no id and is unclassified.
type MOTUsStandardiser struct {
	Logger *slog.Logger
}

func (s MOTUsStandardiser) Transform(t *ProducerTable) (*StandardProfile, error) {
	return transform(MOTUs, s.Logger, t, []*Schema{motusSchema}, nullableID("ncbi_tax_id", "read_count"))
}
