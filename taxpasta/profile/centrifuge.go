package profile

import (
	"log/slog"

	"github.com/Doomsbay/TaxPasta/taxpasta/table"
)

var centrifugeSchema = krakenReportSchema("centrifuge", false)

// CentrifugeReader reads centrifuge-kreport output, which follows the
// six-column Kraken report layout.
type CentrifugeReader struct{}

func (CentrifugeReader) Read(src table.Source) (*ProducerTable, error) {
	return readProfile(Centrifuge, src, layout{
		schemas: []*Schema{centrifugeSchema},
	})
}

// CentrifugeStandardiser keeps the directly assigned reads per taxon.
type CentrifugeStandardiser struct {
	Logger *slog.Logger
}

func (s CentrifugeStandardiser) Transform(t *ProducerTable) (*StandardProfile, error) {
	return transform(Centrifuge, s.Logger, t, []*Schema{centrifugeSchema}, directAssigned)
}
