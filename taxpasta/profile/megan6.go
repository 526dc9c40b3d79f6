package profile

import (
	"log/slog"
	"strings"

	"github.com/Doomsbay/TaxPasta/taxpasta/table"
	"github.com/shopspring/decimal"
)

var megan6Schema = &Schema{
	Name: "megan6",
	Columns: []Column{
		{Name: "taxonomy_id", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "count", Kind: FloatKind, Checks: []Check{NonNegative()}},
	},
}

// MEGAN6Reader reads `rma2info -c2c Taxonomy -r` output, usually gzipped.
type MEGAN6Reader struct{}

func (MEGAN6Reader) Read(src table.Source) (*ProducerTable, error) {
	return readProfile(MEGAN6, src, layout{
		schemas: []*Schema{megan6Schema},
	})
}

// MEGAN6Standardiser truncates the summarised counts to integers.
type MEGAN6Standardiser struct {
	Logger *slog.Logger
}

func (s MEGAN6Standardiser) Transform(t *ProducerTable) (*StandardProfile, error) {
	return transform(MEGAN6, s.Logger, t, []*Schema{megan6Schema}, func(t *ProducerTable, b *builder) {
		for i := 0; i < t.Len(); i++ {
			b.add(t.Value(i, "taxonomy_id").Int, truncate(t.Value(i, "count"), decimal.NewFromInt(1)))
		}
	})
}

// truncate scales a validated float cell by factor and drops the fraction.
// The raw text is used so that no binary rounding sneaks in.
func truncate(v Value, factor decimal.Decimal) int64 {
	d, err := decimal.NewFromString(strings.TrimSpace(v.Raw))
	if err != nil {
		d = decimal.NewFromFloat(v.Float)
	}
	return d.Mul(factor).IntPart()
}
