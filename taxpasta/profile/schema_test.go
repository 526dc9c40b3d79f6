package profile

import (
	"testing"

	"github.com/Doomsbay/TaxPasta/taxpasta/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = &Schema{
	Name: "test",
	Columns: []Column{
		{Name: "id", Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: "share", Kind: FloatKind, Nullable: true, Checks: []Check{InRange(0, 1)}},
		{Name: "label", Kind: StringKind},
	},
}

func TestSchema_ValidateCollectsAllViolations(t *testing.T) {
	tbl := table.New([]string{"id", "share", "label"}, [][]string{
		{"1", "0.5", "a"},
		{"x", "2", "b"},
		{"-4", "NA", ""},
		{"3", "inf", "c"},
	})

	_, err := testSchema.Validate(tbl)

	var se *SchemaValidationError
	require.ErrorAs(t, err, &se)
	reasons := make([]string, len(se.Violations))
	for i, v := range se.Violations {
		reasons[i] = v.Column + ": " + v.Reason
	}
	assert.ElementsMatch(t, []string{
		"id: not coercible to integer",
		"id: must be >= 0",
		"share: must be within [0, 1]",
		"share: not coercible to float",
		"label: missing value",
	}, reasons)
	assert.NotErrorIs(t, err, ErrMissingColumn)
}

func TestSchema_MissingColumn(t *testing.T) {
	tbl := table.New([]string{"id", "label"}, [][]string{{"1", "a"}})

	_, err := testSchema.Validate(tbl)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestSchema_ExtraColumnsStayReachable(t *testing.T) {
	tbl := table.New([]string{"id", "share", "label", "note"}, [][]string{{"7", "", "a", "kept"}})

	pt, err := testSchema.Validate(tbl)
	require.NoError(t, err)

	assert.Equal(t, int64(7), pt.Value(0, "id").Int)
	assert.True(t, pt.Value(0, "share").Null)
	assert.Equal(t, "kept", pt.Value(0, "note").Raw)
	assert.Same(t, testSchema, pt.Schema())
}

func TestSchemaValidationError_TruncatesMessage(t *testing.T) {
	err := &SchemaValidationError{Schema: "s"}
	for i := 0; i < 13; i++ {
		err.Violations = append(err.Violations, Violation{Column: "c", Row: i, Value: "v", Reason: "bad"})
	}
	assert.Contains(t, err.Error(), "13 violation(s)")
	assert.Contains(t, err.Error(), "and 3 more")
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "format", ErrorKind(&FormatError{Kind: ErrUnexpectedColumnCount}))
	assert.Equal(t, "schema", ErrorKind(&SchemaValidationError{}))
	assert.Equal(t, "standardisation", ErrorKind(&StandardisationError{}))
	assert.Equal(t, "io", ErrorKind(assert.AnError))
	assert.Equal(t, "", ErrorKind(nil))
}
