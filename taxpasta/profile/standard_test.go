package profile

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/Doomsbay/TaxPasta/taxpasta/table"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuilder_FoldsDuplicatesAndUnclassified(t *testing.T) {
	b := newBuilder(Kaiju, 6)
	b.add(562, 10)
	b.addUnclassified(3)
	b.add(1423, 5)
	b.add(562, 7)
	b.add(UnclassifiedID, 2)
	b.addRaw("not-a-taxon", 1)
	b.addRaw("-1", 4)

	p, err := b.build(discardLogger())
	require.NoError(t, err)

	assert.Equal(t, []Entry{{562, 17}, {1423, 5}, {0, 10}}, p.Entries())
	assert.Equal(t, int64(32), p.Total())
}

func TestBuilder_NoUnclassifiedRowWhenNothingMerged(t *testing.T) {
	b := newBuilder(Bracken, 1)
	b.add(9606, 1)

	p, err := b.build(discardLogger())
	require.NoError(t, err)
	_, ok := p.Count(UnclassifiedID)
	assert.False(t, ok)

	b = newBuilder(MetaPhlAn, 1)
	b.keepUnclassified = true
	b.add(9606, 1)
	p, err = b.build(discardLogger())
	require.NoError(t, err)
	count, ok := p.Count(UnclassifiedID)
	assert.True(t, ok)
	assert.Zero(t, count)
}

func TestBuilder_Invariants(t *testing.T) {
	t.Run("overflow", func(t *testing.T) {
		b := newBuilder(Ganon, 2)
		b.add(2, math.MaxInt64)
		b.add(2, 1)
		_, err := b.build(discardLogger())

		var se *StandardisationError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, Ganon, se.Format)
	})

	t.Run("negative count", func(t *testing.T) {
		b := newBuilder(Ganon, 1)
		b.add(2, -1)
		_, err := b.build(discardLogger())

		var se *StandardisationError
		assert.ErrorAs(t, err, &se)
	})

	t.Run("duplicate identifier", func(t *testing.T) {
		_, err := newStandardProfile(Diamond, []Entry{{1, 1}, {1, 2}})

		var se *StandardisationError
		require.ErrorAs(t, err, &se)
		assert.Contains(t, se.Error(), "duplicate taxonomy_id 1")
	})
}

func TestStandardProfile_WriteTSV(t *testing.T) {
	p, err := newStandardProfile(Kraken2, []Entry{{562, 60}, {1423, 25}, {0, 10}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.WriteTSV(&buf))
	assert.Equal(t, "taxonomy_id\tcount\n562\t60\n1423\t25\n0\t10\n", buf.String())
}

func TestStandardProfile_Record(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	p, err := newStandardProfile(Kraken2, []Entry{{562, 60}, {0, 10}})
	require.NoError(t, err)

	rec := p.Record(mem)
	defer rec.Release()

	require.Equal(t, int64(2), rec.NumRows())
	assert.True(t, rec.Schema().Equal(ArrowSchema()))
	ids := rec.Column(0).(*array.Int64)
	counts := rec.Column(1).(*array.Int64)
	assert.Equal(t, []int64{562, 0}, ids.Int64Values())
	assert.Equal(t, []int64{60, 10}, counts.Int64Values())
}

func TestStandardProfile_ConformsToStandardSchema(t *testing.T) {
	p, err := Standardise(MOTUs, fixture("motus", "valid.tsv"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.WriteTSV(&buf))
	opts := table.TSVOptions()
	opts.Header = true
	tbl, err := table.ReadDelimited(&buf, opts)
	require.NoError(t, err)

	_, err = StandardSchema.Validate(tbl)
	assert.NoError(t, err)
}
