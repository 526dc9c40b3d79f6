package profile

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
)

// Standard profile column names and the unclassified sentinel.
const (
	TaxonomyIDColumn       = "taxonomy_id"
	CountColumn            = "count"
	UnclassifiedID   int64 = 0
)

// StandardSchema is the single output shape shared by all producers.
var StandardSchema = &Schema{
	Name: "standard",
	Columns: []Column{
		{Name: TaxonomyIDColumn, Kind: IntKind, Checks: []Check{NonNegative()}},
		{Name: CountColumn, Kind: IntKind, Checks: []Check{NonNegative()}},
	},
}

var arrowSchema = arrow.NewSchema([]arrow.Field{
	{Name: TaxonomyIDColumn, Type: arrow.PrimitiveTypes.Int64},
	{Name: CountColumn, Type: arrow.PrimitiveTypes.Int64},
}, nil)

// ArrowSchema returns the Arrow schema of StandardProfile.Record.
func ArrowSchema() *arrow.Schema {
	return arrowSchema
}

// Entry is one row of a standard profile.
type Entry struct {
	TaxonomyID int64
	Count      int64
}

// StandardProfile maps unique taxonomy identifiers to non-negative integer
// counts. Rows keep first-appearance order with the unclassified bucket last.
type StandardProfile struct {
	format  Format
	entries []Entry
	index   map[int64]int
}

// Format returns the producer format the profile was standardised from.
func (p *StandardProfile) Format() Format {
	return p.format
}

// Len returns the number of rows.
func (p *StandardProfile) Len() int {
	return len(p.entries)
}

// Entries returns a copy of the rows.
func (p *StandardProfile) Entries() []Entry {
	return append([]Entry(nil), p.entries...)
}

// Count returns the count recorded for a taxonomy identifier.
func (p *StandardProfile) Count(taxonomyID int64) (int64, bool) {
	i, ok := p.index[taxonomyID]
	if !ok {
		return 0, false
	}
	return p.entries[i].Count, true
}

// Total returns the sum of all counts, unclassified included.
func (p *StandardProfile) Total() int64 {
	var total int64
	for _, e := range p.entries {
		total += e.Count
	}
	return total
}

// Record builds an Arrow record with int64 taxonomy_id and count columns.
// The caller must Release it.
func (p *StandardProfile) Record(mem memory.Allocator) arrow.Record {
	b := array.NewRecordBuilder(mem, arrowSchema)
	defer b.Release()

	ids := b.Field(0).(*array.Int64Builder)
	counts := b.Field(1).(*array.Int64Builder)
	ids.Reserve(len(p.entries))
	counts.Reserve(len(p.entries))
	for _, e := range p.entries {
		ids.Append(e.TaxonomyID)
		counts.Append(e.Count)
	}
	return b.NewRecord()
}

// WriteTSV writes the profile as a two-column TSV with a header row.
func (p *StandardProfile) WriteTSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(TaxonomyIDColumn + "\t" + CountColumn + "\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	line := make([]byte, 0, 32)
	for _, e := range p.entries {
		line = strconv.AppendInt(line[:0], e.TaxonomyID, 10)
		line = append(line, '\t')
		line = strconv.AppendInt(line, e.Count, 10)
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return bw.Flush()
}

// parseTaxonomyID coerces an identifier to a strict non-negative integer.
// Non-numeric values and negative sentinels such as -1 fail.
func parseTaxonomyID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// builder accumulates (taxonomy id, count) pairs and folds duplicates and
// unclassified rows into a StandardProfile.
type builder struct {
	format       Format
	order        []int64
	counts       map[int64]int64
	unclassified int64
	merged       int
	overflow     bool
	negative     bool
	// keepUnclassified emits the unclassified row even when nothing was
	// merged into it.
	keepUnclassified bool
}

func newBuilder(f Format, n int) *builder {
	return &builder{
		format: f,
		order:  make([]int64, 0, n),
		counts: make(map[int64]int64, n),
	}
}

func (b *builder) sum(acc, count int64) int64 {
	if count < 0 {
		b.negative = true
	}
	if count > 0 && acc > math.MaxInt64-count {
		b.overflow = true
		return acc
	}
	return acc + count
}

// add records a count for id. Id 0 lands in the unclassified bucket.
func (b *builder) add(id, count int64) {
	if id == UnclassifiedID {
		b.addUnclassified(count)
		return
	}
	acc, seen := b.counts[id]
	if !seen {
		b.order = append(b.order, id)
	}
	b.counts[id] = b.sum(acc, count)
}

// addRaw coerces raw into an identifier first; failures are unclassified.
func (b *builder) addRaw(raw string, count int64) {
	id, ok := parseTaxonomyID(raw)
	if !ok {
		b.addUnclassified(count)
		return
	}
	b.add(id, count)
}

func (b *builder) addUnclassified(count int64) {
	b.merged++
	b.unclassified = b.sum(b.unclassified, count)
}

func (b *builder) build(logger *slog.Logger) (*StandardProfile, error) {
	if b.overflow {
		return nil, &StandardisationError{Format: b.format, Reason: "count sum overflows int64"}
	}
	if b.negative {
		return nil, &StandardisationError{Format: b.format, Reason: "negative count"}
	}
	if b.merged > 0 {
		logger.Info("Combining entries with unclassified taxa in the profile",
			slog.String("producer", b.format.String()),
			slog.Int("rows", b.merged))
	}

	entries := make([]Entry, 0, len(b.order)+1)
	for _, id := range b.order {
		entries = append(entries, Entry{TaxonomyID: id, Count: b.counts[id]})
	}
	if b.merged > 0 || b.keepUnclassified {
		entries = append(entries, Entry{TaxonomyID: UnclassifiedID, Count: b.unclassified})
	}
	return newStandardProfile(b.format, entries)
}

// newStandardProfile checks the standard profile invariants.
func newStandardProfile(f Format, entries []Entry) (*StandardProfile, error) {
	index := make(map[int64]int, len(entries))
	for i, e := range entries {
		if e.TaxonomyID < 0 {
			return nil, &StandardisationError{Format: f, Reason: fmt.Sprintf("negative taxonomy_id %d", e.TaxonomyID)}
		}
		if e.Count < 0 {
			return nil, &StandardisationError{Format: f, Reason: fmt.Sprintf("negative count %d for taxonomy_id %d", e.Count, e.TaxonomyID)}
		}
		if _, dup := index[e.TaxonomyID]; dup {
			return nil, &StandardisationError{Format: f, Reason: fmt.Sprintf("duplicate taxonomy_id %d", e.TaxonomyID)}
		}
		index[e.TaxonomyID] = i
	}
	return &StandardProfile{format: f, entries: entries, index: index}, nil
}
