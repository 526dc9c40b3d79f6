package profile

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/Doomsbay/TaxPasta/taxpasta/table"
)

// layout describes where a producer's data lives inside its raw file.
type layout struct {
	// Candidate schemas, picked by column count.
	schemas []*Schema

	// header means the first kept line names the columns. With fileNames
	// set those names are checked and then replaced by the schema's.
	header    bool
	fileNames []string

	// skip drops a fixed number of preamble lines. When marker is set the
	// first line starting with it decides the offset instead, and skip is
	// only the fallback. markerIsHeader keeps the marker line as header and
	// makes it mandatory.
	skip           int
	marker         string
	markerIsHeader bool
}

var errStopScan = errors.New("stop scan")

// findMarker returns the zero-based index of the first line starting with
// prefix, or -1.
func findMarker(data []byte, prefix string) (int, error) {
	found := -1
	err := table.Scan(bytes.NewReader(data), table.Options{AllowCRLF: true}, func(row table.Row) error {
		if bytes.HasPrefix(row.Raw, []byte(prefix)) {
			found = int(row.Line - 1)
			return errStopScan
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopScan) {
		return -1, err
	}
	return found, nil
}

// readProfile buffers src, locates the data, parses it strictly and
// validates the result against the matching schema. The source is released
// before returning on every path.
func readProfile(f Format, src table.Source, l layout) (*ProducerTable, error) {
	data, err := src.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s profile: %w", f, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &FormatError{Format: f, Source: src.Name(), Kind: ErrEmptyProfile}
	}

	opts := table.TSVOptions()
	opts.StrictColumns = true
	opts.WarningsAsErrors = true
	opts.SkipRows = l.skip
	opts.Header = l.header

	markerFound := false
	if l.marker != "" {
		idx, err := findMarker(data, l.marker)
		if err != nil {
			return nil, fmt.Errorf("scan %s profile: %w", f, err)
		}
		markerFound = idx >= 0
		switch {
		case idx >= 0 && l.markerIsHeader:
			opts.SkipRows = idx
			opts.Header = true
		case idx >= 0:
			opts.SkipRows = idx + 1
		case l.markerIsHeader:
			return nil, &FormatError{Format: f, Source: src.Name(), Kind: ErrHeaderNotFound, Detail: fmt.Sprintf("no line starts with %q", l.marker)}
		}
	}

	tbl, err := table.ReadDelimited(bytes.NewReader(data), opts)
	if err != nil {
		return nil, formatErrorFrom(f, src, err)
	}
	// A located header followed by no data is an empty profile, not a
	// zero-width table.
	if markerFound && !opts.Header && tbl.NumRows() == 0 {
		tbl = table.New(l.schemas[0].Names(), nil)
	}

	schema := pickSchema(l.schemas, tbl.NumColumns())
	if schema == nil {
		return nil, &FormatError{
			Format: f,
			Source: src.Name(),
			Kind:   ErrUnexpectedColumnCount,
			Detail: fmt.Sprintf("expected %s columns, got %d", expectedCounts(l.schemas), tbl.NumColumns()),
		}
	}

	switch {
	case opts.Header && l.fileNames != nil:
		if bad := headerViolations(tbl, l.fileNames); len(bad) > 0 {
			return nil, &SchemaValidationError{Schema: schema.Name, Violations: bad}
		}
		tbl, err = tbl.Rename(schema.Names())
	case !opts.Header:
		tbl, err = tbl.Rename(schema.Names())
	}
	if err != nil {
		return nil, &FormatError{Format: f, Source: src.Name(), Kind: ErrUnexpectedColumnCount, Detail: err.Error()}
	}

	return schema.Validate(tbl)
}

func formatErrorFrom(f Format, src table.Source, err error) error {
	var (
		cerr *table.ColumnCountError
		werr *table.WarningError
	)
	switch {
	case errors.As(err, &cerr):
		return &FormatError{Format: f, Source: src.Name(), Kind: ErrUnexpectedColumnCount, Detail: cerr.Detail()}
	case errors.As(err, &werr):
		return &FormatError{Format: f, Source: src.Name(), Kind: ErrParserWarning, Detail: werr.Error()}
	default:
		return fmt.Errorf("parse %s profile: %w", f, err)
	}
}

func pickSchema(schemas []*Schema, n int) *Schema {
	for _, s := range schemas {
		if s.Len() == n {
			return s
		}
	}
	return nil
}

func expectedCounts(schemas []*Schema) string {
	counts := make([]string, len(schemas))
	for i, s := range schemas {
		counts[i] = fmt.Sprint(s.Len())
	}
	return strings.Join(counts, " or ")
}

// headerViolations checks that a file header carries the expected names in
// the expected order.
func headerViolations(tbl *table.Table, names []string) []Violation {
	var out []Violation
	columns := tbl.Columns()
	for i, name := range names {
		switch {
		case i < len(columns) && columns[i] == name:
		case tbl.Index(name) < 0:
			out = append(out, Violation{Column: name, Row: -1, Reason: reasonMissingColumn})
		default:
			out = append(out, Violation{Column: name, Row: -1, Reason: fmt.Sprintf("expected at position %d", i)})
		}
	}
	return out
}
