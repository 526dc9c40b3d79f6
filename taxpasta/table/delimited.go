package table

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	defaultBufferSize = 1 << 20 // 1 MiB
	defaultChunkSize  = 1 << 20
)

var bom = []byte{0xef, 0xbb, 0xbf}

// ErrColumnCount is returned in strict mode when a row's field count differs
// from the table width.
var ErrColumnCount = errors.New("unexpected column count")

// ColumnCountError locates the row that tripped ErrColumnCount.
type ColumnCountError struct {
	Line      int64
	Want, Got int
}

func (e *ColumnCountError) Error() string {
	return fmt.Sprintf("%v: %s", ErrColumnCount, e.Detail())
}

// Detail is the message without the sentinel prefix.
func (e *ColumnCountError) Detail() string {
	return fmt.Sprintf("line %d: expected %d columns, got %d", e.Line, e.Want, e.Got)
}

func (e *ColumnCountError) Unwrap() error {
	return ErrColumnCount
}

// Options controls delimited-text parsing.
type Options struct {
	BufferSize int  // Size of the bufio.Reader buffer
	ChunkSize  int  // Bytes to read per chunk before splitting into lines
	Delimiter  byte // Field separator, tab when zero
	AllowCRLF  bool // Trim trailing \r when present

	SkipRows         int      // Raw lines dropped before the header or first data row
	Header           bool     // First kept line holds the column names
	Names            []string // Explicit column names when Header is false
	SkipBlankLines   bool     // Ignore lines that contain only whitespace
	StrictColumns    bool     // Fail on malformed rows instead of skipping them with a warning
	WarningsAsErrors bool     // Turn collected warnings into a *WarningError
}

// Row is a view over one line. Fields point into an internal buffer and are
// only valid for the duration of the callback in Scan.
type Row struct {
	Line   int64
	Raw    []byte
	Fields [][]byte
}

// WarningError carries every parser warning collected from one source.
type WarningError struct {
	Warnings []Warning
}

func (e *WarningError) Error() string {
	if len(e.Warnings) == 1 {
		return "parser warning: " + e.Warnings[0].String()
	}
	msgs := make([]string, 0, len(e.Warnings))
	for _, w := range e.Warnings {
		msgs = append(msgs, w.String())
	}
	return fmt.Sprintf("%d parser warnings: %s", len(e.Warnings), strings.Join(msgs, "; "))
}

// TSVOptions returns the baseline for tab-separated profiles.
func TSVOptions() Options {
	return Options{
		BufferSize:     defaultBufferSize,
		ChunkSize:      defaultChunkSize,
		Delimiter:      '\t',
		AllowCRLF:      true,
		SkipBlankLines: true,
	}
}

func (o Options) withDefaults() Options {
	if o.BufferSize <= 0 {
		o.BufferSize = defaultBufferSize
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = defaultChunkSize
	}
	if o.Delimiter == 0 {
		o.Delimiter = '\t'
	}
	return o
}

// Scan streams r line by line, invoking onRow for each. It keeps memory
// bounded by reusing one chunk buffer; row data is only valid inside onRow.
// A leading UTF-8 byte order mark is dropped.
func Scan(r io.Reader, opts Options, onRow func(Row) error) error {
	opts = opts.withDefaults()
	reader := bufio.NewReaderSize(r, opts.BufferSize)

	buf := make([]byte, opts.ChunkSize)
	tail := make([]byte, 0, 1024)
	var lineNum int64

	emit := func(line []byte) error {
		lineNum++
		if opts.AllowCRLF && len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		if lineNum == 1 {
			line = bytes.TrimPrefix(line, bom)
		}
		return onRow(Row{
			Line:   lineNum,
			Raw:    line,
			Fields: splitFields(line, opts.Delimiter),
		})
	}

	for {
		n, err := reader.Read(buf)
		if n > 0 {
			data := buf[:n]
			start := 0
			for i, b := range data {
				if b != '\n' {
					continue
				}
				line := data[start:i]
				if len(tail) > 0 {
					tail = append(tail, line...)
					line = tail
				}
				if cbErr := emit(line); cbErr != nil {
					return cbErr
				}
				tail = tail[:0]
				start = i + 1
			}
			tail = append(tail, data[start:]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	if len(tail) > 0 {
		return emit(tail)
	}
	return nil
}

// ReadDelimited parses r into a Table. Without a header or explicit names
// the columns are called c0, c1, ... and the width is taken from the first
// data row. Rows whose field count differs from the width are skipped with
// a warning, or fail the read when StrictColumns is set.
func ReadDelimited(r io.Reader, opts Options) (*Table, error) {
	opts = opts.withDefaults()

	var (
		columns  = append([]string(nil), opts.Names...)
		width    = len(opts.Names)
		rows     [][]string
		warnings []Warning
		skipped  int
		needHead = opts.Header
	)

	err := Scan(r, opts, func(row Row) error {
		if skipped < opts.SkipRows {
			skipped++
			return nil
		}
		if opts.SkipBlankLines && len(bytes.TrimSpace(row.Raw)) == 0 {
			return nil
		}
		if !utf8.Valid(row.Raw) {
			warnings = append(warnings, Warning{Line: row.Line, Message: "invalid UTF-8 sequence"})
		}

		fields := copyFields(row.Fields)
		if needHead {
			needHead = false
			columns = fields
			width = len(fields)
			return nil
		}
		if width == 0 {
			width = len(fields)
			columns = generatedNames(width)
		}
		if len(fields) != width {
			if opts.StrictColumns {
				return &ColumnCountError{Line: row.Line, Want: width, Got: len(fields)}
			}
			warnings = append(warnings, Warning{
				Line:    row.Line,
				Message: fmt.Sprintf("expected %d fields, saw %d; row skipped", width, len(fields)),
			})
			return nil
		}
		rows = append(rows, fields)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if opts.WarningsAsErrors && len(warnings) > 0 {
		return nil, &WarningError{Warnings: warnings}
	}

	t := &Table{columns: columns, rows: rows, warnings: warnings}
	t.buildIndex()
	return t, nil
}

func generatedNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("c%d", i)
	}
	return names
}

func copyFields(fields [][]byte) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

func splitFields(line []byte, sep byte) [][]byte {
	fields := make([][]byte, 0, 8)
	start := 0
	for i, b := range line {
		if b == sep {
			fields = append(fields, line[start:i])
			start = i + 1
		}
	}
	fields = append(fields, line[start:])
	return fields
}
