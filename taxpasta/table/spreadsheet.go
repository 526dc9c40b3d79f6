package table

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrSheetNotFound is returned when a named sheet is absent from the document.
var ErrSheetNotFound = errors.New("sheet not found")

// SheetOptions selects and shapes an OpenDocument spreadsheet table.
type SheetOptions struct {
	Sheet            string // Sheet name, first sheet when empty
	NoHeader         bool   // Treat the first row as data and name columns c0, c1, ...
	WarningsAsErrors bool   // Turn collected warnings into a *WarningError
}

type odsDocument struct {
	Tables []odsTable `xml:"body>spreadsheet>table"`
}

// odsTable keeps rows in document order, including rows nested in header,
// group and plain row containers.
type odsTable struct {
	Name string
	Rows []odsRow
}

func (t *odsTable) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, a := range start.Attr {
		if a.Name.Local == "name" {
			t.Name = a.Value
		}
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "table-row":
				var r odsRow
				if err := d.DecodeElement(&r, &el); err != nil {
					return err
				}
				t.Rows = append(t.Rows, r)
			case "table-header-rows", "table-row-group", "table-rows":
				// Descend; the container's rows follow inline.
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if el.Name == start.Name {
				return nil
			}
		}
	}
}

type odsRow struct {
	Repeat int       `xml:"number-rows-repeated,attr"`
	Cells  []odsCell `xml:",any"`
}

type odsCell struct {
	XMLName   xml.Name
	Repeat    int       `xml:"number-columns-repeated,attr"`
	ValueType string    `xml:"value-type,attr"`
	Value     string    `xml:"value,attr"`
	BoolValue string    `xml:"boolean-value,attr"`
	DateValue string    `xml:"date-value,attr"`
	Paras     []odsPara `xml:"p"`
}

type odsPara struct {
	text string
}

func (p *odsPara) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "s":
				n := 1
				for _, a := range t.Attr {
					if a.Name.Local == "c" {
						if v, err := strconv.Atoi(a.Value); err == nil && v > 0 {
							n = v
						}
					}
				}
				b.WriteString(strings.Repeat(" ", n))
			case "tab":
				b.WriteByte('\t')
			case "line-break":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			depth--
		case xml.CharData:
			b.Write(t)
		}
	}
	p.text = b.String()
	return nil
}

func (c odsCell) text() string {
	switch c.ValueType {
	case "float", "percentage", "currency":
		if c.Value != "" {
			return c.Value
		}
	case "boolean":
		if c.BoolValue != "" {
			return c.BoolValue
		}
	case "date":
		if c.DateValue != "" {
			return c.DateValue
		}
	}
	parts := make([]string, len(c.Paras))
	for i, p := range c.Paras {
		parts[i] = p.text
	}
	return strings.Join(parts, "\n")
}

// ReadSpreadsheet parses the first (or named) sheet of an OpenDocument
// spreadsheet. Trailing empty rows and cells, which office suites emit as
// large repeat counts, are dropped.
func ReadSpreadsheet(r io.ReaderAt, size int64, opts SheetOptions) (*Table, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	var content *zip.File
	for _, f := range zr.File {
		if f.Name == "content.xml" {
			content = f
			break
		}
	}
	if content == nil {
		return nil, errors.New("open spreadsheet: content.xml missing")
	}

	rc, err := content.Open()
	if err != nil {
		return nil, fmt.Errorf("open content.xml: %w", err)
	}
	defer func() {
		_ = rc.Close()
	}()

	var doc odsDocument
	if err := xml.NewDecoder(rc).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode content.xml: %w", err)
	}
	if len(doc.Tables) == 0 {
		return nil, fmt.Errorf("%w: document has no sheets", ErrSheetNotFound)
	}

	sheet := &doc.Tables[0]
	if opts.Sheet != "" {
		sheet = nil
		for i := range doc.Tables {
			if doc.Tables[i].Name == opts.Sheet {
				sheet = &doc.Tables[i]
				break
			}
		}
		if sheet == nil {
			return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, opts.Sheet)
		}
	}

	t := sheetTable(expandRows(sheet), opts)
	if opts.WarningsAsErrors && len(t.warnings) > 0 {
		return nil, &WarningError{Warnings: t.warnings}
	}
	return t, nil
}

// ReadSpreadsheetSource buffers src and parses it with ReadSpreadsheet.
func ReadSpreadsheetSource(src Source, opts SheetOptions) (*Table, error) {
	data, err := src.ReadAll()
	if err != nil {
		return nil, err
	}
	return ReadSpreadsheet(bytes.NewReader(data), int64(len(data)), opts)
}

func expandRows(sheet *odsTable) [][]string {
	var (
		rows         [][]string
		pendingEmpty int
	)
	for _, r := range sheet.Rows {
		values := expandCells(r.Cells)
		repeat := r.Repeat
		if repeat < 1 {
			repeat = 1
		}
		if len(values) == 0 {
			pendingEmpty += repeat
			continue
		}
		for ; pendingEmpty > 0; pendingEmpty-- {
			rows = append(rows, nil)
		}
		for i := 0; i < repeat; i++ {
			rows = append(rows, append([]string(nil), values...))
		}
	}
	return rows
}

func expandCells(cells []odsCell) []string {
	var (
		values       []string
		pendingEmpty int
	)
	for _, c := range cells {
		if c.XMLName.Local != "table-cell" && c.XMLName.Local != "covered-table-cell" {
			continue
		}
		repeat := c.Repeat
		if repeat < 1 {
			repeat = 1
		}
		text := c.text()
		if text == "" {
			pendingEmpty += repeat
			continue
		}
		for ; pendingEmpty > 0; pendingEmpty-- {
			values = append(values, "")
		}
		for i := 0; i < repeat; i++ {
			values = append(values, text)
		}
	}
	return values
}

func sheetTable(cells [][]string, opts SheetOptions) *Table {
	t := &Table{}
	if len(cells) == 0 {
		t.buildIndex()
		return t
	}

	width := 0
	for _, row := range cells {
		if len(row) > width {
			width = len(row)
		}
	}

	body := cells
	firstLine := 1
	if opts.NoHeader {
		t.columns = generatedNames(width)
	} else {
		t.columns = pad(cells[0], len(cells[0]))
		body = cells[1:]
		width = len(t.columns)
		firstLine = 2
	}

	for i, row := range body {
		if len(row) > width {
			t.warnings = append(t.warnings, Warning{
				Line:    int64(i + firstLine),
				Message: fmt.Sprintf("expected %d cells, saw %d; extra cells dropped", width, len(row)),
			})
			row = row[:width]
		}
		t.rows = append(t.rows, pad(row, width))
	}
	t.buildIndex()
	return t
}

func pad(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}
