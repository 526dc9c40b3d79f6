package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Doomsbay/TaxPasta/taxpasta/table"
)

type sample struct {
	Name string
	Path string
}

// readSamplesheet reads a TSV or ODS sheet with "sample" and "profile"
// columns. Relative profile paths are resolved against the sheet's
// directory.
func readSamplesheet(path string) ([]sample, error) {
	src := table.FromPath(path)
	var (
		sheet *table.Table
		err   error
	)
	if strings.EqualFold(filepath.Ext(path), ".ods") {
		sheet, err = table.ReadSpreadsheetSource(src, table.SheetOptions{WarningsAsErrors: true})
	} else {
		var data []byte
		if data, err = src.ReadAll(); err == nil {
			opts := table.TSVOptions()
			opts.Header = true
			opts.StrictColumns = true
			opts.WarningsAsErrors = true
			sheet, err = table.ReadDelimited(bytes.NewReader(data), opts)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("read samplesheet: %w", err)
	}

	nameIdx, pathIdx := sheet.Index("sample"), sheet.Index("profile")
	if nameIdx < 0 || pathIdx < 0 {
		return nil, fmt.Errorf("samplesheet %s: need columns \"sample\" and \"profile\", got %v", path, sheet.Columns())
	}

	dir := filepath.Dir(path)
	samples := make([]sample, 0, sheet.NumRows())
	seen := make(map[string]int, sheet.NumRows())
	for i := 0; i < sheet.NumRows(); i++ {
		name := strings.TrimSpace(sheet.Cell(i, nameIdx))
		profilePath := strings.TrimSpace(sheet.Cell(i, pathIdx))
		if name == "" || profilePath == "" {
			return nil, fmt.Errorf("samplesheet %s: row %d: empty sample or profile", path, i+1)
		}
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("samplesheet %s: sample %q repeated in rows %d and %d", path, name, prev+1, i+1)
		}
		seen[name] = i
		if !filepath.IsAbs(profilePath) {
			profilePath = filepath.Join(dir, profilePath)
		}
		samples = append(samples, sample{Name: name, Path: profilePath})
	}
	return samples, nil
}
