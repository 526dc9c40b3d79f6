package cmd

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/klauspost/pgzip"
	_ "modernc.org/sqlite"

	"github.com/Doomsbay/TaxPasta/taxpasta/profile"
)

const writerBufferSize = 1 << 20

// outputFormat picks the writer for path. An explicit format wins over the
// file extension.
func outputFormat(path, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".tsv.gz"), strings.HasSuffix(lower, ".txt.gz"):
		return "tsv.gz", nil
	case strings.HasSuffix(lower, ".tsv"), strings.HasSuffix(lower, ".txt"):
		return "tsv", nil
	case strings.HasSuffix(lower, ".arrow"), strings.HasSuffix(lower, ".ipc"), strings.HasSuffix(lower, ".feather"):
		return "arrow", nil
	case strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".db"):
		return "sqlite", nil
	}
	return "", fmt.Errorf("cannot infer output format from %q; use -output-format", filepath.Base(path))
}

// writeProfile writes p to path in the given format.
func writeProfile(path, format string, p *profile.StandardProfile, extra []annotation) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	switch format {
	case "tsv":
		return writeFile(path, func(w io.Writer) error { return writeTSV(w, p, extra) })
	case "tsv.gz":
		return writeFile(path, func(w io.Writer) error { return writeGzipTSV(w, p, extra) })
	case "arrow":
		return writeFile(path, func(w io.Writer) error { return writeArrow(w, p, extra) })
	case "sqlite":
		return replaceFile(path, func(tmp string) error { return writeSQLite(tmp, p, extra) })
	}
	return fmt.Errorf("unknown output format %q", format)
}

func writeFile(path string, write func(io.Writer) error) error {
	return replaceFile(path, func(tmp string) error {
		f, err := os.Create(tmp)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := write(f); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", path, err)
		}
		return nil
	})
}

// replaceFile builds the output at a temporary path beside path and moves it
// into place only when fill succeeds. A failed write leaves path untouched.
func replaceFile(path string, fill func(tmp string) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	tmp := f.Name()
	_ = f.Close()

	if err := fill(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("move %s into place: %w", path, err)
	}
	return nil
}

func writeTSV(w io.Writer, p *profile.StandardProfile, extra []annotation) error {
	if len(extra) == 0 {
		return p.WriteTSV(w)
	}

	buf := bufio.NewWriterSize(w, writerBufferSize)
	header := []string{profile.TaxonomyIDColumn, profile.CountColumn}
	for _, a := range extra {
		header = append(header, a.name)
	}
	if _, err := buf.WriteString(strings.Join(header, "\t") + "\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	line := make([]byte, 0, 256)
	for _, e := range p.Entries() {
		line = strconv.AppendInt(line[:0], e.TaxonomyID, 10)
		line = append(line, '\t')
		line = strconv.AppendInt(line, e.Count, 10)
		for _, a := range extra {
			line = append(line, '\t')
			line = append(line, a.resolve(e.TaxonomyID)...)
		}
		line = append(line, '\n')
		if _, err := buf.Write(line); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return buf.Flush()
}

func writeGzipTSV(w io.Writer, p *profile.StandardProfile, extra []annotation) error {
	pw, err := pgzip.NewWriterLevel(w, pgzip.DefaultCompression)
	if err != nil {
		return fmt.Errorf("create gzip writer: %w", err)
	}
	if err := pw.SetConcurrency(1<<20, runtime.GOMAXPROCS(0)); err != nil {
		_ = pw.Close()
		return fmt.Errorf("set gzip concurrency: %w", err)
	}
	if err := writeTSV(pw, p, extra); err != nil {
		_ = pw.Close()
		return err
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close gzip writer: %w", err)
	}
	return nil
}

// annotatedRecord extends the profile record with one string column per
// annotation. The caller must Release it.
func annotatedRecord(mem memory.Allocator, p *profile.StandardProfile, extra []annotation) arrow.Record {
	base := p.Record(mem)
	if len(extra) == 0 {
		return base
	}
	defer base.Release()

	fields := base.Schema().Fields()
	columns := append([]arrow.Array(nil), base.Columns()...)
	entries := p.Entries()
	for _, a := range extra {
		fields = append(fields, arrow.Field{Name: a.name, Type: arrow.BinaryTypes.String})
		b := array.NewStringBuilder(mem)
		b.Reserve(len(entries))
		for _, e := range entries {
			b.Append(a.resolve(e.TaxonomyID))
		}
		arr := b.NewArray()
		b.Release()
		defer arr.Release()
		columns = append(columns, arr)
	}
	return array.NewRecord(arrow.NewSchema(fields, nil), columns, base.NumRows())
}

func writeArrow(w io.Writer, p *profile.StandardProfile, extra []annotation) error {
	mem := memory.NewGoAllocator()
	rec := annotatedRecord(mem, p, extra)
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("create arrow writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return fmt.Errorf("write arrow record: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close arrow writer: %w", err)
	}
	return nil
}

// writeSQLite replaces path with a database holding a single "profile"
// table.
func writeSQLite(path string, p *profile.StandardProfile, extra []annotation) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	columns := []string{profile.TaxonomyIDColumn, profile.CountColumn}
	defs := []string{profile.TaxonomyIDColumn + " INTEGER PRIMARY KEY", profile.CountColumn + " INTEGER NOT NULL"}
	for _, a := range extra {
		columns = append(columns, a.name)
		defs = append(defs, a.name+" TEXT")
	}

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sqlite tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE profile ("+strings.Join(defs, ", ")+")"); err != nil {
		return fmt.Errorf("create profile table: %w", err)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO profile ("+strings.Join(columns, ", ")+") VALUES ("+placeholders+")")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	args := make([]any, len(columns))
	for _, e := range p.Entries() {
		args[0], args[1] = e.TaxonomyID, e.Count
		for i, a := range extra {
			args[2+i] = a.resolve(e.TaxonomyID)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert taxonomy_id %d: %w", e.TaxonomyID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite tx: %w", err)
	}
	return nil
}
