package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/roach88/traiter/internal/engine"
)

// Input formats accepted by extract.
const (
	InputAuto  = "auto"
	InputCSV   = "csv"
	InputLines = "lines"
)

// lineField is the field name given to plain-text lines.
const lineField = "text"

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// openInput opens path, or stdin for "-", and transparently decompresses
// gzip and zstd streams by their magic bytes.
func openInput(path string) (io.ReadCloser, error) {
	var f io.ReadCloser = os.Stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		f = file
	}

	br := bufio.NewReader(f)
	magic, _ := br.Peek(4)
	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd: %w", err)
		}
		rc := zr.IOReadCloser()
		return &stackedCloser{Reader: rc, closers: []io.Closer{rc, f}}, nil
	}
	return &stackedCloser{Reader: br, closers: []io.Closer{f}}, nil
}

// stackedCloser closes a decompressor and then the file under it.
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var errs []error
	for _, c := range s.closers {
		if c == os.Stdin {
			continue
		}
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// detectFormat picks csv for *.csv paths, ignoring a compression suffix,
// and lines otherwise.
func detectFormat(path, format string) string {
	if format != InputAuto {
		return format
	}
	name := strings.TrimSuffix(strings.TrimSuffix(path, ".gz"), ".zst")
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return InputCSV
	}
	return InputLines
}

// recordReader streams records from an input.
type recordReader struct {
	format  string
	columns []string // wide CSV: the columns to extract
	idCol   string
}

// read sends every record in r to out, in input order, and closes out. It
// stops early when ctx is done.
func (rr recordReader) read(ctx context.Context, r io.Reader, out chan<- engine.Record) error {
	defer close(out)

	send := func(rec engine.Record) error {
		select {
		case out <- rec:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	switch rr.format {
	case InputLines:
		return readLines(r, send)
	case InputCSV:
		return rr.readCSV(r, send)
	default:
		return fmt.Errorf("unknown input format %q", rr.format)
	}
}

func readLines(r io.Reader, send func(engine.Record) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		if err := send(engine.Record{ID: "line-" + strconv.Itoa(n), Field: lineField, Text: text}); err != nil {
			return err
		}
	}
	return sc.Err()
}

// readCSV reads either a long file with id, field and text columns, or a
// wide file where each selected column is a field of the row.
func (rr recordReader) readCSV(r io.Reader, send func(engine.Record) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("read header: %w", err)
	}
	header = slices.Clone(header)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}

	idIdx, ok := index[rr.idCol]
	if !ok {
		return fmt.Errorf("csv header has no %q column", rr.idCol)
	}

	type fieldCol struct {
		name string
		idx  int
	}
	var fields []fieldCol
	fieldIdx, hasField := index["field"]
	textIdx, hasText := index["text"]
	long := len(rr.columns) == 0
	if long {
		if !hasField || !hasText {
			return fmt.Errorf("csv needs field and text columns, or --columns to pick fields")
		}
	} else {
		for _, c := range rr.columns {
			i, ok := index[c]
			if !ok {
				return fmt.Errorf("csv header has no %q column", c)
			}
			fields = append(fields, fieldCol{name: c, idx: i})
		}
	}

	cell := func(row []string, i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		id := cell(row, idIdx)
		if long {
			text := cell(row, textIdx)
			if strings.TrimSpace(text) == "" {
				continue
			}
			if err := send(engine.Record{ID: id, Field: cell(row, fieldIdx), Text: text}); err != nil {
				return err
			}
			continue
		}
		for _, f := range fields {
			text := cell(row, f.idx)
			if strings.TrimSpace(text) == "" {
				continue
			}
			if err := send(engine.Record{ID: id, Field: f.name, Text: text}); err != nil {
				return err
			}
		}
	}
}
