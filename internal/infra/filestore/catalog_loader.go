package filestore

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"daily_revelation_bot/internal/domain/catalog"
)

const messageColumn = "message"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadStats describes what LoadCatalog did with the source rows.
type LoadStats struct {
	Rows    int // data rows read, header excluded
	Loaded  int
	Skipped int // blank or short rows
}

// LoadCatalog reads the CSV message source at path. The header row must
// contain a "message" column; each data row contributes its trimmed message
// in file order. Every failure wraps catalog.ErrCatalogLoad.
func LoadCatalog(path string) (*catalog.Catalog, LoadStats, error) {
	var stats LoadStats

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, stats, fmt.Errorf("%w: %w", catalog.ErrCatalogLoad, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, stats, fmt.Errorf("%w: %s is not valid UTF-8", catalog.ErrCatalogLoad, path)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // short rows are skipped below, not rejected
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, fmt.Errorf("%w: %s is empty", catalog.ErrCatalogLoad, path)
		}
		return nil, stats, fmt.Errorf("%w: failed to read header of %s: %w", catalog.ErrCatalogLoad, path, err)
	}

	column := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), messageColumn) {
			column = i
			break
		}
	}
	if column < 0 {
		return nil, stats, fmt.Errorf("%w: %s has no %q column", catalog.ErrCatalogLoad, path, messageColumn)
	}

	var messages []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("%w: failed to parse %s: %w", catalog.ErrCatalogLoad, path, err)
		}
		stats.Rows++

		if column >= len(record) {
			stats.Skipped++
			continue
		}
		msg := strings.TrimSpace(record[column])
		if msg == "" {
			stats.Skipped++
			continue
		}
		messages = append(messages, msg)
	}
	stats.Loaded = len(messages)

	c, err := catalog.New(messages)
	if err != nil {
		return nil, stats, fmt.Errorf("%s: %w", path, err)
	}
	return c, stats, nil
}
