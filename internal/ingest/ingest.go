// Package ingest decodes an uploaded batch payload into raw records.
//
// Payloads are sniffed rather than trusted: the content type comes from the
// bytes (with the file extension as a tiebreaker), the text encoding from the
// BOM or UTF-8 validity, and only then is the body parsed as CSV, a JSON
// array, or NDJSON. Every failure is a parse error that rejects the batch.
package ingest

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/crimson-sun/riskscan/internal/model"
)

// Format is a supported batch payload format.
type Format int

const (
	FormatCSV Format = iota
	FormatJSON
	FormatNDJSON
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatNDJSON:
		return "ndjson"
	default:
		return "csv"
	}
}

// Batch is a decoded payload.
type Batch struct {
	Records  []model.RawRecord
	Columns  []string // in first-seen order
	Format   Format
	Encoding string
}

// DefaultMaxBytes bounds a payload when the caller sets no limit.
const DefaultMaxBytes = 32 << 20

// Read decodes a payload of at most limit bytes. name is the uploaded file
// name and only serves as a format hint.
func Read(r io.Reader, name string, limit int64) (*Batch, error) {
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, model.ParseError(err, "Invalid CSV format: could not read upload")
	}
	if int64(len(data)) > limit {
		return nil, model.ParseError(nil, "Invalid CSV format: file exceeds %s", humanize.IBytes(uint64(limit)))
	}
	return Decode(data, name)
}

// Decode decodes an in-memory payload.
func Decode(data []byte, name string) (*Batch, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, model.ParseError(nil, "Invalid CSV format: file is empty")
	}

	mt := mimetype.Detect(data)
	if !isText(mt) {
		return nil, model.ParseError(nil, "Invalid CSV format: unsupported content type %s", mt.String())
	}

	text, enc, err := toUTF8(data)
	if err != nil {
		return nil, model.ParseError(err, "Invalid CSV format: undecodable text")
	}

	format := detectFormat(text, name)
	var b *Batch
	switch format {
	case FormatJSON:
		b, err = decodeJSON(text)
	case FormatNDJSON:
		b, err = decodeNDJSON(text)
	default:
		b, err = decodeCSV(text)
	}
	if err != nil {
		return nil, err
	}
	b.Format = format
	b.Encoding = enc
	return b, nil
}

func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// toUTF8 transcodes data to UTF-8. A BOM wins; otherwise valid UTF-8 is
// kept and anything else is read as Windows-1252.
func toUTF8(data []byte) ([]byte, string, error) {
	var fallback transform.Transformer = unicode.UTF8.NewDecoder()
	enc := "utf-8"
	if !utf8.Valid(data) {
		fallback = charmap.Windows1252.NewDecoder()
		enc = "windows-1252"
	}
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		enc = "utf-8"
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		enc = "utf-16le"
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		enc = "utf-16be"
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(fallback), data)
	if err != nil {
		return nil, "", err
	}
	return out, enc, nil
}

func detectFormat(text []byte, name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	case ".csv":
		return FormatCSV
	}
	mt := mimetype.Detect(text)
	switch {
	case mt.Is("application/x-ndjson"):
		return FormatNDJSON
	case mt.Is("application/json"):
		return FormatJSON
	default:
		return FormatCSV
	}
}

// normalizeHeader trims a column name and folds compatibility characters
// (full-width letters, ligatures) so aliases match.
func normalizeHeader(h string) string {
	return norm.NFKC.String(strings.TrimSpace(h))
}

// columnSet tracks column names in first-seen order.
type columnSet struct {
	names []string
	seen  map[string]bool
}

func (c *columnSet) add(name string) {
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	if !c.seen[name] {
		c.seen[name] = true
		c.names = append(c.names, name)
	}
}

func rowError(row int, format string, args ...any) error {
	return model.ParseError(nil, "Invalid CSV format: row %d: %s", row, fmt.Sprintf(format, args...))
}
