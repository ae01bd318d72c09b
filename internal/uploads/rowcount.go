package uploads

import (
	"bytes"
	"encoding/csv"
	"io"
	"unicode/utf8"
)

// CountDataRows counts the data rows in a CSV payload, treating the first
// record as a header. Blank lines are records too, so they count as data
// rows. Empty input, header-only input, non-UTF-8 bytes, and anything the
// CSV reader cannot parse all count as zero; a bad file still gets stored,
// it just reports no rows.
func CountDataRows(content []byte) int {
	if !utf8.Valid(content) {
		return 0
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0
		}
	}

	records := countRecords(content)
	if records <= 1 {
		return 0
	}
	return records - 1
}

// countRecords counts physical CSV records. encoding/csv skips blank lines,
// so the records are counted directly: every newline outside a quoted field
// terminates a record, a trailing unterminated line is a record, and a quote
// is only special at the start of a field.
func countRecords(content []byte) int {
	var (
		records    int
		inQuotes   bool
		pending    bool
		fieldStart = true
	)

	for i := 0; i < len(content); i++ {
		c := content[i]

		if inQuotes {
			pending = true
			if c == '"' {
				if i+1 < len(content) && content[i+1] == '"' {
					i++
					continue
				}
				inQuotes = false
			}
			continue
		}

		switch c {
		case '"':
			if fieldStart {
				inQuotes = true
			}
			fieldStart = false
			pending = true
		case ',':
			fieldStart = true
			pending = true
		case '\n':
			records++
			fieldStart = true
			pending = false
		case '\r':
			// swallowed as part of \r\n; a bare \r mid-field is data
		default:
			fieldStart = false
			pending = true
		}
	}

	if pending {
		records++
	}
	return records
}
