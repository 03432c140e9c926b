// Package decode turns raw uploaded bytes into tables. The source systems
// export CSV in whatever encoding their report writers happen to use, so
// decoding tries a fixed chain of encodings and accepts the first one that
// parses cleanly, with a lenient last-resort pass for ragged files.
package decode

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"recon945/internal/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeError reports that none of the attempted encodings yielded a
// parseable delimited table. It wraps the parse failure of the final
// attempt.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("CSV read error for %s: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode parses data as a delimited table, trying UTF-8, UTF-8 with
// signature, UTF-16 and Latin-1 in that order, then one encoding-agnostic
// lenient parse. name labels the input in error messages.
func Decode(name string, data []byte) (*table.Table, error) {
	for _, dec := range []func([]byte) (string, error){
		decodeUTF8,
		decodeUTF8Sig,
		decodeUTF16,
		decodeLatin1,
	} {
		text, err := dec(data)
		if err != nil {
			continue
		}
		if tbl, err := parseStrict(text); err == nil {
			return tbl, nil
		}
	}

	// Last attempt: tolerate ragged rows and stray quotes. Its error is
	// the one surfaced, being the final word on the payload.
	tbl, err := parseLenient(string(data))
	if err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}
	return tbl, nil
}

// decodeUTF8 accepts only clean UTF-8 without a signature; a leading BOM
// falls through to the signature-aware leg so it cannot pollute the first
// header name.
func decodeUTF8(data []byte) (string, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		return "", errors.New("utf-8: unexpected byte order mark")
	}
	if !utf8.Valid(data) {
		return "", errors.New("utf-8: invalid byte sequence")
	}
	return string(data), nil
}

func decodeUTF8Sig(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", errors.New("utf-8-sig: invalid byte sequence")
	}
	return string(data), nil
}

func decodeUTF16(data []byte) (string, error) {
	if len(data)%2 != 0 {
		return "", errors.New("utf-16: odd byte length")
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	text, err := dec.Bytes(data)
	if err != nil {
		return "", fmt.Errorf("utf-16: %w", err)
	}
	return string(text), nil
}

func decodeLatin1(data []byte) (string, error) {
	text, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("latin-1: %w", err)
	}
	return string(text), nil
}

// parseStrict requires every row to match the header width, so that text
// decoded with the wrong encoding fails here and the chain moves on.
func parseStrict(text string) (*table.Table, error) {
	r := csv.NewReader(strings.NewReader(text))
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return fromRecords(records)
}

func parseLenient(text string) (*table.Table, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return fromRecords(records)
}

func fromRecords(records [][]string) (*table.Table, error) {
	if len(records) == 0 {
		return nil, errors.New("no columns to parse from file")
	}
	return table.FromRows(records[0], records[1:]), nil
}
