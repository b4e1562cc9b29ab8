package importer

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Encoding is a text encoding of an imported file.
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1250 Encoding = "windows-1250"
	EncodingISO88592    Encoding = "iso-8859-2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectEncoding guesses the encoding of data. Anything that is not valid
// UTF-8 is assumed to be Windows-1250, the usual export format of Croatian
// spreadsheet tools.
func DetectEncoding(data []byte) Encoding {
	if bytes.HasPrefix(data, utf8BOM) || utf8.Valid(data) {
		return EncodingUTF8
	}
	return EncodingWindows1250
}

// Decode converts data in enc to a UTF-8 string. Valid UTF-8 input is
// returned as-is whatever enc says, so a mislabeled file is not decoded twice.
func Decode(data []byte, enc Encoding) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}

	var cm *charmap.Charmap
	switch enc {
	case EncodingUTF8, "", EncodingWindows1250:
		cm = charmap.Windows1250
	case EncodingISO88592:
		cm = charmap.ISO8859_2
	default:
		return "", fmt.Errorf("unsupported encoding %q", enc)
	}

	out, _, err := transform.Bytes(cm.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", enc, err)
	}
	return string(out), nil
}

// foldHeader lowercases a header and strips diacritics and separators so
// "Cijena", "cijena " and "CIJENA" all match.
func foldHeader(h string) string {
	h = strings.NewReplacer("đ", "dj", "Đ", "dj").Replace(h)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, _ := transform.String(t, h)

	folded = strings.ToLower(strings.TrimSpace(folded))
	folded = strings.NewReplacer(" ", "_", "-", "_", ".", "").Replace(folded)
	return folded
}
