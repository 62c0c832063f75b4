package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// DetectCharset returns the most likely charset of data, "utf-8" when unsure.
func DetectCharset(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// toUTF8 transcodes descriptors saved by tools that do not write UTF-8.
// Valid UTF-8 is returned untouched.
func toUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	enc, _ := charset.Lookup(DetectCharset(data))
	if enc == nil {
		return data
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return out
}
