package identity

import (
	"net/url"
	"strings"
)

// Separator splits the escaped name from the escaped source location.
const Separator = '@'

const hexDigits = "0123456789ABCDEF"

// reserved are always escaped by Encode; a raw occurrence marks a foreign string.
const reserved = `/\:*?"<>|`

// Encode builds the identifier for a display name and source location.
func Encode(name, source string) string {
	if source == "" {
		return escape(name)
	}
	return escape(name) + string(Separator) + escape(source)
}

// Decode splits an identifier back into display name and source location.
func Decode(id string) (name, source string) {
	if id == "" {
		return "", ""
	}
	if isForeign(id) {
		return "", id
	}
	if i := strings.IndexByte(id, Separator); i >= 0 {
		return unescape(id[:i]), unescape(id[i+1:])
	}
	return unescape(id), ""
}

// IsWellFormedLocation reports whether s is an absolute http(s) URL with a host.
func IsWellFormedLocation(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func isForeign(id string) bool {
	for i := 0; i < len(id); i++ {
		c := id[i]
		if c < 0x20 || c == 0x7f || strings.IndexByte(reserved, c) >= 0 {
			return true
		}
	}
	return false
}

func needsEscape(s string, i int) bool {
	c := s[i]
	switch {
	case c < 0x20 || c == 0x7f:
		return true
	case c == '%' || c == Separator:
		return true
	case strings.IndexByte(reserved, c) >= 0:
		return true
	case c == '.' && (i == 0 || i == len(s)-1):
		return true
	case c == ' ' && i == len(s)-1:
		return true
	}
	return false
}

func escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if needsEscape(s, i) {
			c := s[i]
			b.WriteByte('%')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0x0f])
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// unescape reverses escape. Malformed sequences are kept literally.
func unescape(s string) string {
	if strings.IndexByte(s, '%') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := fromHex(s[i+1])
			lo, okLo := fromHex(s[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func fromHex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
