package exporter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	apierrors "casecount/internal/errors"
)

// maxSheetNameLength is Excel's limit on worksheet names, in characters.
const maxSheetNameLength = 31

// invalidSheetChars may not appear in worksheet names.
const invalidSheetChars = `:\/?*[]`

// validateSheetName rejects names Excel would refuse to open.
func validateSheetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apierrors.NewExportError("sheet name is empty", nil)
	}
	if n := utf8.RuneCountInString(name); n > maxSheetNameLength {
		return apierrors.NewExportError(
			fmt.Sprintf("sheet name %q is %d characters, the limit is %d", name, n, maxSheetNameLength), nil).
			WithContext("sheet", name)
	}
	if strings.ContainsAny(name, invalidSheetChars) {
		return apierrors.NewExportError(fmt.Sprintf("sheet name %q contains a character Excel does not allow", name), nil).
			WithContext("sheet", name)
	}
	return nil
}

// columnWidth sizes a column to its longest value, within sane bounds.
func columnWidth(values ...string) float64 {
	longest := 10
	for _, v := range values {
		if n := utf8.RuneCountInString(v); n > longest {
			longest = n
		}
	}
	if longest > 60 {
		longest = 60
	}
	return float64(longest + 2)
}

// escapeCellText prepares a label for a shared-string cell. Excel decodes
// "_xHHHH_" sequences when reading, so an underscore that would start one is
// written as "_x005F_", and runes XML 1.0 cannot carry are written in that
// escaped form instead of being dropped by the encoder.
func escapeCellText(s string) string {
	if !needsCellEscape(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '_' && startsEscapeSequence(s[i+1:]):
			b.WriteString("_x005F_")
		case size == 1 && r == utf8.RuneError:
			b.WriteByte(s[i])
		case !xmlChar(r):
			fmt.Fprintf(&b, "_x%04X_", r)
		default:
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}

func needsCellEscape(s string) bool {
	for i, r := range s {
		if r == '_' && startsEscapeSequence(s[i+1:]) {
			return true
		}
		if r != utf8.RuneError && !xmlChar(r) {
			return true
		}
	}
	return false
}

// startsEscapeSequence reports whether s begins with "x" and four hex digits.
func startsEscapeSequence(s string) bool {
	if len(s) < 5 || s[0] != 'x' {
		return false
	}
	for _, c := range []byte(s[1:5]) {
		if !isHexDigit(c) {
			return false
		}
	}
	return true
}

func isHexDigit(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// xmlChar reports whether r is allowed in an XML 1.0 document.
func xmlChar(r rune) bool {
	return r == '\t' || r == '\n' || r == '\r' ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= utf8.MaxRune
}
