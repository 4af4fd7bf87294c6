package matcher

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	parcelPrefixRe = regexp.MustCompile(`(?i)(?:parcel|property)[\s\-_]*(\d+)`)
	digitRunRe     = regexp.MustCompile(`\d{4,15}`)
	nonDigitRe     = regexp.MustCompile(`[^\d]`)
	nonWordRe      = regexp.MustCompile(`[^\w]`)
)

// ExtractParcelNumber pulls a parcel number out of a property folder name.
// Patterns are tried in order: an explicit "Parcel"/"Property" prefix, a
// mostly-numeric name, any 4-15 digit run, and finally a compact
// alphanumeric name that is mostly digits. Returns "" when nothing fits.
func ExtractParcelNumber(folderName string) string {
	name := strings.TrimSpace(folderName)
	if name == "" {
		return ""
	}

	// "Parcel-12345", "Property 12345", "parcel_12345"
	if m := parcelPrefixRe.FindStringSubmatch(name); m != nil {
		return m[1]
	}

	// Mostly-numeric names keep just their digits: "3177-03-000-043" works.
	numbersOnly := nonDigitRe.ReplaceAllString(name, "")
	compact := strings.ReplaceAll(name, " ", "")
	if len(numbersOnly) >= 4 && len(numbersOnly) <= 15 && len(compact) > 0 {
		if float64(len(numbersOnly))/float64(len(compact)) > 0.5 {
			return numbersOnly
		}
	}

	// Any embedded digit run of plausible parcel length.
	if m := digitRunRe.FindString(name); m != "" {
		return m
	}

	// The whole name as an alphanumeric parcel code, e.g. "R12345678".
	cleaned := nonWordRe.ReplaceAllString(name, "")
	if len(cleaned) >= 4 && len(cleaned) <= 15 && isAlnum(cleaned) {
		digits := 0
		for _, c := range cleaned {
			if unicode.IsDigit(c) {
				digits++
			}
		}
		if float64(digits) >= float64(len(cleaned))*0.7 {
			return cleaned
		}
	}

	return ""
}

// isAlnum reports whether s consists only of letters and digits. Underscores
// survive the word-character cleanup above but disqualify the name here.
func isAlnum(s string) bool {
	for _, c := range s {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			return false
		}
	}
	return s != ""
}
