package extract

import (
	"regexp"
	"strings"
)

var nonDigitRe = regexp.MustCompile(`\D`)

// Digits strips everything but ASCII digits.
func Digits(s string) string {
	return nonDigitRe.ReplaceAllString(s, "")
}

// FormatPhone normalizes s to digits and formats it by length:
//
//	11 -> (DD) DDDDD-DDDD
//	10 -> (DD) DDDD-DDDD
//	 9 -> DDDDD-DDDD
//	 8 -> DDDD-DDDD
//
// A leading 55 country code on 12 or 13 digit input is dropped first. Other
// lengths are returned as bare digits.
func FormatPhone(s string) string {
	d := Digits(s)
	if (len(d) == 12 || len(d) == 13) && strings.HasPrefix(d, "55") {
		d = d[2:]
	}

	switch len(d) {
	case 11:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	case 10:
		return "(" + d[:2] + ") " + d[2:6] + "-" + d[6:]
	case 9:
		return d[:5] + "-" + d[5:]
	case 8:
		return d[:4] + "-" + d[4:]
	}
	return d
}

// localPhonePatterns returns the phone patterns tried against rendered text,
// most specific first: the local area code in parentheses, the bare area code,
// then any phone-shaped substring.
func localPhonePatterns(areaCode string) []*regexp.Regexp {
	ac := regexp.QuoteMeta(areaCode)
	return []*regexp.Regexp{
		regexp.MustCompile(`\(` + ac + `\)\s*\d{4,5}-?\d{4}`),
		regexp.MustCompile(ac + `\s*\d{4,5}-?\d{4}`),
		regexp.MustCompile(`\d{4,5}-?\d{4}`),
	}
}

// mobilePatterns matches the local mobile shape (area code, a leading 9, then
// eight digits) in the spacing variants seen on profile pages.
func mobilePatterns(areaCode string) []*regexp.Regexp {
	ac := regexp.QuoteMeta(areaCode)
	tail := `\s*9\s*\d{4}[-\s]?\d{4}`
	return []*regexp.Regexp{
		regexp.MustCompile(`\(` + ac + `\)` + tail),
		regexp.MustCompile(ac + tail),
		regexp.MustCompile(`\+55\s*` + ac + tail),
		regexp.MustCompile(`55\s*` + ac + tail),
	}
}

// contextMobileRe finds a nine digit mobile number shortly after a contact
// keyword. The number must stand alone: the 9 cannot be the tail of an area
// code and no digit may follow it.
var contextMobileRe = regexp.MustCompile(`(?i)(?:whatsapp|celular|contato|telefone)(?:[\s\S]{0,49}?\D)?(9\s*\d{4}[-\s]?\d{4})(?:\D|$)`)
