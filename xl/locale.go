package xl

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Locale carries the separators used to read numbers typed as text
type Locale struct {
	Tag     language.Tag
	Decimal string
	Group   string
}

// separatorSample renders with both a group and a decimal separator in every CLDR
// locale, including those with a minimum grouping of two digits
const separatorSample = 1234567.5

// NewLocale derives decimal and group separators for a BCP-47 tag by
// formatting a sample number with the locale's CLDR rules
func NewLocale(tag string) (Locale, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return Locale{}, fmt.Errorf("parse locale %q: %w", tag, err)
	}
	p := message.NewPrinter(t)
	formatted := []rune(p.Sprintf("%v", number.Decimal(separatorSample, number.MinFractionDigits(1))))

	loc := Locale{Tag: t, Decimal: ".", Group: ","}
	one := indexRune(formatted, '1', 0)
	two := indexRune(formatted, '2', one+1)
	seven := indexRune(formatted, '7', two+1)
	five := indexRune(formatted, '5', seven+1)
	if one < 0 || two < 0 || seven < 0 || five < 0 {
		// non-latin digits, keep the invariant separators
		return loc, nil
	}
	loc.Group = string(formatted[one+1 : two])
	loc.Decimal = string(formatted[seven+1 : five])
	return loc, nil
}

// DefaultLocale is en-US
func DefaultLocale() Locale {
	return Locale{Tag: language.AmericanEnglish, Decimal: ".", Group: ","}
}

func indexRune(rs []rune, r rune, from int) int {
	if from < 0 {
		return -1
	}
	for i := from; i < len(rs); i++ {
		if rs[i] == r {
			return i
		}
	}
	return -1
}

// ParseNumber reads text the way a spreadsheet does when text is used where
// a number is expected: surrounding space, group separators and a trailing
// percent sign are accepted. it reports false for anything else.
func (l Locale) ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	percent := false
	if strings.HasSuffix(s, "%") {
		percent = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}

	if l.Group != "" {
		s = strings.ReplaceAll(s, l.Group, "")
		if strings.TrimSpace(l.Group) == "" {
			// space-like group separators: accept any of them
			s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(s)
		}
	}
	if l.Decimal != "." && l.Decimal != "" {
		if strings.Contains(s, ".") {
			return 0, false
		}
		s = strings.ReplaceAll(s, l.Decimal, ".")
	}

	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' || r == '+' || r == '-' || r == 'e' || r == 'E':
		default:
			return 0, false
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if percent {
		f /= 100
	}
	return f, true
}
