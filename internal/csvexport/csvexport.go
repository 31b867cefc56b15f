// Package csvexport turns contact records into the CSV document offered for download or sent by
// email.
package csvexport

import (
	"strings"
	"time"

	"golang.org/x/text/language"

	"gitlab.com/dirk.krummacker/guard-contacts/internal/model"
)

// Header is the first line of every export.
const Header = "Name,Email,Phone,Created At"

// supported lists the locales with a known date layout. The first entry is the fallback.
var supported = []language.Tag{
	language.BrazilianPortuguese,
	language.EuropeanPortuguese,
	language.AmericanEnglish,
	language.BritishEnglish,
	language.German,
}

// dateLayouts holds the date-only layout of each supported locale.
var dateLayouts = []string{
	"02/01/2006",
	"02/01/2006",
	"1/2/2006",
	"02/01/2006",
	"2.1.2006",
}

var matcher = language.NewMatcher(supported)

// Serializer renders contacts as CSV. Creation dates are converted into Location and written
// with Layout.
type Serializer struct {
	Location *time.Location
	Layout   string
}

// ForLocale returns a serializer that writes dates the way the locale does. Unknown locales
// fall back to Brazilian Portuguese.
func ForLocale(tag language.Tag, location *time.Location) Serializer {
	_, index, _ := matcher.Match(tag)
	if location == nil {
		location = time.UTC
	}
	return Serializer{Location: location, Layout: dateLayouts[index]}
}

// Serialize returns the CSV document for the contacts: the header and one row per contact, in the
// order given. Every line ends with a newline. The function accepts any input, including none.
func (s Serializer) Serialize(contacts []model.Contact) string {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')
	for _, c := range contacts {
		b.WriteString(Quote(c.Name))
		b.WriteByte(',')
		b.WriteString(Quote(valueOf(c.Email)))
		b.WriteByte(',')
		b.WriteString(Quote(valueOf(c.Phone)))
		b.WriteByte(',')
		b.WriteString(s.FormatDate(c.CreatedAt))
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatDate writes the calendar date of t in the serializer's location.
func (s Serializer) FormatDate(t time.Time) string {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	layout := s.Layout
	if layout == "" {
		layout = "02/01/2006"
	}
	return t.In(loc).Format(layout)
}

// Quote wraps a field in double quotes and doubles the quotes inside it.
func Quote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// Unquote reverses Quote. Fields that are not quoted are returned unchanged.
func Unquote(field string) string {
	if len(field) >= 2 && strings.HasPrefix(field, `"`) && strings.HasSuffix(field, `"`) {
		field = field[1 : len(field)-1]
	}
	return strings.ReplaceAll(field, `""`, `"`)
}

// Filename is the name under which an export generated at now is delivered.
func Filename(now time.Time) string {
	return "contacts-export-" + now.UTC().Format("2006-01-02") + ".csv"
}

// valueOf treats an absent optional field like an empty one. This is the only place where the
// two are not kept apart.
func valueOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
