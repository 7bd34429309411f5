// Package excel lee y genera planillas de clientes con excelize: importación,
// exportación y plantilla de carga.
package excel

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold normaliza texto tipeado a mano: sin tildes, en mayúsculas y con "_" en lugar de
// espacios y guiones ("Google contacts" -> "GOOGLE_CONTACTS", "Teléfono" -> "TELEFONO").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = strings.TrimSpace(s)
	}
	out = strings.ToUpper(out)
	return strings.Join(strings.FieldsFunc(out, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
}
