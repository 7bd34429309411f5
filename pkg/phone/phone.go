// Package phone normaliza teléfonos para la detección de duplicados.
package phone

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion región usada cuando el número no trae prefijo internacional.
const DefaultRegion = "AR"

// Normalizer normaliza teléfonos a E.164 en una región por defecto.
type Normalizer struct {
	region string
}

// NewNormalizer construye el normalizador; región vacía usa DefaultRegion.
func NewNormalizer(region string) *Normalizer {
	if region == "" {
		region = DefaultRegion
	}
	return &Normalizer{region: strings.ToUpper(region)}
}

// Normalize devuelve el número en E.164. Si no se puede interpretar conserva solo
// los dígitos (y el '+' inicial) para que la comparación siga siendo estable.
func (n *Normalizer) Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := phonenumbers.Parse(raw, n.region)
	if err == nil && phonenumbers.IsPossibleNumber(parsed) {
		return phonenumbers.Format(parsed, phonenumbers.E164)
	}
	return digitsOnly(raw)
}

// Valid indica si el número es válido para su región.
func (n *Normalizer) Valid(raw string) bool {
	parsed, err := phonenumbers.Parse(strings.TrimSpace(raw), n.region)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(parsed)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsDigit(r) || (i == 0 && r == '+') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
