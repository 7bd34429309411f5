package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/CRM-api/internal/application/crm"
)

var _ crm.ContactSheetParser = (*ContactParser)(nil)

// encabezados aceptados (ya plegados con Fold) por campo de contacto
var headerAliases = map[string]string{
	"NOMBRE":        "nombre",
	"NOMBRES":       "nombre",
	"APELLIDO":      "apellido",
	"APELLIDOS":     "apellido",
	"EMAIL":         "email",
	"CORREO":        "email",
	"E_MAIL":        "email",
	"TELEFONO":      "telefono",
	"CELULAR":       "telefono",
	"WHATSAPP":      "telefono",
	"EMPRESA":       "empresa",
	"CARGO":         "cargo",
	"ORIGEN":        "source",
	"SOURCE":        "source",
	"FUENTE":        "source",
	"ESTADO":        "estado",
	"ETAPA":         "etapa",
	"DIRECCION":     "direccion",
	"ETIQUETAS":     "tags",
	"TAGS":          "tags",
	"NOTAS":         "notas",
	"OBSERVACIONES": "notas",
}

// MaxImportRows tope de filas de datos por archivo.
const MaxImportRows = 5000

// ContactParser lee la primera hoja de un xlsx: fila 1 encabezados, resto contactos.
type ContactParser struct{}

// NewContactParser construye el parser.
func NewContactParser() *ContactParser { return &ContactParser{} }

// ParseContacts devuelve las filas leídas y las que no se pudieron interpretar. El error
// solo se usa cuando el archivo completo es inválido.
func (p *ContactParser) ParseContacts(r io.Reader) ([]crm.ContactInput, []crm.RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("archivo Excel inválido: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("el archivo no tiene hojas")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("leer hoja %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("la hoja está vacía")
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		if field, ok := headerAliases[Fold(h)]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	if _, ok := cols["nombre"]; !ok {
		return nil, nil, fmt.Errorf("falta la columna Nombre")
	}
	if _, ok := cols["telefono"]; !ok {
		return nil, nil, fmt.Errorf("falta la columna Teléfono")
	}
	if len(rows)-1 > MaxImportRows {
		return nil, nil, fmt.Errorf("el archivo supera el máximo de %d filas", MaxImportRows)
	}

	var (
		contacts []crm.ContactInput
		bad      []crm.RowError
	)
	for i, cells := range rows[1:] {
		n := i + 2 // número de fila en la planilla
		if blank(cells) {
			continue
		}
		get := func(field string) string {
			idx, ok := cols[field]
			if !ok || idx >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[idx])
		}
		c := crm.ContactInput{
			Row:       n,
			Nombre:    get("nombre"),
			Apellido:  get("apellido"),
			Email:     get("email"),
			Telefono:  get("telefono"),
			Empresa:   get("empresa"),
			Cargo:     get("cargo"),
			Source:    Fold(get("source")),
			Estado:    Fold(get("estado")),
			Etapa:     get("etapa"),
			Direccion: get("direccion"),
			Tags:      splitTags(get("tags")),
			Notas:     get("notas"),
		}
		if c.Nombre == "" && c.Telefono == "" {
			bad = append(bad, crm.RowError{Row: n, Reason: "fila sin nombre ni teléfono"})
			continue
		}
		contacts = append(contacts, c)
	}
	return contacts, bad, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func splitTags(s string) []string {
	var out []string
	for _, t := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
