package validation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/application/validation"
	"github.com/jhoicas/CRM-api/internal/domain"
)

func TestStruct_ReportaTodosLosCampos(t *testing.T) {
	err := validation.Struct(dto.CreateClientRequest{
		Nombre: "A",
		Email:  "no-es-email",
		Source: "TELEVISION",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))

	fields := map[string]bool{}
	for _, d := range verr.Details {
		fields[d.Field] = true
	}
	for _, f := range []string{"nombre", "apellido", "email", "telefono", "source"} {
		assert.True(t, fields[f], "debe reportar el campo %s", f)
	}
}

func TestStruct_ValidoSinError(t *testing.T) {
	err := validation.Struct(dto.CreateClientRequest{
		Nombre:   "Laura",
		Apellido: "Martínez",
		Telefono: "+54911555001",
		Tags:     []string{"vip"},
	})
	assert.NoError(t, err)
}

func TestStruct_TagsAnidados(t *testing.T) {
	err := validation.Struct(dto.CreateClientRequest{
		Nombre:   "Laura",
		Apellido: "Martínez",
		Telefono: "+54911555001",
		Tags:     []string{"una-etiqueta-demasiado-larga-para-el-limite"},
	})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Details, 1)
	assert.Equal(t, "tags[0]", verr.Details[0].Field)
}
