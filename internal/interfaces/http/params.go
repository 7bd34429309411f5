package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/domain"
)

// listParams lee page, limit, search, sortBy y sortOrder. HasSearch distingue
// "?search=" de la ausencia del parámetro.
func listParams(c *fiber.Ctx) dto.ListParams {
	return dto.ListParams{
		Page:      c.QueryInt("page", 0),
		Limit:     c.QueryInt("limit", 0),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		HasSearch: c.Context().QueryArgs().Has("search"),
	}
}

func clientListParams(c *fiber.Ctx) dto.ClientListParams {
	return dto.ClientListParams{
		ListParams:   listParams(c),
		Source:       c.Query("source"),
		Estado:       c.Query("estado"),
		Etapa:        c.Query("etapa"),
		Tags:         c.Query("tags"),
		AssignedToID: c.Query("assignedToId"),
	}
}

func pipelineListParams(c *fiber.Ctx) dto.PipelineListParams {
	return dto.PipelineListParams{
		ListParams:   listParams(c),
		Status:       c.Query("status"),
		Priority:     c.Query("priority"),
		AssignedToID: c.Query("assignedToId"),
		ClientID:     c.Query("clientId"),
	}
}

func taskListParams(c *fiber.Ctx) (dto.TaskListParams, error) {
	p := dto.TaskListParams{
		ListParams:   listParams(c),
		Status:       c.Query("status"),
		Priority:     c.Query("priority"),
		Type:         c.Query("type"),
		ClientID:     c.Query("clientId"),
		AssignedToID: c.Query("assignedToId"),
		Overdue:      c.QueryBool("overdue", false),
	}
	verr := &domain.ValidationError{}
	var err error
	if p.DateFrom, err = queryDate(c, "dateFrom"); err != nil {
		verr.Add("dateFrom", "fecha inválida", c.Query("dateFrom"))
	}
	if p.DateTo, err = queryDate(c, "dateTo"); err != nil {
		verr.Add("dateTo", "fecha inválida", c.Query("dateTo"))
	}
	return p, verr.OrNil()
}

func userListParams(c *fiber.Ctx) dto.UserListParams {
	return dto.UserListParams{
		ListParams: listParams(c),
		Role:       c.Query("role"),
		IsActive:   c.Query("isActive"),
	}
}

// queryDate acepta RFC3339 o YYYY-MM-DD. Vacío devuelve nil.
func queryDate(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, badRequest("INVALID_DATE", "fecha inválida")
}

// bindJSON decodifica el cuerpo. La validación de campos la hace el caso de uso.
func bindJSON(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return errInvalidBody
	}
	return nil
}
