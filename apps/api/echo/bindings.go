package echoapi

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// cleaner is implemented by payloads that normalize their fields before validation.
type cleaner interface {
	Clean()
}

// bindAndValidate binds the request body into data (a pointer to a struct), cleans and validates it.
func bindAndValidate(ctx echo.Context, validate *validator.Validate, data interface{}) error {
	if err := ctx.Bind(data); err != nil {
		return errors.Wrapf(err, "binding to %T", data)
	}
	if c, ok := data.(cleaner); ok {
		c.Clean()
	}
	return validate.Struct(data)
}

type (
	SuccessResponse struct {
		Success string `json:"success"`
	}

	CountResponse struct {
		Count int `json:"count"`
	}
)
