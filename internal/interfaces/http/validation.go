package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
)

// validate es seguro para uso concurrente y cachea los structs ya analizados.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Los errores usan el nombre JSON del campo.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		}
		return name
	})
	return v
}

// bindJSON parsea el body y valida las etiquetas `validate`. Si falla ya respondió 400
// y devuelve handled=true.
func bindJSON(c *fiber.Ctx, out any) (handled bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return true, invalidBody(c)
	}
	return validateStruct(c, out)
}

// bindPage lee ?limit=&offset= con los valores por defecto y los valida.
func bindPage(c *fiber.Ctx) (dto.PageRequest, bool, error) {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return page, true, invalidBody(c)
	}
	page.DefaultPage()
	handled, err := validateStruct(c, &page)
	return page, handled, err
}

func validateStruct(c *fiber.Ctx, in any) (bool, error) {
	err := validate.Struct(in)
	if err == nil {
		return false, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return true, invalidBody(c)
	}
	details := make(map[string]string, len(verrs))
	for _, e := range verrs {
		details[fieldPath(e)] = ruleMessage(e)
	}
	return true, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Code:    "VALIDATION",
		Message: "datos inválidos",
		Details: details,
	})
}

// fieldPath quita el nombre del struct raíz: "CreateOrderRequest.items[0].quantity" -> "items[0].quantity".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func ruleMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "campo obligatorio"
	case "email":
		return "email inválido"
	case "oneof":
		return "debe ser uno de: " + e.Param()
	case "min":
		if e.Kind() == reflect.Slice {
			return "mínimo " + e.Param() + " elementos"
		}
		return "mínimo " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "máximo " + e.Param() + " caracteres"
		}
		return "máximo " + e.Param()
	case "gt":
		return "debe ser mayor que " + e.Param()
	default:
		return "valor inválido"
	}
}
