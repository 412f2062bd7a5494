package services

import (
	"errors"
	"fmt"
	"strings"

	"courier-backoffice-service/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// API names of validated fields, as clients see them in JSON.
var fieldLabels = map[string]string{
	"TaxID":          "ruc_dni",
	"BusinessName":   "razon_social",
	"ContactName":    "nombre_contacto",
	"Email":          "email",
	"Mobile":         "celular",
	"Phone":          "telefono_fijo",
	"Address":        "direccion",
	"City":           "ciudad",
	"PostalCode":     "codigo_postal",
	"SenderID":       "remitente_id",
	"RecipientID":    "destinatario_id",
	"Origin":         "lugar_origen",
	"Destination":    "lugar_destino",
	"CargoDetail":    "detalle_carga",
	"PaymentMethod":  "forma_pago",
	"AssignedWorker": "trabajador_asignado",
	"Notes":          "notas",
}

// validateStruct runs the struct's validate tags and converts failures
// into a *domain.ValidationError keyed by API field name.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := &domain.ValidationError{}
	for _, fe := range verrs {
		out.Add(label(fe.StructField()), message(fe))
	}
	return out
}

func label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return strings.ToLower(field)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "numeric":
		return "must contain only digits"
	case "len=8|len=11":
		return "must have 8 (DNI) or 11 (RUC) digits"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
