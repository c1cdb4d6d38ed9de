package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	// Report fields by their json names in error messages.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Letters, digits, hyphens, and underscores only.
	validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		for _, c := range fl.Field().String() {
			switch {
			case c >= 'a' && c <= 'z':
			case c >= 'A' && c <= 'Z':
			case c >= '0' && c <= '9':
			case c == '-' || c == '_':
			default:
				return false
			}
		}
		return true
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// validationMessage turns the first field error into the message the client
// sees.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "Bad request"
	}

	fe := fieldErrs[0]
	switch {
	case fe.Tag() == "required":
		return "Missing required field: " + fe.Field()
	case fe.Field() == "username" && (fe.Tag() == "min" || fe.Tag() == "max"):
		return "Username must be between 3 and 50 characters"
	case fe.Field() == "username" && fe.Tag() == "username":
		return "Username can only contain letters, numbers, hyphens, and underscores"
	case fe.Field() == "password" && fe.Tag() == "min":
		return "Password must be at least 6 characters long"
	}
	return "Invalid field: " + fe.Field()
}
