package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"reflect"
	"strings"

	"ecom_back_end/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// exposeErrorDetail ajoute le champ "detail" aux réponses d'erreur (hors production).
var exposeErrorDetail = true

// SetErrorDetail active ou désactive l'exposition de la cause des erreurs.
func SetErrorDetail(enabled bool) {
	exposeErrorDetail = enabled
}

// RespondError traduit une erreur de service en réponse JSON.
func RespondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = &apperr.Error{Kind: apperr.KindOf(err), Message: http.StatusText(apperr.StatusCode(apperr.KindOf(err))), Err: err}
	}

	status := apperr.StatusCode(appErr.Kind)
	body := gin.H{"message": appErr.Message}
	if len(appErr.Fields) > 0 {
		body["errors"] = appErr.Fields
	}
	if status >= http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	if exposeErrorDetail && appErr.Err != nil {
		body["detail"] = appErr.Err.Error()
	}

	c.AbortWithStatusJSON(status, body)
}

// BindJSON décode le corps dans dst et convertit les erreurs de binding en
// erreurs de validation par champ.
func BindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return ValidationFromBinding(err)
	}
	return nil
}

// ValidationFromBinding convertit une erreur gin/validator en *apperr.Error.
func ValidationFromBinding(err error) *apperr.Error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apperr.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apperr.FieldError{
				Field:   jsonFieldName(fe),
				Message: validationMessage(fe),
			})
		}
		return apperr.Validation("Données invalides", fields...)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperr.Field(typeErr.Field, fmt.Sprintf("doit être de type %s", typeErr.Type.String()))
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return apperr.Validation("JSON invalide")
	}
	return apperr.Validation("Données invalides")
}

// Les erreurs du validator portent le nom JSON du champ plutôt que celui de la struct.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

func jsonFieldName(fe validator.FieldError) string {
	if fe.Field() == "" {
		return fe.Namespace()
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "champ requis"
	case "email":
		return "email invalide"
	case "min":
		return fmt.Sprintf("doit être supérieur ou égal à %s", fe.Param())
	case "max":
		return fmt.Sprintf("doit être inférieur ou égal à %s", fe.Param())
	case "gte":
		return fmt.Sprintf("doit être >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("doit être <= %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("doit valoir l'un de: %s", fe.Param())
	case "uuid":
		return "identifiant invalide"
	case "numeric":
		return "doit être numérique"
	case "eqfield":
		return fmt.Sprintf("doit correspondre à %s", fe.Param())
	case "dive":
		return "élément invalide"
	}
	return fmt.Sprintf("invalide (%s)", fe.Tag())
}
