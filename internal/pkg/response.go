package pkg

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/sitesapi/internal/domain"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse is the JSON body for per-field validation failures.
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// OK sends a 200 JSON response with data as the body.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Error sends a JSON error response. If err is a *domain.AppError, its code is
// mapped to the appropriate HTTP status; otherwise 500 is returned.
// Server errors never expose their message.
func Error(c *gin.Context, err error) {
	status := domain.HTTPStatusCode(err)

	msg := domain.MsgInternal
	var appErr *domain.AppError
	if status < http.StatusInternalServerError && errors.As(err, &appErr) {
		msg = appErr.Message
	}

	c.JSON(status, ErrorResponse{Error: msg})
}

// Abort is Error for middleware: it also stops the handler chain.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}

// ValidationError sends a 400 response. validator.ValidationErrors are
// reported per field; any other error becomes fallback.
func ValidationError(c *gin.Context, err error, obj any, fallback string) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fallback})
		return
	}

	jsonTags := buildTagMap(obj)

	fieldErrors := make(map[string]string, len(ve))
	for _, fe := range ve {
		name := fe.Field()
		if tag, ok := jsonTags[fe.StructField()]; ok {
			name = tag
		} else {
			name = strings.ToLower(name)
		}
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		fieldErrors[name] = msg
	}

	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Error:  "validation error",
		Fields: fieldErrors,
	})
}

// buildTagMap maps struct field names to their json tag, falling back to the
// form tag used by query binding.
func buildTagMap(obj any) map[string]string {
	if obj == nil {
		return nil
	}
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	m := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if name := parseTagName(f.Tag.Get("json")); name != "" {
			m[f.Name] = name
			continue
		}
		if name := parseTagName(f.Tag.Get("form")); name != "" {
			m[f.Name] = name
		}
	}
	return m
}

// parseTagName extracts the field name from a struct tag value.
func parseTagName(tag string) string {
	if tag == "" || tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return ""
	}
	return name
}
