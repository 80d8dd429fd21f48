package handlers

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var allowedMIMEs = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
	"image/gif":  {},
}

func isAllowedImageType(mimeType string) bool {
	_, ok := allowedMIMEs[mimeType]
	return ok
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", e.Field()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param()))
		case "gt", "gte", "lt", "lte":
			parts = append(parts, fmt.Sprintf("%s is out of allowed range", e.Field()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return strings.Join(parts, "; ")
}
