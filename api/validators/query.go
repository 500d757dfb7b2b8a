package validators

import (
	"net/http"
	"strconv"

	pkgerrors "github.com/plasa/shopper-settlement/pkg/errors"
)

// ParseQueryInt reads key as an integer in [min, max]. A missing or blank
// value yields def.
func ParseQueryInt(r *http.Request, key string, def, min, max int) (int, error) {
	raw := SanitizeString(r.URL.Query().Get(key), 0)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be an integer", key).
			WithDetails(map[string]any{"field": key, "value": raw})
	}
	if v < min || v > max {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be between %d and %d", key, min, max).
			WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return v, nil
}
