package web

// handlers_common.go holds request parsing shared by the handlers.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/PartsInventory/internal/core"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

func badRequest(field, value, message string) error {
	return &core.ValidationError{Field: field, Value: value, Message: message}
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("id", raw, "id must be a positive whole number")
	}
	return id, nil
}

// parseIntParam parses an integer query parameter with a default value.
// Malformed values fall back to the default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// optionalID parses an id query parameter where blank means 0.
func optionalID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, badRequest(name, raw, name+" must be a whole number")
	}
	return id, nil
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("body", "", "request body is required")
		}
		return badRequest("body", "", "request body must be valid JSON: "+err.Error())
	}
	return nil
}

// criteriaFromQuery reads search criteria from the query string.
func criteriaFromQuery(r *http.Request) core.CriteriaInput {
	q := r.URL.Query()
	return core.CriteriaInput{
		PartNumber:    q.Get("partNumber"),
		PartName:      q.Get("partName"),
		Manufacturer:  q.Get("manufacturer"),
		CategoryName:  q.Get("categoryName"),
		CategoryID:    q.Get("categoryId"),
		MinPrice:      q.Get("minPrice"),
		MaxPrice:      q.Get("maxPrice"),
		CreatedAfter:  q.Get("createdAfter"),
		CreatedBefore: q.Get("createdBefore"),
		UpdatedAfter:  q.Get("updatedAfter"),
		UpdatedBefore: q.Get("updatedBefore"),
		SortBy:        q.Get("sortBy"),
		SortOrder:     q.Get("sortOrder"),
		Page:          q.Get("page"),
		Size:          q.Get("size"),
	}
}

// criteriaFromJSON reads search criteria from a JSON object. Values may be
// strings or numbers; numbers keep their exact text so prices do not pass
// through float64.
func criteriaFromJSON(w http.ResponseWriter, r *http.Request) (core.CriteriaInput, error) {
	var in core.CriteriaInput
	raw := map[string]any{}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return in, badRequest("body", "", "request body must be valid JSON: "+err.Error())
	}

	fields := map[string]*string{
		"partNumber":    &in.PartNumber,
		"partName":      &in.PartName,
		"manufacturer":  &in.Manufacturer,
		"categoryName":  &in.CategoryName,
		"categoryId":    &in.CategoryID,
		"minPrice":      &in.MinPrice,
		"maxPrice":      &in.MaxPrice,
		"createdAfter":  &in.CreatedAfter,
		"createdBefore": &in.CreatedBefore,
		"updatedAfter":  &in.UpdatedAfter,
		"updatedBefore": &in.UpdatedBefore,
		"sortBy":        &in.SortBy,
		"sortOrder":     &in.SortOrder,
		"page":          &in.Page,
		"size":          &in.Size,
	}
	for key, dst := range fields {
		switch v := raw[key].(type) {
		case nil:
		case string:
			*dst = v
		case json.Number:
			*dst = v.String()
		default:
			*dst = fmt.Sprint(v)
		}
	}
	return in, nil
}
