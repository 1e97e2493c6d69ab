package client

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/simp-lee/pagination"
	"github.com/simp-lee/shopsync/internal/domain"
)

// The commerce API has produced several list shapes over time: the standard
// envelope with pagination metadata, a bare array, an object wrapping the
// array under "data" or "items", and a numeric-keyed object. Normalization
// happens exactly once here; everything past this point sees PageResult.
// Unrecognized shapes are a validation error, never silently coerced.

// envelope is the standard JSON wrapper the API puts around responses.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// decodePage normalizes a list response body into a PageResult.
func decodePage[T any](raw []byte, req domain.PageRequest) (*domain.PageResult[T], error) {
	payload := unwrapEnvelope(raw)

	trimmed := bytes.TrimLeft(payload, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, domain.NewValidationError("empty list response", nil)
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, domain.NewValidationError("malformed list response", nil)
		}
		return bareResult(items, req), nil

	case '{':
		return decodePageObject[T](trimmed, req)

	default:
		return nil, domain.NewValidationError("unrecognized list response shape", nil)
	}
}

// decodePageObject handles the object-shaped list responses.
func decodePageObject[T any](payload []byte, req domain.PageRequest) (*domain.PageResult[T], error) {
	// Pagination envelope, possibly just {"items": [...]} with no metadata.
	var page pagination.Pagination[T]
	if err := json.Unmarshal(payload, &page); err == nil && page.Items != nil {
		if page.TotalItems == 0 && page.TotalPages == 0 && len(page.Items) > 0 {
			// Metadata absent; fall back to inference.
			return bareResult(page.Items, req), nil
		}
		info := &domain.PageInfo{
			Page:       page.CurrentPage,
			PageSize:   page.ItemsPerPage,
			TotalPages: page.TotalPages,
			TotalItems: int(page.TotalItems),
		}
		return &domain.PageResult[T]{
			Items:   page.Items,
			HasMore: page.CurrentPage < page.TotalPages,
			Total:   int(page.TotalItems),
			Info:    info,
		}, nil
	}

	// Array under "data".
	var dataWrap struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(payload, &dataWrap); err == nil && dataWrap.Data != nil {
		return bareResult(dataWrap.Data, req), nil
	}

	// Numeric-keyed object: {"0": {...}, "1": {...}}.
	if items, ok := decodeNumericKeyed[T](payload); ok {
		return bareResult(items, req), nil
	}

	return nil, domain.NewValidationError("unrecognized list response shape", nil)
}

// decodeNumericKeyed decodes an object whose keys are all decimal indexes,
// ordered by index.
func decodeNumericKeyed[T any](payload []byte) ([]T, bool) {
	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(payload, &keyed); err != nil || len(keyed) == 0 {
		return nil, false
	}

	type entry struct {
		index int
		raw   json.RawMessage
	}
	entries := make([]entry, 0, len(keyed))
	for k, v := range keyed {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 {
			return nil, false
		}
		entries = append(entries, entry{index: idx, raw: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].index < entries[j].index })

	items := make([]T, 0, len(entries))
	for _, e := range entries {
		var item T
		if err := json.Unmarshal(e.raw, &item); err != nil {
			return nil, false
		}
		items = append(items, item)
	}
	return items, true
}

// bareResult builds a PageResult for shapes without pagination metadata.
// HasMore is inferred from a full page; Total falls back to the item count.
func bareResult[T any](items []T, req domain.PageRequest) *domain.PageResult[T] {
	return &domain.PageResult[T]{
		Items:   items,
		HasMore: req.PageSize > 0 && len(items) == req.PageSize,
		Total:   len(items),
	}
}

// decodeEntity normalizes a single-entity response body.
func decodeEntity[T any](raw []byte) (*T, error) {
	payload := unwrapEnvelope(raw)

	trimmed := bytes.TrimLeft(payload, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, domain.NewValidationError("unrecognized entity response shape", nil)
	}

	var item T
	if err := json.Unmarshal(trimmed, &item); err != nil {
		return nil, domain.NewValidationError("malformed entity response", nil)
	}
	return &item, nil
}

// unwrapEnvelope strips the standard {code, message, data} wrapper when the
// body carries one, returning the inner data. Anything else passes through
// untouched.
func unwrapEnvelope(raw []byte) json.RawMessage {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw
	}
	if env.Code == 0 || env.Data == nil {
		return raw
	}
	return env.Data
}
