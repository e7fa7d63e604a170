package metadata

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Model output is adversarially unreliable: wrong casing, numeric or boolean
// "status" values, dates in D/M/YYYY, entity names given as bare strings
// instead of objects. The normalizer coerces whatever JSON value the model
// produced into the canonical per-field shape before business validation
// runs. Coercion never invents data; anything unrecognizable becomes a null
// value, and post-coercion validation turns a null value under an ok status
// into an invalid-kind failure rather than silently downgrading to unknown.

// Status is the canonical model verdict for a field.
type Status string

const (
	StatusOK      Status = "ok"
	StatusUnknown Status = "unknown"
)

const (
	maxTitleLength  = 120
	maxReasonLength = 512
)

// ScalarResponse is the canonical shape for title and date responses.
type ScalarResponse struct {
	Status Status  `json:"status"`
	Value  *string `json:"value"`
	Reason string  `json:"reason,omitempty"`
}

// EntityCandidate is the canonical entity proposal inside a correspondent or
// doctype response.
type EntityCandidate struct {
	Name   string `json:"name"`
	Create *bool  `json:"create,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// EntityResponse is the canonical shape for correspondent and doctype
// responses.
type EntityResponse struct {
	Status Status           `json:"status"`
	Value  *EntityCandidate `json:"value"`
	Reason string           `json:"reason,omitempty"`
}

var okStatusWords = map[string]struct{}{
	"ok":      {},
	"okay":    {},
	"success": {},
	"done":    {},
}

func coerceStatus(v any) Status {
	switch t := v.(type) {
	case bool:
		if t {
			return StatusOK
		}
	case float64:
		if t > 0 {
			return StatusOK
		}
	case string:
		if _, ok := okStatusWords[strings.ToLower(strings.TrimSpace(t))]; ok {
			return StatusOK
		}
	}
	return StatusUnknown
}

// scalarToString renders a JSON scalar as text; non-scalars render empty.
func scalarToString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func coerceReason(v any) string {
	reason := strings.TrimSpace(scalarToString(v))
	if runes := []rune(reason); len(runes) > maxReasonLength {
		reason = string(runes[:maxReasonLength])
	}
	return reason
}

func coerceTitleValue(v any) *string {
	title := strings.TrimSpace(scalarToString(v))
	if title == "" {
		return nil
	}
	if runes := []rune(title); len(runes) > maxTitleLength {
		title = strings.TrimSpace(string(runes[:maxTitleLength]))
	}
	return &title
}

var datePattern = regexp.MustCompile(`(\d{4})[./-](\d{1,2})[./-](\d{1,2})`)

// coerceDateValue extracts the first YYYY-M-D shaped token (separators ".",
// "/", "-"), zero-pads it, and rejects anything that is not a real calendar
// date. Output is strict YYYY-MM-DD.
func coerceDateValue(v any) *string {
	raw := scalarToString(v)
	match := datePattern.FindStringSubmatch(raw)
	if match == nil {
		return nil
	}

	month, _ := strconv.Atoi(match[2])
	day, _ := strconv.Atoi(match[3])
	candidate := fmt.Sprintf("%s-%02d-%02d", match[1], month, day)
	if _, err := time.Parse("2006-01-02", candidate); err != nil {
		return nil
	}
	return &candidate
}

var (
	createTrueWords  = map[string]struct{}{"true": {}, "t": {}, "yes": {}, "y": {}, "1": {}}
	createFalseWords = map[string]struct{}{"false": {}, "f": {}, "no": {}, "n": {}, "0": {}}
)

func coerceCreate(v any) *bool {
	switch t := v.(type) {
	case bool:
		return &t
	case float64:
		flag := t != 0
		return &flag
	case string:
		word := strings.ToLower(strings.TrimSpace(t))
		if _, ok := createTrueWords[word]; ok {
			flag := true
			return &flag
		}
		if _, ok := createFalseWords[word]; ok {
			flag := false
			return &flag
		}
	}
	return nil
}

// coerceEntityValue accepts a bare scalar (treated as the entity name) or an
// object with name/create/reason keys. Unrecognized shapes yield nil.
func coerceEntityValue(v any) *EntityCandidate {
	switch t := v.(type) {
	case string, float64, bool:
		name := strings.TrimSpace(scalarToString(t))
		return &EntityCandidate{Name: name}
	case map[string]any:
		candidate := &EntityCandidate{
			Name:   strings.TrimSpace(scalarToString(t["name"])),
			Create: coerceCreate(t["create"]),
			Reason: coerceReason(t["reason"]),
		}
		return candidate
	default:
		return nil
	}
}

func responseObject(raw any) (map[string]any, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.New("model response is not a JSON object")
	}
	return obj, nil
}

// NormalizeTitleResponse coerces an arbitrary model payload into the
// canonical title response and validates it. An ok status without a usable
// value is a validation failure, not an unknown.
func NormalizeTitleResponse(raw any) (ScalarResponse, error) {
	obj, err := responseObject(raw)
	if err != nil {
		return ScalarResponse{}, err
	}

	resp := ScalarResponse{
		Status: coerceStatus(obj["status"]),
		Value:  coerceTitleValue(obj["value"]),
		Reason: coerceReason(obj["reason"]),
	}
	if resp.Status == StatusOK && resp.Value == nil {
		return ScalarResponse{}, errors.New("status is ok but no usable title value was given")
	}
	return resp, nil
}

// NormalizeDateResponse coerces an arbitrary model payload into the
// canonical date response and validates it.
func NormalizeDateResponse(raw any) (ScalarResponse, error) {
	obj, err := responseObject(raw)
	if err != nil {
		return ScalarResponse{}, err
	}

	resp := ScalarResponse{
		Status: coerceStatus(obj["status"]),
		Value:  coerceDateValue(obj["value"]),
		Reason: coerceReason(obj["reason"]),
	}
	if resp.Status == StatusOK && resp.Value == nil {
		return ScalarResponse{}, errors.New("status is ok but no parseable date value was given")
	}
	return resp, nil
}

// NormalizeEntityResponse coerces an arbitrary model payload into the
// canonical entity response and validates it. Entity values additionally
// require a non-empty name.
func NormalizeEntityResponse(raw any) (EntityResponse, error) {
	obj, err := responseObject(raw)
	if err != nil {
		return EntityResponse{}, err
	}

	resp := EntityResponse{
		Status: coerceStatus(obj["status"]),
		Value:  coerceEntityValue(obj["value"]),
		Reason: coerceReason(obj["reason"]),
	}
	if resp.Status == StatusOK {
		if resp.Value == nil {
			return EntityResponse{}, errors.New("status is ok but no entity value was given")
		}
		if resp.Value.Name == "" {
			return EntityResponse{}, errors.New("entity name is required")
		}
	}
	return resp, nil
}
