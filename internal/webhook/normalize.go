package webhook

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

var (
	// ErrEmptyResponse is returned when the webhook answered with an empty or
	// whitespace-only body.
	ErrEmptyResponse = errors.New("webhook returned an empty response body")

	// ErrMalformedResponse is returned when the body is not valid JSON.
	ErrMalformedResponse = errors.New("webhook returned malformed JSON")
)

// UnextractableError is returned when a well-formed response yields an empty
// output. Body holds the raw response for diagnosis.
type UnextractableError struct {
	Body string
}

func (e *UnextractableError) Error() string {
	return fmt.Sprintf("webhook succeeded but no output could be extracted; received: %s", e.Body)
}

// outputKeys are looked up in order on an object response; the first key
// present wins, even when its value renders empty.
var outputKeys = []string{"output", "Output", "optimized_prompt", "analysis"}

// Kind classifies a JSON value.
type Kind int

const (
	KindInvalid Kind = iota
	KindObject
	KindArray
	KindString
	KindNumber
	KindBool
	KindNull
)

// KindOf reports the kind of the JSON value in raw from its first byte.
// It does not validate the rest of the document.
func KindOf(raw []byte) Kind {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return KindInvalid
	}
	switch c := raw[0]; {
	case c == '{':
		return KindObject
	case c == '[':
		return KindArray
	case c == '"':
		return KindString
	case c == 't' || c == 'f':
		return KindBool
	case c == 'n':
		return KindNull
	case c == '-' || (c >= '0' && c <= '9'):
		return KindNumber
	default:
		return KindInvalid
	}
}

// Normalize extracts the textual output from a webhook response body.
//
// Object responses yield the first present key of output, Output,
// optimized_prompt, analysis. Strings render unquoted, objects and arrays as
// their JSON text, null as "". Any other response, or an object with none of
// those keys, yields the raw body unchanged.
func Normalize(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmptyResponse
	}

	body := []byte(raw)
	output := raw

	if KindOf(body) == KindObject {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(body, &doc); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		for _, key := range outputKeys {
			if v, ok := doc[key]; ok {
				output = renderValue(v)
				break
			}
		}
	} else if !json.Valid(body) {
		return "", ErrMalformedResponse
	}

	if output == "" {
		return "", &UnextractableError{Body: raw}
	}
	return output, nil
}

// renderValue converts a JSON value to text: strings unquoted, null empty,
// everything else as its JSON text.
func renderValue(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	switch KindOf(trimmed) {
	case KindNull, KindInvalid:
		return ""
	case KindString:
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return string(trimmed)
		}
		return s
	default:
		return string(trimmed)
	}
}
