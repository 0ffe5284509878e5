package segmenter

import (
	"encoding/json"
	"errors"
	"regexp"

	"github.com/JaimeStill/segmenter/pkg/formatting"
)

// KeySubactivities is the envelope key holding the record list.
const KeySubactivities = "subactividades"

var (
	errNotObject    = errors.New("parsed value is not an object or array")
	errNoSpan       = errors.New("no balanced span found")
	greedyObjectRex = regexp.MustCompile(`(?s)\{.*\}`)
)

type strategy struct {
	name  string
	parse func(text string) (map[string]any, error)
}

// strategies run in order; the first envelope carrying KeySubactivities wins.
var strategies = []strategy{
	{name: "direct", parse: parseDirect},
	{name: "repaired", parse: parseRepaired},
	{name: "object_span", parse: parseObjectSpan},
	{name: "array_span", parse: parseArraySpan},
	{name: "greedy", parse: parseGreedy},
}

// Parse recovers a response envelope from raw model text.
// It never fails: nil means no strategy produced JSON.
func Parse(text string) map[string]any {
	envelope, _ := ParseDetailed(text)
	return envelope
}

// ParseDetailed is Parse that also names the strategy that succeeded.
// When no strategy yields an envelope with KeySubactivities, the first
// JSON object any strategy produced is returned instead.
func ParseDetailed(text string) (map[string]any, string) {
	var (
		fallback     map[string]any
		fallbackName string
	)

	for _, s := range strategies {
		envelope, err := s.parse(text)
		if err != nil {
			continue
		}
		if _, ok := envelope[KeySubactivities]; ok {
			return envelope, s.name
		}
		if fallback == nil {
			fallback, fallbackName = envelope, s.name
		}
	}

	return fallback, fallbackName
}

func parseDirect(text string) (map[string]any, error) {
	v, err := formatting.Parse[any](formatting.StripFences(text))
	if err != nil {
		return nil, err
	}
	return envelopeOf(v)
}

func parseRepaired(text string) (map[string]any, error) {
	return decode(repair(text))
}

func parseObjectSpan(text string) (map[string]any, error) {
	span, ok := formatting.ExtractBalanced(clean(text), '{', '}')
	if !ok {
		return nil, errNoSpan
	}
	if envelope, err := decode(span); err == nil {
		return envelope, nil
	}
	return decode(formatting.RemoveTrailingCommas(span))
}

func parseArraySpan(text string) (map[string]any, error) {
	span, ok := formatting.ExtractBalanced(clean(text), '[', ']')
	if !ok {
		return nil, errNoSpan
	}

	var records []any
	if err := json.Unmarshal([]byte(formatting.RemoveTrailingCommas(span)), &records); err != nil {
		return nil, err
	}
	return map[string]any{KeySubactivities: records}, nil
}

func parseGreedy(text string) (map[string]any, error) {
	match := greedyObjectRex.FindString(text)
	if match == "" {
		return nil, errNoSpan
	}
	return decode(repair(match))
}

func clean(text string) string {
	return formatting.NormalizeTypography(formatting.StripFences(text))
}

func repair(text string) string {
	return formatting.RemoveTrailingCommas(clean(text))
}

func decode(text string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	return envelopeOf(v)
}

func envelopeOf(v any) (map[string]any, error) {
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case []any:
		return map[string]any{KeySubactivities: t}, nil
	default:
		return nil, errNotObject
	}
}
