// Package envvar applies environment variable overrides to config fields.
// Every function is a no-op when the variable name is empty, the variable
// is unset or blank, or its value does not parse.
package envvar

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func lookup(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	v := strings.TrimSpace(os.Getenv(name))
	return v, v != ""
}

func String(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func Int(dst *int, name string) {
	if v, ok := lookup(name); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func Float(dst *float64, name string) {
	if v, ok := lookup(name); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func Bool(dst *bool, name string) {
	if v, ok := lookup(name); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// Duration keeps the raw string form used by TOML configs, after checking
// that it parses.
func Duration(dst *string, name string) {
	if v, ok := lookup(name); ok {
		if _, err := time.ParseDuration(v); err == nil {
			*dst = v
		}
	}
}

// List splits a comma separated value, dropping blank items.
func List(dst *[]string, name string) {
	v, ok := lookup(name)
	if !ok {
		return
	}
	var items []string
	for item := range strings.SplitSeq(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dst = items
}
