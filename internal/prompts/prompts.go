// Package prompts stores named replacements for the two editable blocks of
// the segmentation prompt. At most one prompt per stage is active, and a
// stage with no active prompt uses the block built into the segmenter.
package prompts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/segmenter/internal/segmenter"
	"github.com/JaimeStill/segmenter/pkg/pagination"
)

var (
	ErrNotFound      = errors.New("prompt not found")
	ErrDuplicate     = errors.New("prompt name already exists")
	ErrInvalidStage  = errors.New("stage must be decompose or format")
	ErrInvalidPrompt = errors.New("prompt name and instructions are required")
)

func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidStage), errors.Is(err, ErrInvalidPrompt):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Stage is the prompt block a Prompt replaces.
type Stage string

const (
	// StageDecompose replaces the decomposition rules.
	StageDecompose Stage = "decompose"
	// StageFormat replaces the response format block.
	StageFormat Stage = "format"
)

var builtin = map[Stage]string{
	StageDecompose: segmenter.DefaultRules,
	StageFormat:    segmenter.DefaultFormat,
}

func Stages() []Stage {
	return []Stage{StageDecompose, StageFormat}
}

func ParseStage(s string) (Stage, error) {
	if !slices.Contains(Stages(), Stage(s)) {
		return "", ErrInvalidStage
	}
	return Stage(s), nil
}

func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	stage, err := ParseStage(raw)
	if err != nil {
		return err
	}
	*s = stage
	return nil
}

// Default is the built-in block for stage.
func Default(stage Stage) (string, error) {
	if text, ok := builtin[stage]; ok {
		return text, nil
	}
	return "", ErrInvalidStage
}

type Prompt struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Stage        Stage     `json:"stage"`
	Instructions string    `json:"instructions"`
	Description  *string   `json:"description"`
	Active       bool      `json:"active"`
}

// Command is the writable part of a Prompt, used by create and update.
type Command struct {
	Name         string  `json:"name"`
	Stage        Stage   `json:"stage"`
	Instructions string  `json:"instructions"`
	Description  *string `json:"description"`
}

func (c Command) validate() error {
	if _, err := ParseStage(string(c.Stage)); err != nil {
		return err
	}
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Instructions) == "" {
		return ErrInvalidPrompt
	}
	return nil
}

// Filters narrows List. Name matches as a case-insensitive substring.
type Filters struct {
	Stage  *Stage  `json:"stage,omitempty"`
	Name   *string `json:"name,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

type System interface {
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Prompt], error)
	Find(ctx context.Context, id uuid.UUID) (*Prompt, error)
	Create(ctx context.Context, cmd Command) (*Prompt, error)
	Update(ctx context.Context, id uuid.UUID, cmd Command) (*Prompt, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Activate makes id the active prompt of its stage, deactivating the
	// previous one in the same transaction.
	Activate(ctx context.Context, id uuid.UUID) (*Prompt, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*Prompt, error)

	// Instructions is the text in effect for stage: the active prompt, or
	// the built-in block when none is active.
	Instructions(ctx context.Context, stage Stage) (string, error)
}
