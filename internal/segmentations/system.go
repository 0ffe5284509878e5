package segmentations

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/segmenter/pkg/pagination"
)

// System defines the public contract for segmentation domain operations.
type System interface {
	Handler(maxBodySize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Run], error)

	Find(ctx context.Context, id uuid.UUID) (*Run, error)

	// Segment runs a segmentation and records it. The run row is kept with
	// status failed when the pipeline does not produce a result.
	Segment(ctx context.Context, cmd Command) (*Result, error)

	// Result returns the stored result document of a completed run.
	Result(ctx context.Context, id uuid.UUID) (*Result, error)

	Delete(ctx context.Context, id uuid.UUID) error
}
