// Package pipeline provides the shared types and stage plumbing for lottiemp4.
package pipeline

import (
	"context"
)

// Stage is one step of a conversion. Stages hold their collaborators and
// receive per-call data through In.
type Stage[In, Out any] interface {
	Execute(ctx context.Context, input In) (Out, error)
}
