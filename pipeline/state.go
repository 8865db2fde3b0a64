package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/sketch"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/storage"
)

// SketchStateID is the object id of the persisted sketch.
const SketchStateID = "cms_state.json"

// SketchRepository loads and saves the single persisted sketch.
type SketchRepository struct {
	store storage.FileStorage
	dims  sketch.Dimensions
}

// NewSketchRepository expects state to match dims, the configured width and depth.
func NewSketchRepository(store storage.FileStorage, dims sketch.Dimensions) *SketchRepository {
	return &SketchRepository{store: store, dims: dims}
}

func (r *SketchRepository) Dimensions() sketch.Dimensions {
	return r.dims
}

// Load returns MissingStateError when no sketch has been saved.
func (r *SketchRepository) Load(ctx context.Context) (*sketch.Sketch, error) {
	raw, err := r.store.Fetch(ctx, storage.LabelSketch, SketchStateID)
	var notFound *storage.NotFoundError
	if errors.As(err, &notFound) {
		return nil, &MissingStateError{What: "sketch state"}
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch sketch state: %w", err)
	}
	return sketch.Load(raw, r.dims.Width, r.dims.Depth)
}

// LoadOrNew starts an empty sketch when none has been saved.
func (r *SketchRepository) LoadOrNew(ctx context.Context) (*sketch.Sketch, error) {
	s, err := r.Load(ctx)
	var missing *MissingStateError
	if errors.As(err, &missing) {
		return sketch.NewWithDimensions(r.dims)
	}
	return s, err
}

func (r *SketchRepository) Save(ctx context.Context, s *sketch.Sketch) error {
	raw, err := sketch.Save(s)
	if err != nil {
		return err
	}
	err = r.store.Put(ctx, storage.LabelSketch, SketchStateID, raw)
	if err != nil {
		return fmt.Errorf("failed to save sketch state: %w", err)
	}
	return nil
}
