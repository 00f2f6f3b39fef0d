package cart

import "context"

// Repository holds the shopper's selected lines. Auth gating is the
// caller's responsibility; the store itself never checks it.
type Repository interface {
	Lines(ctx context.Context) ([]Line, error)
	// Add inserts a new line. Adding an id that is already present is a
	// no-op; the existing line is left untouched.
	Add(ctx context.Context, line Line) error
	// SetQuantity replaces a line's quantity. The caller clamps.
	SetQuantity(ctx context.Context, id, quantity int) error
	// Remove drops the line if present; absent ids are a no-op.
	Remove(ctx context.Context, id int) error
	Clear(ctx context.Context) error
}
