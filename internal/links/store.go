package links

import (
	"context"

	"github.com/google/uuid"
)

// FindManyParams selects a window of links. Filter, when non-empty, is a
// case-insensitive substring match over title, description and redirect.
type FindManyParams struct {
	Filter string
	Skip   int
	Take   int
}

// UpdateParams is a partial patch; nil fields are left untouched.
// ShortID and URL are immutable and deliberately absent.
type UpdateParams struct {
	Title       *string
	Redirect    *string
	Description *string
}

// Store is the persistence abstraction for link records.
//
// FindByURL and FindByID return (nil, nil) when no record matches: plain
// absence on lookups is not an error, callers decide what it means.
// Update and Delete, whose targets must exist, report absence as a
// NotFound error instead. Create maps a unique-constraint violation on
// url to a Conflict error.
type Store interface {
	Create(ctx context.Context, link Link) (Link, error)
	CreateMany(ctx context.Context, links []Link) (int64, error)
	FindByURL(ctx context.Context, url string) (*Link, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Link, error)
	FindMany(ctx context.Context, params FindManyParams) ([]Link, error)
	Count(ctx context.Context, filter string) (int64, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Link, error)
	Delete(ctx context.Context, id uuid.UUID) (Link, error)
}
