package links

import (
	"time"

	"github.com/google/uuid"
)

// Link is the sole entity: a managed short link. ID, ShortID and URL are
// assigned at creation and never change; URL stays fixed even if the
// configured host is later renamed. Redirect, Title and Description are
// the only mutable fields.
type Link struct {
	ID          uuid.UUID
	ShortID     string
	URL         string
	Redirect    string
	Title       string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
