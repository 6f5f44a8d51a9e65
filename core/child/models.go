package child

import (
	"time"

	"github.com/checkkid/checkkid/core"
)

// Child is a roster entry. The roster is owned by the identity service;
// attendance never modifies children, it only reads them for scoping,
// display names and parent notifications.
type Child struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	KindergartenID string    `json:"kindergarten_id"`
	GroupID        string    `json:"group_id,omitempty"`
	ParentEmail    string    `json:"parent_email,omitempty"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

// NewChild contains information needed to register a child on the roster.
type NewChild struct {
	Name           string `json:"name" validate:"required"`
	KindergartenID string `json:"kindergarten_id" validate:"required"`
	GroupID        string `json:"group_id"`
	ParentEmail    string `json:"parent_email" validate:"omitempty,email"`
}

func (nc *NewChild) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.KindergartenID = core.CleanString(nc.KindergartenID)
	nc.GroupID = core.CleanString(nc.GroupID)
	nc.ParentEmail = core.CleanString(nc.ParentEmail, true /* lower */)
	return core.Validate.Struct(nc)
}
