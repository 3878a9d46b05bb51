package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// OwnerType discriminates which table an Owner.ID points into.
type OwnerType string

const (
	OwnerTypeUser OwnerType = "user"
	OwnerTypeTeam OwnerType = "team"
)

var ErrInvalidOwnerType = errors.New("invalid owner type")

// Owner is the polymorphic owner of a Site or Plugin: exactly one user or one team.
// Code that branches on Type must switch over both kinds and treat anything else
// as ErrInvalidOwnerType.
type Owner struct {
	Type OwnerType `json:"owner_type"`
	ID   uuid.UUID `json:"owner_id"`
}

func UserOwner(id uuid.UUID) Owner {
	return Owner{Type: OwnerTypeUser, ID: id}
}

func TeamOwner(id uuid.UUID) Owner {
	return Owner{Type: OwnerTypeTeam, ID: id}
}

// ParseOwner builds an Owner from its stored representation.
func ParseOwner(ownerType string, id uuid.UUID) (Owner, error) {
	switch OwnerType(ownerType) {
	case OwnerTypeUser:
		return UserOwner(id), nil
	case OwnerTypeTeam:
		return TeamOwner(id), nil
	default:
		return Owner{}, fmt.Errorf("%w: %q", ErrInvalidOwnerType, ownerType)
	}
}

func (o Owner) Validate() error {
	switch o.Type {
	case OwnerTypeUser, OwnerTypeTeam:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOwnerType, o.Type)
	}
	if o.ID == uuid.Nil {
		return errors.New("owner id is required")
	}
	return nil
}

func (o Owner) IsUser() bool { return o.Type == OwnerTypeUser }
func (o Owner) IsTeam() bool { return o.Type == OwnerTypeTeam }

// Ref renders the owner as "type:id", the form used in activity details.
func (o Owner) Ref() string {
	return fmt.Sprintf("%s:%s", o.Type, o.ID)
}
