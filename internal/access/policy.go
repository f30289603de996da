// Package access holds the authorization rules shared by every service.
//
// A Resource is one of three closed variants. Check evaluates the
// requester's capability against the variant explicitly, so a service never
// has to know how ownership is represented on a particular row.
package access

import "errors"

const (
	RoleUser   = "user"
	RoleExpert = "expert"
)

var ErrForbidden = errors.New("forbidden")

type Action int

const (
	Read Action = iota
	Write
)

type Requester struct {
	ID   int64
	Role string
}

func (r Requester) IsExpert() bool {
	return r.Role == RoleExpert
}

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleExpert
}

type Resource interface {
	resource()
}

// OwnedResource is a row that belongs to one user.
type OwnedResource struct {
	OwnerID       int64
	OwnerExpertID *int64
}

// ExpertLinkedResource is a client's data requested by user id, such as
// statistics or suggestions. Only the client and their expert may see it.
type ExpertLinkedResource struct {
	ClientID       int64
	ClientExpertID *int64
}

// SelfResource is a user record.
type SelfResource struct {
	UserID   int64
	ExpertID *int64
}

func (OwnedResource) resource()        {}
func (ExpertLinkedResource) resource() {}
func (SelfResource) resource()         {}

func Owned(ownerID int64, ownerExpertID *int64) OwnedResource {
	return OwnedResource{OwnerID: ownerID, OwnerExpertID: ownerExpertID}
}

func Check(requester Requester, resource Resource, action Action) error {
	if requester.ID <= 0 || !ValidRole(requester.Role) {
		return ErrForbidden
	}

	switch r := resource.(type) {
	case OwnedResource:
		return ownerOrLinkedExpert(requester, r.OwnerID, r.OwnerExpertID, action)
	case ExpertLinkedResource:
		return ownerOrLinkedExpert(requester, r.ClientID, r.ClientExpertID, action)
	case SelfResource:
		if requester.ID == r.UserID {
			return nil
		}
		if action == Write {
			return ErrForbidden
		}
		if requester.IsExpert() && !linkedTo(r.ExpertID, requester.ID) {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}

func RequireExpert(requester Requester) error {
	if requester.ID <= 0 || !requester.IsExpert() {
		return ErrForbidden
	}
	return nil
}

func ownerOrLinkedExpert(requester Requester, ownerID int64, ownerExpertID *int64, action Action) error {
	if requester.ID == ownerID {
		return nil
	}
	if action == Read && requester.IsExpert() && linkedTo(ownerExpertID, requester.ID) {
		return nil
	}
	return ErrForbidden
}

func linkedTo(expertID *int64, requesterID int64) bool {
	return expertID != nil && *expertID == requesterID
}
