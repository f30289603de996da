package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
)

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// checkOwned applies the owner-or-linked-expert rule to a row owned by ownerID.
// The owner's expert link is only loaded when an expert reads.
func checkOwned(
	ctx context.Context,
	users userReader,
	requester access.Requester,
	ownerID int64,
	action access.Action,
) error {
	var expertID *int64
	if requester.ID != ownerID && action == access.Read && requester.IsExpert() {
		owner, err := users.GetByID(ctx, ownerID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		if owner != nil {
			expertID = owner.ExpertID
		}
	}

	return access.Check(requester, access.Owned(ownerID, expertID), action)
}

// resolveClient picks whose data a read targets. A nil or self target is the
// requester; any other id must be a client linked to the requesting expert.
func resolveClient(
	ctx context.Context,
	users userReader,
	requester access.Requester,
	target *int64,
) (int64, error) {
	if target == nil || *target == requester.ID {
		if err := access.Check(requester, access.ExpertLinkedResource{ClientID: requester.ID}, access.Read); err != nil {
			return 0, err
		}
		return requester.ID, nil
	}
	if !requester.IsExpert() {
		return 0, ErrForbidden
	}

	client, err := users.GetByID(ctx, *target)
	if err != nil {
		return 0, err
	}

	resource := access.ExpertLinkedResource{ClientID: client.ID, ClientExpertID: client.ExpertID}
	if err := access.Check(requester, resource, access.Read); err != nil {
		return 0, err
	}
	return client.ID, nil
}
