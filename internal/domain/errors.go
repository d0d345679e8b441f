package domain

import "github.com/cwrk-planet/signaling-service/pkg/errs"

var (
	ErrRoomNotFound   = kindError{"room not found", errs.ErrNotFound}
	ErrOfferNotFound  = kindError{"offer not found", errs.ErrNotFound}
	ErrAnswerNotFound = kindError{"answer not found", errs.ErrNotFound}
	ErrNotPartyRoom   = kindError{"room is not a party room", errs.ErrInvalidInput}
	ErrNotRoomOwner   = kindError{"only the room creator can invite", errs.ErrForbidden}
	ErrInvalidRoomID  = kindError{"roomId is required", errs.ErrInvalidInput}
	ErrEmptyInvite    = kindError{"userIds must be a non-empty list", errs.ErrInvalidInput}
)

// kindError keeps a readable message while classifying under an errs sentinel.
type kindError struct {
	msg  string
	kind error
}

func (e kindError) Error() string { return e.msg }
func (e kindError) Unwrap() error { return e.kind }
