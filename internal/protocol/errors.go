package protocol

import (
	"context"
	"errors"

	"glavblock.dev/internal/sim/simerr"
	"glavblock.dev/internal/sim/world"
)

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// World loop availability.
	ErrColonyBusy = "E_COLONY_BUSY"

	// Rule layer, one per simerr code.
	ErrBadRequest         = "E_BAD_REQUEST"
	ErrNotEnoughArea      = "E_NOT_ENOUGH_AREA"
	ErrNotEnoughResources = "E_NOT_ENOUGH_RESOURCES"
	ErrNoEmptyTiles       = "E_NO_EMPTY_TILES"
	ErrNoSuchUnit         = "E_NO_SUCH_UNIT"
	ErrAlreadyHere        = "E_ALREADY_HERE"
	ErrCollision          = "E_COLLISION"
	ErrInternal           = "E_INTERNAL"
)

var simCodes = map[simerr.Code]string{
	simerr.BadRequest:         ErrBadRequest,
	simerr.NotEnoughArea:      ErrNotEnoughArea,
	simerr.NotEnoughResources: ErrNotEnoughResources,
	simerr.NoEmptyTiles:       ErrNoEmptyTiles,
	simerr.NoSuchUnit:         ErrNoSuchUnit,
	simerr.AlreadyHere:        ErrAlreadyHere,
	simerr.Collision:          ErrCollision,
	simerr.InternalLogicError: ErrInternal,
}

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:    {},
	ErrColonyBusy:         {},
	ErrBadRequest:         {},
	ErrNotEnoughArea:      {},
	ErrNotEnoughResources: {},
	ErrNoEmptyTiles:       {},
	ErrNoSuchUnit:         {},
	ErrAlreadyHere:        {},
	ErrCollision:          {},
	ErrInternal:           {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// CodeFor maps an error returned by the world to its wire code.
func CodeFor(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, world.ErrStopped) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrColonyBusy
	}
	return simCodes[simerr.CodeOf(err)]
}
