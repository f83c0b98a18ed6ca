package errors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrSessionClosed     = errors.New("tracking session closed")
	ErrNotDelivered      = errors.New("order is not delivered yet")
	ErrReturnInProgress  = errors.New("return flight already in progress")
	ErrIllegalTransition = errors.New("illegal order status transition")
	ErrReadOnlySession   = errors.New("session does not allow operator actions")
)
