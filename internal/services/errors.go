// Package services defines the business logic for users, items, orders,
// groups, and messaging. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

var (
	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned on registration with an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on login with a wrong email or
	// password. Callers must not reveal which of the two was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrItemNotFound indicates the requested item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrNotOwner is returned when a user attempts to modify a listing they
	// do not own.
	ErrNotOwner = errors.New("not the owner of this item")

	// ErrUnsupportedCurrency is returned when an item is listed in a
	// currency outside the supported set.
	ErrUnsupportedCurrency = errors.New("currency not supported")

	// ErrOrderNotFound indicates the requested order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrGroupNotFound indicates the requested group does not exist.
	ErrGroupNotFound = errors.New("group not found")

	// ErrNotParticipant is returned when a user acts on an order chat they
	// are not a party to.
	ErrNotParticipant = errors.New("not a participant of this order")

	// ErrEmptyMessage is returned when a chat message contains no text.
	ErrEmptyMessage = errors.New("message text is empty")

	// ErrTooLong is returned when a chat message exceeds the maximum
	// configured length limit.
	ErrTooLong = errors.New("message too long")
)
