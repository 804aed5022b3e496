// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the service layer to tell a
// missing record apart from a store failure without inspecting driver
// errors.
package repository

import "errors"

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when inserting a user whose email is
	// already registered.
	ErrEmailExists = errors.New("email already exists")
	// ErrTokenNotFound is returned when no refresh token matches the hash.
	ErrTokenNotFound = errors.New("refresh token not found")
	// ErrCardNotFound is returned when a card id does not resolve.
	ErrCardNotFound = errors.New("card not found")
	// ErrCommentNotFound is returned when a comment id does not resolve.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrInvalidID is returned when an id is not a well-formed ObjectID.
	ErrInvalidID = errors.New("invalid id")
)
