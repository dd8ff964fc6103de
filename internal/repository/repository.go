package repository

import "errors"

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.

// ErrDuplicateUsername is returned by UserRepository.Create when the username
// is already taken.
var ErrDuplicateUsername = errors.New("username already exists")

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
