package models

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredential    = errors.New("fred api key is required")
	ErrAllComponentsMissing = errors.New("all components missing")
	ErrEmptyResult          = errors.New("no rows remain after dropping undefined periods")
	ErrInvalidParams        = errors.New("invalid parameters")
)

// Source identifies the provider class a series comes from.
type Source string

const (
	SourceMacro  Source = "macro"
	SourceMarket Source = "market"
)

// FetchError collapses every provider failure (credential, rate limit,
// unknown identifier, network) into one reportable cause.
type FetchError struct {
	Source Source
	ID     string
	Cause  string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s %s: %s", e.Source, e.ID, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError builds a FetchError from an underlying error.
func NewFetchError(src Source, id string, err error) *FetchError {
	cause := "unknown error"
	if err != nil {
		cause = err.Error()
	}
	return &FetchError{Source: src, ID: id, Cause: cause, Err: err}
}
