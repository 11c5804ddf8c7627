package service

import "errors"

var (
	ErrQuoteNotFound  = errors.New("quote not found")
	ErrLayoutNotFound = errors.New("layout not found")
	ErrInvalidInput   = errors.New("invalid input")

	// ErrNotConfigured is returned when an optional collaborator (converter,
	// email extractor, spreadsheet exporter) has not been wired.
	ErrNotConfigured = errors.New("feature not configured")
)
