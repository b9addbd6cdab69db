// Package errors contains domain-specific errors for the bot domain
package errors

import (
	"errors"
	"strings"

	pkgerrors "github.com/komuzik/media-bot/pkg/errors"
)

// Domain errors for bot operations
var (
	ErrEmptyQuery     = pkgerrors.NewValidationError("search query cannot be empty")
	ErrUnsupportedURL = pkgerrors.NewValidationError("url does not match any supported platform")
	ErrEmptyReport    = pkgerrors.NewValidationError("report text cannot be empty")
	ErrTelegramAPI    = pkgerrors.NewInternalError("telegram API error")
)

// FailureKind classifies a fetch failure for retry and fallback decisions
type FailureKind int

const (
	// KindTerminal failures are not retried
	KindTerminal FailureKind = iota
	// KindTransient failures are retried with backoff
	KindTransient
	// KindEmpty means the tool reported success but produced no usable file
	KindEmpty
	// KindPhotoOnly means the post holds no video and a photo-capable
	// tool should be tried instead
	KindPhotoOnly
)

// FetchError is a classified failure of an external extraction call
type FetchError struct {
	Kind FailureKind
	Msg  string
}

func (e *FetchError) Error() string {
	return e.Msg
}

// transientSignatures are substrings of extractor error text known to
// resolve on retry. The external tools report failures as free text,
// so substring matching is the only classification available.
var transientSignatures = []string{
	"unable to extract",
	"webpage",
}

// photoOnlySignatures mark posts that hold no video media
var photoOnlySignatures = []string{
	"There is no video in this post",
	"Unsupported URL",
}

// Classify wraps an external-tool error into a FetchError by matching
// its text against known signatures. Already-classified errors pass
// through unchanged.
func Classify(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}

	msg := err.Error()
	for _, sig := range photoOnlySignatures {
		if strings.Contains(msg, sig) {
			return &FetchError{Kind: KindPhotoOnly, Msg: msg}
		}
	}
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return &FetchError{Kind: KindTransient, Msg: msg}
		}
	}
	return &FetchError{Kind: KindTerminal, Msg: msg}
}

// NewEmpty creates a FetchError for a download that produced no file
func NewEmpty(msg string) *FetchError {
	return &FetchError{Kind: KindEmpty, Msg: msg}
}

// IsTransient reports whether err should be retried
func IsTransient(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind == KindTransient
	}
	return false
}

// IsPhotoOnly reports whether err signals a photo-only post
func IsPhotoOnly(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind == KindPhotoOnly
	}
	return false
}

// IsEmpty reports whether err signals a missing or zero-length result
func IsEmpty(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind == KindEmpty
	}
	return false
}
