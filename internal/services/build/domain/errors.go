package domain

import (
	perr "sitebuilder/internal/platform/errors"
)

// Sentinels; wrap with the helpers below so callers can errors.Is them
var (
	ErrMissingRequiredData = perr.New(perr.ErrorCodeValidation, "missing required data")
	ErrBuildInProgress     = perr.New(perr.ErrorCodeConflict, "build already in progress")
	ErrNoGenerator         = perr.New(perr.ErrorCodeUnavailable, "content generator credential missing")
	ErrMalformedContent    = perr.New(perr.ErrorCodeJSON, "malformed generated content")
	ErrNoActiveRun         = perr.New(perr.ErrorCodeConflict, "no build progress to advance")
)

// MissingData reports which required child record a site lacks
func MissingData(what string) error {
	return perr.WithField(perr.Wrapf(ErrMissingRequiredData, perr.ErrorCodeValidation, "site has no %s", what), what)
}

// Malformed reports generator output that failed decoding or validation
func Malformed(kind, reason string) error {
	return perr.Wrapf(ErrMalformedContent, perr.ErrorCodeJSON, "%s content malformed: %s", kind, reason)
}
