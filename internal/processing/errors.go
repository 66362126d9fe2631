package processing

import "errors"

var (
	ErrUnsupportedSource = errors.New("unsupported source URL")
	ErrMissingToken      = errors.New("an access token is required for this source")
	ErrParseFailure      = errors.New("could not read uploaded file")
)
