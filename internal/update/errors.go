package update

import "errors"

var (
	// ErrNetworkFailure is returned when the release request cannot complete,
	// including when it is aborted by the fetch timeout.
	ErrNetworkFailure = errors.New("update: network request failed")

	// ErrUnexpectedStatus is returned for any non-200 release response.
	ErrUnexpectedStatus = errors.New("update: unexpected response status")

	// ErrRateLimited is returned when the release API reports an exhausted rate limit.
	ErrRateLimited = errors.New("update: rate limited by release API")

	// ErrDecode is returned when the release body is not valid release JSON.
	ErrDecode = errors.New("update: decode release response")

	// ErrInvalidVersion is returned when a tag or state file does not match v<major>.<minor>.<revision>.
	ErrInvalidVersion = errors.New("update: invalid version format")
)
