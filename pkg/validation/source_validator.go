package validation

import (
	"net/url"
	"strings"

	apperrors "github.com/anime-shed/channel-engine/internal/errors"
)

// SourceKind identifies the backend a channel source is read from
type SourceKind string

const (
	SourceHTTP  SourceKind = "http"
	SourceBlob  SourceKind = "azblob"
	SourceLocal SourceKind = "local"
)

// SourceValidator handles source location validation logic
type SourceValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewSourceValidator creates a validator accepting every supported scheme
func NewSourceValidator() *SourceValidator {
	return &SourceValidator{
		allowedSchemes: []string{"http", "https", "azblob", "file"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewSourceValidatorWithOptions creates a source validator with custom options.
// Hosts restrict http(s) sources only.
func NewSourceValidatorWithOptions(schemes []string, hosts []string) *SourceValidator {
	return &SourceValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateSource checks a source location and reports which backend serves it.
// A location without a scheme is a local path.
func (v *SourceValidator) ValidateSource(source string) (SourceKind, error) {
	if strings.TrimSpace(source) == "" {
		return "", apperrors.NewValidationError("source cannot be empty", nil)
	}

	if !strings.Contains(source, "://") {
		if !v.isSchemeAllowed("file") {
			return "", apperrors.NewValidationError("local sources not allowed", nil)
		}
		return SourceLocal, nil
	}

	parsedURL, err := url.Parse(source)
	if err != nil {
		return "", apperrors.NewValidationError("invalid source format", err)
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if !v.isSchemeAllowed(scheme) {
		return "", apperrors.NewValidationError("source scheme not allowed", nil)
	}

	switch scheme {
	case "http", "https":
		if parsedURL.Host == "" {
			return "", apperrors.NewValidationError("source URL must have a valid host", nil)
		}
		if !v.isHostAllowed(parsedURL.Host) {
			return "", apperrors.NewValidationError("source host not allowed", nil)
		}
		return SourceHTTP, nil
	case "azblob":
		if parsedURL.Host == "" || strings.Trim(parsedURL.Path, "/") == "" {
			return "", apperrors.NewValidationError("blob source must be azblob://container/blob", nil)
		}
		return SourceBlob, nil
	default:
		return SourceLocal, nil
	}
}

// isSchemeAllowed checks if the scheme is in the allowed list
func (v *SourceValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed checks if the host is in the allowed list
// Returns true if no host restrictions are set (empty allowedHosts)
func (v *SourceValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if host == allowed {
			return true
		}
	}
	return false
}
