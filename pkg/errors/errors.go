package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network or extraction-service failures
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit represents rate limiting by the extraction service
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeExtraction represents an empty or malformed structured extraction
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeStore represents row-store errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError represents a platform-scoped scraping error
type ScrapeError struct {
	Type     ErrorType
	Platform string
	Message  string
	Err      error
	Time     time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Platform, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Platform, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if another fetch attempt may succeed.
// Rate limiting is never retried within a run; the platform gets a
// cooldown block instead.
func (e *ScrapeError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	default:
		return false
	}
}

// New creates a new ScrapeError
func New(errType ErrorType, platform, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:     errType,
		Platform: platform,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(platform, message string, err error) *ScrapeError {
	return New(ErrorTypeNetwork, platform, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(platform string, duration time.Duration) *ScrapeError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, platform, message, nil)
}

// NewExtraction creates a new extraction error
func NewExtraction(platform, message string, err error) *ScrapeError {
	return New(ErrorTypeExtraction, platform, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(platform, message string, err error) *ScrapeError {
	return New(ErrorTypeParsing, platform, message, err)
}

// NewStore creates a new store error
func NewStore(message string, err error) *ScrapeError {
	return New(ErrorTypeStore, "", message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(platform, message string, err error) *ScrapeError {
	return New(ErrorTypePublisher, platform, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsRateLimit reports whether err is a rate-limit ScrapeError.
func IsRateLimit(err error) bool {
	se, ok := err.(*ScrapeError)
	return ok && se.Type == ErrorTypeRateLimit
}
