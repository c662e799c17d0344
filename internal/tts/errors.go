package tts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrEmptyText is returned when attempting to synthesize empty text.
	ErrEmptyText = errors.New("empty text")
	// ErrSynthesisFailed is returned when TTS synthesis fails.
	ErrSynthesisFailed = errors.New("TTS synthesis failed")
	// ErrInvalidOptions is returned when synthesis options fail validation.
	ErrInvalidOptions = errors.New("invalid synthesis options")
	// ErrMissingCredentials is returned when an engine has no API key or user id.
	ErrMissingCredentials = errors.New("API key and user id are required")
	// ErrInvalidVoiceEngine is returned for an unknown PlayHT voice engine.
	ErrInvalidVoiceEngine = errors.New("invalid voice engine")
	// ErrRateLimited is returned when the vendor rejects a call with 429.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrUnauthorized is returned when the vendor rejects the credentials.
	ErrUnauthorized = errors.New("vendor rejected credentials")
)

// SynthesisError carries vendor error details.
type SynthesisError struct {
	Provider  string
	Code      string
	Message   string
	Cause     error
	Retryable bool
}

func (e *SynthesisError) Error() string {
	msg := e.Provider + ": " + e.Message
	if e.Code != "" {
		msg = e.Provider + ": " + e.Code + ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the cause and ErrSynthesisFailed to errors.Is.
func (e *SynthesisError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrSynthesisFailed}
	}
	return []error{ErrSynthesisFailed, e.Cause}
}

// vendorError is the union of the error bodies Play.ai and PlayHT return.
type vendorError struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	ErrorMessage string `json:"error_message"`
	ErrorID      string `json:"error_id"`
}

// responseError turns a non-2xx vendor response into a SynthesisError.
func responseError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var cause error
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		cause = ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		cause = ErrUnauthorized
	}

	message := string(body)
	var ve vendorError
	if json.Unmarshal(body, &ve) == nil {
		for _, m := range []string{ve.ErrorMessage, ve.Message, ve.Error} {
			if m != "" {
				message = m
				break
			}
		}
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return &SynthesisError{
		Provider:  provider,
		Code:      fmt.Sprintf("%d", resp.StatusCode),
		Message:   message,
		Cause:     cause,
		Retryable: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError,
	}
}
