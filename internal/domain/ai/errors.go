package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrEmptyAnswer means the provider replied without any usable content.
var ErrEmptyAnswer = errors.New("ai returned empty answer")
