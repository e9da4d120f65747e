package analysis

import (
	"errors"
	"strings"
)

// ContentType tag yang menentukan rule tambahan saat scoring
type ContentType string

const (
	TypeEmail  ContentType = "email"
	TypeURL    ContentType = "url"
	TypeSMS    ContentType = "sms"
	TypeSocial ContentType = "social"
)

// ErrInvalidContentType dikembalikan saat tag konten bukan salah satu dari email, url, sms, social.
var ErrInvalidContentType = errors.New("invalid content type")

// ParseContentType normalizes a raw tag. Empty defaults to email, matching the selector's initial value.
func ParseContentType(raw string) (ContentType, error) {
	t := ContentType(strings.ToLower(strings.TrimSpace(raw)))
	if t == "" {
		return TypeEmail, nil
	}
	if !t.Valid() {
		return "", ErrInvalidContentType
	}
	return t, nil
}

func (t ContentType) Valid() bool {
	switch t {
	case TypeEmail, TypeURL, TypeSMS, TypeSocial:
		return true
	}
	return false
}

// RiskLevel enum
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Input teks mentah + tipe konten
type Input struct {
	Text string      `json:"text"`
	Type ContentType `json:"type"`
}

// Blank reports whether the text is empty or whitespace only.
func (in Input) Blank() bool {
	return strings.TrimSpace(in.Text) == ""
}

// Details value object, angka-angka pendukung verdict
type Details struct {
	SuspiciousLinks  int    `json:"suspicious_links"`
	GrammarIssues    int    `json:"grammar_issues"`
	UrgencyKeywords  int    `json:"urgency_keywords"`
	DomainAge        string `json:"domain_age"`
	SenderReputation string `json:"sender_reputation"`
}

// Result is the verdict for one input. A new analysis always yields a new Result.
type Result struct {
	RiskLevel       RiskLevel `json:"risk_level"`
	Confidence      int       `json:"confidence"`
	Threats         []string  `json:"threats"`
	Recommendations []string  `json:"recommendations"`
	Details         Details   `json:"details"`
}

// Clone deep-copies the slices so callers can't mutate a stored verdict.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := *r
	out.Threats = append([]string{}, r.Threats...)
	out.Recommendations = append([]string{}, r.Recommendations...)
	return &out
}
