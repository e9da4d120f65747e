package history

import "time"

// RecordID identifier type
type RecordID string

// Record is one audit entry for a produced verdict. The analysed text is
// kept only as a digest and a length.
type Record struct {
	ID          RecordID  `json:"id"`
	SessionID   string    `json:"session_id,omitempty"`
	ContentType string    `json:"content_type"`
	RiskLevel   string    `json:"risk_level"`
	Confidence  int       `json:"confidence"`
	Threats     []string  `json:"threats"`
	TextDigest  string    `json:"text_digest"`
	TextLength  int       `json:"text_length"`
	ReportURL   string    `json:"report_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
