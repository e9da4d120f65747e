package chat

import (
	"context"
	"testing"
)

func TestSelector_Match(t *testing.T) {
	tests := []struct {
		question string
		wantRule string
	}{
		{"What is phishing?", "phishing-definition"},
		{"what is a VPN", "phishing-definition"},
		{"How secure is my email?", "email-safety"},
		{"is EMAIL safe", "email-safety"},
		{"I got a weird SMS", "sms-safety"},
		{"strange text from my bank", "sms-safety"},
		{"Someone on Instagram messaged me", "social-media-safety"},
		{"tips for social media", "social-media-safety"},
		{"make my password strong", "password-safety"},
		{"is this secure", "password-safety"},
		{"can you help", "help-request"},
		{"How do I report it", "help-request"},
		{"thanks a lot", "gratitude"},
		{"email from my boss", ""},
		{"Good morning", ""},
	}

	s := NewSelector()
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			r, ok := s.Match(tt.question)
			if tt.wantRule == "" {
				if ok {
					t.Fatalf("expected fallback, matched %q", r.Name)
				}
				return
			}
			if !ok {
				t.Fatalf("expected rule %q, got fallback", tt.wantRule)
			}
			if r.Name != tt.wantRule {
				t.Errorf("rule = %q, want %q", r.Name, tt.wantRule)
			}
		})
	}
}

func TestSelector_FirstMatchWins(t *testing.T) {
	// hits phishing, sms and help; the earliest rule decides
	got := NewSelector().Select("how do I spot phishing in a text?")
	if got != Rules[0].Answer {
		t.Errorf("got %q, want phishing definition", got)
	}
}

func TestSelector_Fallback(t *testing.T) {
	got, err := NewSelector().Respond(context.Background(), "Good morning")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != Fallback {
		t.Errorf("got %q, want fallback", got)
	}
}

func TestSelector_Deterministic(t *testing.T) {
	s := NewSelector()
	for i := 0; i < 5; i++ {
		if s.Select("What is phishing?") != Rules[0].Answer {
			t.Fatal("answer changed between calls")
		}
	}
}
