package chat

import (
	"context"
	"strings"
)

// Rule fires when the lowered question contains any of Triggers and, if
// Requires is set, also any of Requires.
type Rule struct {
	Name     string
	Triggers []string
	Requires []string
	Answer   string
}

func (r Rule) matches(lower string) bool {
	if !containsAny(lower, r.Triggers) {
		return false
	}
	return len(r.Requires) == 0 || containsAny(lower, r.Requires)
}

// Rules is evaluated top to bottom, first match wins. Order is priority:
// "how secure is my email" must land on email safety, not password safety.
var Rules = []Rule{
	{
		Name:     "phishing-definition",
		Triggers: []string{"phishing", "what is"},
		Answer:   "Phishing is a cybercrime where attackers impersonate legitimate organizations to steal sensitive information like passwords, credit card numbers, or personal data. They typically use fake emails, websites, or messages that look authentic to trick victims into revealing their information.",
	},
	{
		Name:     "email-safety",
		Triggers: []string{"email"},
		Requires: []string{"safe", "secure"},
		Answer:   "To stay safe with emails: 1) Always verify the sender's identity, 2) Don't click suspicious links - hover to see the real URL, 3) Be wary of urgent requests for personal info, 4) Check for grammar/spelling errors, 5) Use official websites to log into accounts, not email links.",
	},
	{
		Name:     "sms-safety",
		Triggers: []string{"sms", "text"},
		Answer:   "SMS phishing (smishing) is common. Red flags include: unexpected texts with links, requests for personal info, urgent payment demands, or messages from unknown numbers. Never click links in suspicious texts - verify through official channels instead.",
	},
	{
		Name:     "social-media-safety",
		Triggers: []string{"social media", "facebook", "instagram"},
		Answer:   "Social media scams often involve fake investment opportunities, romance scams, or impersonation. Always verify profiles, don't share personal info with strangers, be skeptical of get-rich-quick schemes, and report suspicious accounts.",
	},
	{
		Name:     "password-safety",
		Triggers: []string{"password", "secure"},
		Answer:   "Password security tips: Use unique, complex passwords for each account, enable two-factor authentication, use a password manager, never share passwords, and change them if you suspect a breach.",
	},
	{
		Name:     "help-request",
		Triggers: []string{"help", "how"},
		Answer:   "I can help you with: understanding different types of phishing attacks, email security best practices, SMS/text message safety, social media security, password protection, and general cybersecurity advice. What specific topic interests you?",
	},
	{
		Name:     "gratitude",
		Triggers: []string{"thank", "thanks"},
		Answer:   "You're welcome! Stay vigilant and remember - when in doubt, verify through official channels. Feel free to ask me anything else about cybersecurity!",
	},
}

const Fallback = "That's a great question! I can help you understand phishing attacks, security best practices, and how to stay safe online. Could you be more specific about what you'd like to know? For example, ask me about email security, SMS safety, or social media protection."

// Selector is the rule-table Responder.
type Selector struct {
	rules []Rule
}

func NewSelector() *Selector {
	return &Selector{rules: Rules}
}

// Match returns the first matching rule, ok=false means the fallback applies.
func (s *Selector) Match(question string) (Rule, bool) {
	lower := strings.ToLower(question)
	for _, r := range s.rules {
		if r.matches(lower) {
			return r, true
		}
	}
	return Rule{}, false
}

// Select returns the answer text for question.
func (s *Selector) Select(question string) string {
	if r, ok := s.Match(question); ok {
		return r.Answer
	}
	return Fallback
}

func (s *Selector) Respond(_ context.Context, question string) (string, error) {
	return s.Select(question), nil
}

func containsAny(s string, subs []string) bool {
	for _, x := range subs {
		if strings.Contains(s, x) {
			return true
		}
	}
	return false
}
