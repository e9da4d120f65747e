package analysis

import "regexp"

// KeywordGroup is one ordered list of case-insensitive phrases. Each phrase
// found adds Weight to the score and a threat rendered from Template.
// Types empty means the group applies to every content type.
type KeywordGroup struct {
	Name     string
	Types    []ContentType
	Weight   int
	Template string
	Patterns []string
}

func (g KeywordGroup) appliesTo(t ContentType) bool {
	if len(g.Types) == 0 {
		return true
	}
	for _, x := range g.Types {
		if x == t {
			return true
		}
	}
	return false
}

// UrgencyKeywords are counted into Details.UrgencyKeywords.
var UrgencyKeywords = KeywordGroup{
	Name:     "urgency",
	Weight:   15,
	Template: `Contains urgency keyword: "%s"`,
	Patterns: []string{
		"urgent", "immediate", "verify", "suspended", "click here",
		"act now", "limited time", "winner", "congratulations", "free",
		"claim now", "expires today", "last chance", "confirm identity",
		"account locked", "security alert", "update payment", "prize",
	},
}

var SMSKeywords = KeywordGroup{
	Name:     "sms",
	Types:    []ContentType{TypeSMS},
	Weight:   20,
	Template: `SMS-specific suspicious pattern: "%s"`,
	Patterns: []string{
		"text stop", "reply stop", "opt out", "shortcode", "premium rate",
		"call now", "txt back", "send to", "msg&data rates",
	},
}

var SocialKeywords = KeywordGroup{
	Name:     "social",
	Types:    []ContentType{TypeSocial},
	Weight:   18,
	Template: `Social media scam indicator: "%s"`,
	Patterns: []string{
		"dm me", "check bio", "link in bio", "follow for follow",
		"investment opportunity", "make money fast", "work from home",
	},
}

// PatternRule fires once when Expr matches the raw text of an applicable type.
type PatternRule struct {
	Name   string
	Types  []ContentType
	Expr   *regexp.Regexp
	Weight int
	Threat string
}

func (p PatternRule) appliesTo(t ContentType) bool {
	return KeywordGroup{Types: p.Types}.appliesTo(t)
}

var (
	urlExpr       = regexp.MustCompile(`https?://[^\s]+`)
	shortenerExpr = regexp.MustCompile(`(bit\.ly|tinyurl|t\.co|goo\.gl|ow\.ly)`)
)

var PremiumNumber = PatternRule{
	Name:   "premium-number",
	Types:  []ContentType{TypeSMS},
	Expr:   regexp.MustCompile(`\b(900|976|550)\d{7}\b`),
	Weight: 35,
	Threat: "Premium rate phone number detected",
}

var UnexpectedPhone = PatternRule{
	Name:   "unexpected-phone",
	Types:  []ContentType{TypeEmail, TypeSocial},
	Expr:   regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`),
	Weight: 15,
	Threat: "Unexpected phone number in message",
}

// LowTrustTLDs are matched as raw substrings of url-type input.
var LowTrustTLDs = []string{".tk", ".ml", ".ga", ".cf"}

const (
	weightSMSLink      = 30
	weightManyLinks    = 25
	manyLinksThreshold = 2
	weightShortener    = 20
	weightGrammarIssue = 10
	weightLowTrustTLD  = 30
	thresholdMedium    = 20
	thresholdHigh      = 50
	confidenceBase     = 85
	confidenceSpread   = 10
	confidenceCeiling  = 95
	maxGrammarIssues   = 3
	maxDomainAgeDays   = 365
)

var senderReputations = []string{"Unknown", "Poor", "Good"}

var baseRecommendations = map[RiskLevel][]string{
	RiskLow: {
		"Content appears legitimate",
		"Always verify sender identity",
	},
	RiskMedium: {
		"Exercise caution with this content",
		"Verify through official channels",
		"Do not click suspicious links",
	},
	RiskHigh: {
		"High risk of phishing - do not interact",
		"Report to your IT security team",
		"Delete the message immediately",
	},
}

// typeRecommendations are appended when the risk level is not low.
var typeRecommendations = map[ContentType][]string{
	TypeSMS: {
		"Do not reply to suspicious SMS messages",
		"Block the sender number",
	},
	TypeSocial: {
		"Report the account to the platform",
		"Do not share personal information",
	},
}

// Classify maps a cumulative score onto a risk bucket.
func Classify(score int) RiskLevel {
	switch {
	case score < thresholdMedium:
		return RiskLow
	case score < thresholdHigh:
		return RiskMedium
	default:
		return RiskHigh
	}
}
