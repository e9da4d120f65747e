package analysis

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Random is the noise source for the cosmetic fields (confidence, grammar
// issues, domain age, sender reputation). IntN returns a value in [0, n).
type Random interface {
	IntN(n int) int
}

// SystemRandom pakai math/rand/v2 global source
type SystemRandom struct{}

func (SystemRandom) IntN(n int) int { return rand.IntN(n) }

// Scorer runs the keyword heuristic. Safe for concurrent use as long as the
// Random is.
type Scorer struct {
	rnd              Random
	groups           []KeywordGroup
	grammarWeighting bool
}

type Option func(*Scorer)

// WithRandom swaps the noise source, mostly for tests.
func WithRandom(r Random) Option {
	return func(s *Scorer) { s.rnd = r }
}

// WithGrammarWeighting makes the random grammar issue count feed the score
// and the threat list.
func WithGrammarWeighting(on bool) Option {
	return func(s *Scorer) { s.grammarWeighting = on }
}

func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		rnd:    SystemRandom{},
		groups: []KeywordGroup{UrgencyKeywords, SMSKeywords, SocialKeywords},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Score never fails; an empty text yields a low verdict. Callers are
// expected to reject blank input themselves.
func (s *Scorer) Score(in Input) *Result {
	text := in.Text
	lower := strings.ToLower(text)
	threats := []string{}
	score := 0
	urgency := 0

	// keyword groups + premium number, urutan threat mengikuti urutan rule
	for _, g := range s.groups {
		if !g.appliesTo(in.Type) {
			continue
		}
		for _, p := range g.Patterns {
			if !strings.Contains(lower, p) {
				continue
			}
			score += g.Weight
			threats = append(threats, fmt.Sprintf(g.Template, p))
			if g.Name == UrgencyKeywords.Name {
				urgency++
			}
		}
		if g.Name == SMSKeywords.Name && PremiumNumber.appliesTo(in.Type) && PremiumNumber.Expr.MatchString(text) {
			score += PremiumNumber.Weight
			threats = append(threats, PremiumNumber.Threat)
		}
	}

	links := len(urlExpr.FindAllString(text, -1))
	shortened := len(shortenerExpr.FindAllString(text, -1))

	if in.Type == TypeSMS && links > 0 {
		score += weightSMSLink
		threats = append(threats, "Suspicious links in SMS message")
	} else if links > manyLinksThreshold {
		score += weightManyLinks
		threats = append(threats, "Multiple suspicious links detected")
	}

	if shortened > 0 {
		score += weightShortener
		threats = append(threats, fmt.Sprintf("%d shortened URL(s) detected", shortened))
	}

	grammar := s.rnd.IntN(maxGrammarIssues)
	if s.grammarWeighting && grammar > 0 {
		score += grammar * weightGrammarIssue
		threats = append(threats, fmt.Sprintf("%d grammar/spelling issues found", grammar))
	}

	if in.Type == TypeURL && containsAny(text, LowTrustTLDs) {
		score += weightLowTrustTLD
		threats = append(threats, "Suspicious domain detected")
	}

	if UnexpectedPhone.appliesTo(in.Type) && UnexpectedPhone.Expr.MatchString(text) {
		score += UnexpectedPhone.Weight
		threats = append(threats, UnexpectedPhone.Threat)
	}

	level := Classify(score)

	return &Result{
		RiskLevel:       level,
		Confidence:      s.confidence(),
		Threats:         threats,
		Recommendations: Recommend(level, in.Type),
		Details: Details{
			SuspiciousLinks:  links,
			GrammarIssues:    grammar,
			UrgencyKeywords:  urgency,
			DomainAge:        s.domainAge(in.Type),
			SenderReputation: s.senderReputation(in.Type),
		},
	}
}

// Recommend returns the base list for the level plus the type-specific
// extras for sms and social when the level is not low.
func Recommend(level RiskLevel, t ContentType) []string {
	out := append([]string{}, baseRecommendations[level]...)
	if level != RiskLow {
		out = append(out, typeRecommendations[t]...)
	}
	return out
}

func (s *Scorer) confidence() int {
	c := confidenceBase + s.rnd.IntN(confidenceSpread)
	if c > confidenceCeiling {
		c = confidenceCeiling
	}
	return c
}

func (s *Scorer) domainAge(t ContentType) string {
	if t != TypeURL {
		return "N/A"
	}
	return fmt.Sprintf("%d days", s.rnd.IntN(maxDomainAgeDays))
}

func (s *Scorer) senderReputation(t ContentType) string {
	if t == TypeURL {
		return "N/A"
	}
	return senderReputations[s.rnd.IntN(len(senderReputations))]
}

func containsAny(s string, subs []string) bool {
	for _, x := range subs {
		if strings.Contains(s, x) {
			return true
		}
	}
	return false
}
