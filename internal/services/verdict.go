package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/anonto42/reunite-ai/backend/internal/models"
)

// Decision is the normalized adjudication verdict
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReview  Decision = "review"
)

var (
	yesWord = regexp.MustCompile(`(?i)\byes\b`)
	noWord  = regexp.MustCompile(`(?i)\bno\b`)
)

// NormalizeVerdict maps free model text to a decision. Anything other than an
// unambiguous yes falls to manual review.
func NormalizeVerdict(raw string) Decision {
	text := strings.ToLower(strings.TrimSpace(raw))
	switch text {
	case "yes":
		return DecisionApprove
	case "no", "":
		return DecisionReview
	}

	hasYes := yesWord.MatchString(text)
	hasNo := noWord.MatchString(text)
	if hasYes && !hasNo {
		return DecisionApprove
	}
	return DecisionReview
}

const adjudicationPrompt = `You are a strict anti-fraud assistant for a university lost-and-found office.
Someone is trying to claim a found item. Decide whether the claimant is genuinely the owner.

Found item description: %s
Verification question asked by the finder: %s
Correct answer provided by the finder (never shown to the claimant): %s

Claimant's own lost item report: %s
Claimant's answer to the verification question: %s

Approve only if the claimant's answer clearly matches the correct answer and the lost report is consistent with the found item.
If there is any doubt, vagueness or inconsistency, do not approve.
Respond with exactly one word: "yes" to approve or "no" to send the claim to manual review.`

// BuildAdjudicationPrompt renders the fixed prompt for one claim
func BuildAdjudicationPrompt(found, lost *models.Item, claimantAnswer string) string {
	return fmt.Sprintf(adjudicationPrompt,
		found.Description,
		valueOr(found.VerificationQuestion, "(none)"),
		valueOr(found.VerificationAnswer, "(none)"),
		lost.Description,
		strings.TrimSpace(claimantAnswer),
	)
}

func valueOr(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}
