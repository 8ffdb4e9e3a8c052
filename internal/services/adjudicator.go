package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/anonto42/reunite-ai/backend/internal/metrics"
	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/anonto42/reunite-ai/backend/internal/reasoning"
	"github.com/anonto42/reunite-ai/backend/internal/repositories"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultProviderTimeout = 15 * time.Second

	fallbackQuestion = "Please describe a unique feature of this item that only the owner would know (e.g. a scratch, sticker, contents or lock screen)."

	msgManualReview      = "Your claim has been submitted for manual review. We will notify you once our team has checked it."
	msgApproved          = "Ownership verified. Show your pickup code at the lost-and-found office to collect your item."
	msgFinderPending     = "A claim on the item you found is pending review by our team."
	auditTimeout         = 10 * time.Second
	outcomeApproved      = "approved"
	outcomeManualReview  = "manual_review"
	outcomeProviderError = "provider_unavailable"
)

// Adjudicator decides claims with the reasoning providers and falls back to manual review
type Adjudicator struct {
	items     repositories.ItemRepository
	claims    repositories.ClaimRepository
	providers []reasoning.Provider
	notifier  Notifier
	audit     repositories.AdjudicationLogRepository
	metrics   metrics.Recorder
	timeout   time.Duration

	pickupCode func() string
	spawn      func(func())
}

// AdjudicatorConfig holds the collaborators of the Adjudicator. Providers are tried in order.
type AdjudicatorConfig struct {
	Items     repositories.ItemRepository
	Claims    repositories.ClaimRepository
	Providers []reasoning.Provider
	Notifier  Notifier
	Audit     repositories.AdjudicationLogRepository
	Metrics   metrics.Recorder
	Timeout   time.Duration
}

// NewAdjudicator creates a new Adjudicator
func NewAdjudicator(cfg AdjudicatorConfig) *Adjudicator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultProviderTimeout
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}
	if cfg.Audit == nil {
		cfg.Audit = repositories.NewNoopAdjudicationLogRepository()
	}
	return &Adjudicator{
		items:      cfg.Items,
		claims:     cfg.Claims,
		providers:  cfg.Providers,
		notifier:   cfg.Notifier,
		audit:      cfg.Audit,
		metrics:    cfg.Metrics,
		timeout:    cfg.Timeout,
		pickupCode: NewPickupCode,
		spawn:      func(f func()) { go f() },
	}
}

// NewPickupCode returns a code of the form R-AI-#### with #### in [1000, 9999]
func NewPickupCode() string {
	return fmt.Sprintf("R-AI-%d", 1000+rand.Intn(9000))
}

// StartClaim returns the question the claimant must answer for a found item
func (a *Adjudicator) StartClaim(ctx context.Context, foundItemID uint) (string, error) {
	found, err := a.loadItem(ctx, foundItemID)
	if err != nil {
		return "", err
	}
	if found.Status == models.StatusLost {
		return "", fmt.Errorf("%w: item %d is not a found report", ErrNotFound, foundItemID)
	}
	if found.VerificationQuestion != nil && *found.VerificationQuestion != "" {
		return *found.VerificationQuestion, nil
	}
	return fallbackQuestion, nil
}

// VerifyClaim adjudicates a claim. Once both items exist, reasoning provider
// outages resolve to a pending claim instead of an error.
func (a *Adjudicator) VerifyClaim(ctx context.Context, req models.VerifyClaimRequest, claimant models.Identity) (*models.ClaimResult, error) {
	if claimant.UserID == "" {
		return nil, ErrUnauthenticated
	}

	var found, lost *models.Item
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		found, err = a.loadItem(gctx, req.FoundItemID)
		return err
	})
	g.Go(func() (err error) {
		lost, err = a.loadItem(gctx, req.LostItemID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := checkClaimable(found, lost, claimant.UserID); err != nil {
		return nil, err
	}

	prompt := BuildAdjudicationPrompt(found, lost, req.ClaimantAnswer)
	provider, raw, callErrs := a.complete(ctx, prompt)

	entry := &models.Adjudication{
		FoundItemID: found.ID,
		LostItemID:  lost.ID,
		ClaimantID:  claimant.UserID,
		Provider:    provider,
		RawVerdict:  raw,
		Errors:      callErrs,
	}

	if provider == "" {
		slog.Warn("all reasoning providers failed, routing claim to manual review",
			"found_item_id", found.ID, "lost_item_id", lost.ID, "errors", callErrs)
		entry.Decision = string(DecisionReview)
		entry.Outcome = outcomeProviderError
		return a.pending(ctx, found, lost, claimant, entry)
	}

	decision := NormalizeVerdict(raw)
	entry.Decision = string(decision)
	if decision != DecisionApprove {
		entry.Outcome = outcomeManualReview
		return a.pending(ctx, found, lost, claimant, entry)
	}

	approved, err := a.claims.ApproveClaim(ctx, lost.ID, found.ID, claimant.Email, a.pickupCode())
	if err != nil {
		a.metrics.ClaimOutcome("approve_failed")
		switch {
		case errors.Is(err, repositories.ErrAlreadyClaimed):
			return nil, ErrAlreadyClaimed
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrNotFound
		default:
			slog.Error("claim approval could not be committed", "found_item_id", found.ID, "lost_item_id", lost.ID, "error", err)
			return nil, fmt.Errorf("%w: claim could not be finalized: %v", ErrPersistence, err)
		}
	}

	entry.ClaimID = approved.Claim.ID
	entry.Outcome = outcomeApproved
	a.metrics.ClaimOutcome(outcomeApproved)
	a.notifyApproved(ctx, approved)
	a.record(ctx, entry)

	slog.Info("claim approved", "claim_id", approved.Claim.ID, "found_item_id", found.ID, "provider", provider)
	return &models.ClaimResult{
		Verified:   true,
		PickupCode: approved.Claim.PickupCode,
		ClaimID:    approved.Claim.ID,
		Message:    msgApproved,
	}, nil
}

// complete tries each provider in order. It returns the name of the provider that
// answered, or an empty name together with the collected failures.
func (a *Adjudicator) complete(ctx context.Context, prompt string) (string, string, []string) {
	var failures []string
	for _, p := range a.providers {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		start := time.Now()
		raw, err := p.Complete(callCtx, prompt)
		cancel()

		if err != nil {
			a.metrics.ProviderCall(p.Name(), "error", time.Since(start))
			slog.Warn("reasoning provider failed", "provider", p.Name(), "error", err)
			failures = append(failures, p.Name()+": "+err.Error())
			continue
		}
		a.metrics.ProviderCall(p.Name(), "ok", time.Since(start))
		return p.Name(), raw, failures
	}
	return "", "", failures
}

func (a *Adjudicator) pending(ctx context.Context, found, lost *models.Item, claimant models.Identity, entry *models.Adjudication) (*models.ClaimResult, error) {
	claim, err := a.claims.CreatePendingClaim(ctx, lost.ID, found.ID, claimant.Email)
	if err != nil {
		slog.Error("failed to record pending claim", "found_item_id", found.ID, "lost_item_id", lost.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	entry.ClaimID = claim.ID
	a.metrics.ClaimOutcome(entry.Outcome)

	if found.UserID != nil {
		foundID, lostID := found.ID, lost.ID
		if err := a.notifier.Notify(ctx, NotifyArgs{
			UserID:      *found.UserID,
			Message:     msgFinderPending,
			LostItemID:  &lostID,
			FoundItemID: &foundID,
		}); err != nil {
			slog.Warn("failed to notify finder of pending claim", "claim_id", claim.ID, "error", err)
		}
	}
	a.record(ctx, entry)

	return &models.ClaimResult{
		Verified: false,
		ClaimID:  claim.ID,
		Message:  msgManualReview,
	}, nil
}

func (a *Adjudicator) notifyApproved(ctx context.Context, approved *models.ApprovedClaim) {
	code := ""
	if approved.Claim.PickupCode != nil {
		code = *approved.Claim.PickupCode
	}
	lostID, foundID := approved.UpdatedLost.ID, approved.UpdatedFound.ID

	var batch []NotifyArgs
	if owner := approved.UpdatedLost.UserID; owner != nil {
		batch = append(batch, NotifyArgs{
			UserID:      *owner,
			Message:     fmt.Sprintf("Great news! You have been reunited with your item. Your pickup code is %s.", code),
			LostItemID:  &lostID,
			FoundItemID: &foundID,
		})
	}
	if finder := approved.UpdatedFound.UserID; finder != nil && !approved.UpdatedLost.OwnedBy(*finder) {
		batch = append(batch, NotifyArgs{
			UserID:      *finder,
			Message:     fmt.Sprintf("The item you found has been reunited with its owner. They will present pickup code %s.", code),
			LostItemID:  &lostID,
			FoundItemID: &foundID,
		})
	}
	if err := a.notifier.NotifyBatch(ctx, batch); err != nil {
		slog.Warn("failed to send approval notifications", "claim_id", approved.Claim.ID, "error", err)
	}
}

// record appends the verdict to the audit log without blocking the response
func (a *Adjudicator) record(ctx context.Context, entry *models.Adjudication) {
	detached := context.WithoutCancel(ctx)
	a.spawn(func() {
		actx, cancel := context.WithTimeout(detached, auditTimeout)
		defer cancel()
		if err := a.audit.Record(actx, entry); err != nil {
			slog.Warn("failed to record adjudication", "claim_id", entry.ClaimID, "error", err)
		}
	})
}

// History lists the verdicts recorded for a found item; only its finder may read them
func (a *Adjudicator) History(ctx context.Context, foundItemID uint, userID string, limit int64) ([]models.Adjudication, error) {
	found, err := a.loadItem(ctx, foundItemID)
	if err != nil {
		return nil, err
	}
	if !found.OwnedBy(userID) {
		return nil, ErrNotFoundOrNotOwned
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	entries, err := a.audit.ListByFoundItem(ctx, foundItemID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if entries == nil {
		entries = []models.Adjudication{}
	}
	return entries, nil
}

func (a *Adjudicator) loadItem(ctx context.Context, id uint) (*models.Item, error) {
	item, err := a.items.GetItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return item, nil
}

func checkClaimable(found, lost *models.Item, claimantID string) error {
	if found.Status == models.StatusLost {
		return fmt.Errorf("%w: item %d is not a found report", ErrNotFound, found.ID)
	}
	if found.Status == models.StatusClaimed || found.Status == models.StatusReturned {
		return ErrAlreadyClaimed
	}
	if lost.Status != models.StatusLost {
		return fmt.Errorf("%w: item %d is not an open lost report", ErrNotFound, lost.ID)
	}
	if lost.UserID != nil && !lost.OwnedBy(claimantID) {
		return ErrNotFoundOrNotOwned
	}
	if found.OwnedBy(claimantID) {
		return fmt.Errorf("%w: you cannot claim an item you reported as found", ErrValidation)
	}
	return nil
}
