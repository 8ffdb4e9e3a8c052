package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/anonto42/reunite-ai/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDiscoverer struct {
	mu    sync.Mutex
	calls []uint
	err   error
}

func (d *countingDiscoverer) DiscoverMatches(_ context.Context, found *models.Item) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, found.ID)
	return 0, d.err
}

func newTestIntake(items *memItemRepo, emb *vectorEmbedder, up *fakeUploader, disc MatchDiscoverer) *ReportIntake {
	s := NewReportIntake(items, emb, up, disc, nil)
	s.spawn = syncSpawn
	return s
}

func reportInput(t *testing.T, status, desc, imageName string) ReportInput {
	return ReportInput{
		ReportItemRequest: models.ReportItemRequest{
			Status:               status,
			Description:          desc,
			University:           "State University",
			CustomLocation:       "Main Library, 2nd floor",
			Lat:                  "40.7128",
			Lng:                  "-74.0060",
			Date:                 "2026-03-14",
			VerificationQuestion: "What sticker is on it?",
			VerificationAnswer:   "a cat",
		},
		UserID:    strPtr("user-" + status),
		ImageName: imageName,
		Image:     testPNG(t),
	}
}

func TestSubmitReport_Found(t *testing.T) {
	items := newMemItemRepo()
	emb := &vectorEmbedder{vectors: map[string][]float32{"bottle.png": {1, 0, 0}}}
	up := &fakeUploader{}
	disc := &countingDiscoverer{}
	s := newTestIntake(items, emb, up, disc)

	item, err := s.SubmitReport(context.Background(), reportInput(t, "found", "  blue water bottle with dent ", "bottle.png"))
	require.NoError(t, err)

	assert.NotZero(t, item.ID)
	assert.Equal(t, models.StatusFound, item.Status)
	assert.Equal(t, "blue water bottle with dent", item.Description)
	assert.Equal(t, []float32{1, 0, 0}, item.Embedding.Slice())
	assert.Contains(t, item.ImageURL, "https://storage.googleapis.com/")
	require.NotNil(t, item.Latitude)
	assert.InDelta(t, 40.7128, *item.Latitude, 1e-9)
	require.NotNil(t, item.VerificationAnswer)
	assert.Equal(t, "a cat", *item.VerificationAnswer)
	assert.Equal(t, 1, up.uploaded)
	assert.Equal(t, []uint{item.ID}, disc.calls)
}

func TestSubmitReport_LostDropsVerificationAndSkipsDiscovery(t *testing.T) {
	items := newMemItemRepo()
	emb := &vectorEmbedder{vectors: map[string][]float32{"bottle.png": {1, 0, 0}}}
	disc := &countingDiscoverer{}
	s := newTestIntake(items, emb, &fakeUploader{}, disc)

	item, err := s.SubmitReport(context.Background(), reportInput(t, "lost", "blue bottle dented cap", "bottle.png"))
	require.NoError(t, err)
	assert.Nil(t, item.VerificationQuestion)
	assert.Nil(t, item.VerificationAnswer)
	assert.Empty(t, disc.calls)
}

func TestSubmitReport_DiscoveryFailureDoesNotFailSubmission(t *testing.T) {
	emb := &vectorEmbedder{vectors: map[string][]float32{"bottle.png": {1, 0, 0}}}
	disc := &countingDiscoverer{err: errors.New("matcher exploded")}
	s := newTestIntake(newMemItemRepo(), emb, &fakeUploader{}, disc)

	item, err := s.SubmitReport(context.Background(), reportInput(t, "found", "blue water bottle", "bottle.png"))
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Len(t, disc.calls, 1)
}

func TestSubmitReport_Errors(t *testing.T) {
	vectors := map[string][]float32{"bottle.png": {1, 0, 0}}

	tests := []struct {
		name    string
		mutate  func(*ReportInput)
		emb     *vectorEmbedder
		up      *fakeUploader
		items   func() *memItemRepo
		wantErr error
	}{
		{
			name:    "missing description",
			mutate:  func(in *ReportInput) { in.Description = "" },
			wantErr: ErrValidation,
		},
		{
			name:    "bad status",
			mutate:  func(in *ReportInput) { in.Status = "stolen" },
			wantErr: ErrValidation,
		},
		{
			name:    "bad date",
			mutate:  func(in *ReportInput) { in.Date = "14/03/2026" },
			wantErr: ErrValidation,
		},
		{
			name:    "bad latitude",
			mutate:  func(in *ReportInput) { in.Lat = "123.4" },
			wantErr: ErrValidation,
		},
		{
			name:    "answer without question",
			mutate:  func(in *ReportInput) { in.VerificationQuestion = "" },
			wantErr: ErrValidation,
		},
		{
			name:    "not an image",
			mutate:  func(in *ReportInput) { in.Image = []byte("%PDF-1.4 definitely not a photo") },
			wantErr: ErrValidation,
		},
		{
			name:    "missing image",
			mutate:  func(in *ReportInput) { in.Image = nil },
			wantErr: ErrValidation,
		},
		{
			name:    "embedding failure",
			emb:     &vectorEmbedder{err: errors.New("502 bad gateway")},
			wantErr: ErrUpstreamEmbedding,
		},
		{
			name:    "upload failure",
			up:      &fakeUploader{err: errors.New("bucket unavailable")},
			wantErr: ErrUpstreamStorage,
		},
		{
			name: "insert failure",
			items: func() *memItemRepo {
				r := newMemItemRepo()
				r.createErr = errors.New("disk full")
				return r
			},
			wantErr: ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := newMemItemRepo()
			if tt.items != nil {
				items = tt.items()
			}
			emb := tt.emb
			if emb == nil {
				emb = &vectorEmbedder{vectors: vectors}
			}
			up := tt.up
			if up == nil {
				up = &fakeUploader{}
			}
			disc := &countingDiscoverer{}
			s := newTestIntake(items, emb, up, disc)

			in := reportInput(t, "found", "blue water bottle", "bottle.png")
			if tt.mutate != nil {
				tt.mutate(&in)
			}

			_, err := s.SubmitReport(context.Background(), in)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, items.items)
			assert.Empty(t, disc.calls)
		})
	}
}

// A found report is followed by a lost report describing the same bottle; the lost
// report's matches include the found one below the threshold.
func TestEndToEnd_FoundThenLostMatches(t *testing.T) {
	ctx := context.Background()
	items := newMemItemRepo()
	emb := &vectorEmbedder{vectors: map[string][]float32{
		"found.png": {0.90, 0.10, 0.05},
		"lost.png":  {0.88, 0.12, 0.06},
	}}
	notifications := &memNotificationRepo{}

	matcher := NewMatcher(items, MatcherConfig{Mode: repositories.MatchAny}, nil)
	dispatcher := NewDispatcher(notifications, matcher, nil)
	intake := newTestIntake(items, emb, &fakeUploader{}, dispatcher)

	foundIn := reportInput(t, "found", "blue water bottle with dent", "found.png")
	foundIn.UserID = strPtr("finder")
	found, err := intake.SubmitReport(ctx, foundIn)
	require.NoError(t, err)

	lostIn := reportInput(t, "lost", "blue bottle dented cap", "lost.png")
	lostIn.UserID = strPtr("owner")
	lost, err := intake.SubmitReport(ctx, lostIn)
	require.NoError(t, err)

	matches, err := matcher.MatchesForLostItem(ctx, lost.ID, "owner")
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.LessOrEqual(t, len(matches), DefaultMatchLimit)
	assert.Equal(t, found.ID, matches[0].ItemID)
	assert.Less(t, matches[0].Distance, matcher.Threshold())

	// The found report came first, so discovery had no lost report to notify.
	assert.Empty(t, notifications.rows)
}

// With every term required, "cap" is absent from the found description and the
// lexical stage excludes the found report.
func TestEndToEnd_StrictModeRequiresEveryTerm(t *testing.T) {
	ctx := context.Background()
	items := newMemItemRepo()
	emb := &vectorEmbedder{vectors: map[string][]float32{
		"found.png": {0.90, 0.10, 0.05},
		"lost.png":  {0.88, 0.12, 0.06},
	}}
	matcher := NewMatcher(items, MatcherConfig{Mode: repositories.MatchAll}, nil)
	intake := newTestIntake(items, emb, &fakeUploader{}, nil)

	_, err := intake.SubmitReport(ctx, reportInput(t, "found", "blue water bottle with dent", "found.png"))
	require.NoError(t, err)
	lost, err := intake.SubmitReport(ctx, reportInput(t, "lost", "blue bottle dented cap", "lost.png"))
	require.NoError(t, err)

	matches, err := matcher.MatchesForLostItem(ctx, lost.ID, "user-lost")
	require.NoError(t, err)
	assert.Empty(t, matches)
}
