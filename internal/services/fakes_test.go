package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/anonto42/reunite-ai/backend/internal/repositories"
)

func strPtr(s string) *string { return &s }

// memItemRepo keeps items in memory. Its lexical stage matches a term against a
// description token when either is a prefix of the other, which is close enough to
// english stemming for the descriptions used here.
type memItemRepo struct {
	mu     sync.Mutex
	items  map[uint]*models.Item
	nextID uint

	lexicalCalls int
	rankCalls    int
	lexicalErr   error
	getErr       error
	createErr    error
	// overrides
	lexicalIDs []uint
	ranked     []models.Candidate
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{items: make(map[uint]*models.Item), nextID: 1}
}

func (r *memItemRepo) CreateItem(_ context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	item.ID = r.nextID
	r.nextID++
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *memItemRepo) GetItemByID(_ context.Context, id uint) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	item, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *memItemRepo) LexicalCandidates(_ context.Context, status models.ItemStatus, terms []string, mode repositories.MatchMode) ([]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lexicalCalls++
	if r.lexicalErr != nil {
		return nil, r.lexicalErr
	}
	if r.lexicalIDs != nil {
		return r.lexicalIDs, nil
	}

	var ids []uint
	for id, item := range r.items {
		if item.Status != status {
			continue
		}
		tokens := strings.Fields(strings.ToLower(item.Description))
		matched := 0
		for _, term := range terms {
			for _, tok := range tokens {
				if strings.HasPrefix(tok, term) || (strings.HasPrefix(term, tok) && len(tok) > 2) {
					matched++
					break
				}
			}
		}
		if (mode == repositories.MatchAny && matched > 0) || matched == len(terms) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *memItemRepo) RankByDistance(_ context.Context, ids []uint, query []float32) ([]models.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rankCalls++
	if r.ranked != nil {
		return r.ranked, nil
	}

	out := make([]models.Candidate, 0, len(ids))
	for _, id := range ids {
		item := r.items[id]
		out = append(out, models.Candidate{
			ItemID:      item.ID,
			UserID:      item.UserID,
			Description: item.Description,
			Location:    item.Location,
			ItemDate:    item.ItemDate,
			ImageURL:    item.ImageURL,
			Distance:    cosineDistance(query, item.Embedding.Slice()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

type fakeClaimRepo struct {
	mu         sync.Mutex
	pending    []models.Claim
	approved   []models.Claim
	approveErr error
	pendingErr error
	items      *memItemRepo
	nextID     uint
}

func (r *fakeClaimRepo) CreatePendingClaim(_ context.Context, lostItemID, foundItemID uint, email string) (*models.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pendingErr != nil {
		return nil, r.pendingErr
	}
	r.nextID++
	c := models.Claim{ID: r.nextID, LostItemID: lostItemID, FoundItemID: foundItemID, ClaimantEmail: email, Status: models.ClaimPending}
	r.pending = append(r.pending, c)
	return &c, nil
}

func (r *fakeClaimRepo) ApproveClaim(ctx context.Context, lostItemID, foundItemID uint, email, code string) (*models.ApprovedClaim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.approveErr != nil {
		return nil, r.approveErr
	}
	found, err := r.items.GetItemByID(ctx, foundItemID)
	if err != nil {
		return nil, err
	}
	lost, err := r.items.GetItemByID(ctx, lostItemID)
	if err != nil {
		return nil, err
	}
	r.nextID++
	c := models.Claim{ID: r.nextID, LostItemID: lostItemID, FoundItemID: foundItemID, ClaimantEmail: email, PickupCode: &code, Status: models.ClaimApproved}
	r.approved = append(r.approved, c)
	found.Status = models.StatusClaimed
	lost.Status = models.StatusReunited
	return &models.ApprovedClaim{Claim: c, UpdatedFound: *found, UpdatedLost: *lost}, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []NotifyArgs
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, args NotifyArgs) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, args)
	return nil
}

func (n *recordingNotifier) NotifyBatch(ctx context.Context, batch []NotifyArgs) error {
	for _, args := range batch {
		if err := n.Notify(ctx, args); err != nil {
			return err
		}
	}
	return nil
}

func (n *recordingNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.sent))
	for i, s := range n.sent {
		out[i] = s.UserID
	}
	return out
}

type scriptedProvider struct {
	name   string
	answer string
	err    error
	block  bool
	calls  int
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Complete(ctx context.Context, _ string) (string, error) {
	p.calls++
	if p.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return p.answer, p.err
}

type memNotificationRepo struct {
	mu     sync.Mutex
	rows   []models.Notification
	err    error
	filter models.NotificationFilter
}

func (r *memNotificationRepo) CreateNotification(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	n.ID = uint(len(r.rows) + 1)
	r.rows = append(r.rows, *n)
	return nil
}

func (r *memNotificationRepo) CreateNotifications(ctx context.Context, rows []models.Notification) error {
	for i := range rows {
		if err := r.CreateNotification(ctx, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *memNotificationRepo) GetByUserID(_ context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filter = filter
	var out []models.Notification
	for _, n := range r.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), r.err
}

func (r *memNotificationRepo) GetUnreadCount(context.Context, string) (int64, error) {
	return 0, r.err
}

func (r *memNotificationRepo) MarkAsRead(_ context.Context, id uint, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id && r.rows[i].UserID == userID {
			r.rows[i].IsRead = true
			return nil
		}
	}
	return repositories.ErrNotFoundOrNotOwned
}

func (r *memNotificationRepo) MarkAllAsRead(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.rows {
		if r.rows[i].UserID == userID && !r.rows[i].IsRead {
			r.rows[i].IsRead = true
			n++
		}
	}
	return n, nil
}

// vectorEmbedder returns a fixed vector per image name
type vectorEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (e *vectorEmbedder) Name() string { return "fake-embedder" }

func (e *vectorEmbedder) EmbedImage(_ context.Context, filename string, _ []byte) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	v, ok := e.vectors[filename]
	if !ok {
		return nil, errors.New("no vector for " + filename)
	}
	return v, nil
}

type fakeUploader struct {
	err      error
	uploaded int
	mu       sync.Mutex
}

func (u *fakeUploader) Name() string { return "fake-storage" }

func (u *fakeUploader) Upload(context.Context, []byte, string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return "", u.err
	}
	u.uploaded++
	return "https://storage.googleapis.com/test-bucket/items/photo.jpg", nil
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{R: 20, G: 40, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func syncSpawn(f func()) { f() }
