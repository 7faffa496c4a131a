package inbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/scholarhub/notify-api/pkg/errors"
	"github.com/scholarhub/notify-api/pkg/logger"
	"github.com/scholarhub/notify-api/pkg/metrics"

	"github.com/scholarhub/notify-api/internal/model"
	"github.com/scholarhub/notify-api/internal/repository"
)

type fakeInboxRepo struct {
	entries    map[uuid.UUID]*model.InboxEntry
	seenIDs    map[string]bool
	searchTerm string
	searchPage model.Pagination
	reopened   []uuid.UUID
}

func newFakeInboxRepo() *fakeInboxRepo {
	return &fakeInboxRepo{
		entries: make(map[uuid.UUID]*model.InboxEntry),
		seenIDs: make(map[string]bool),
	}
}

func (f *fakeInboxRepo) Create(ctx context.Context, entry *model.InboxEntry) error {
	if f.seenIDs[entry.NotificationID] {
		return repository.ErrDuplicateNotification
	}
	entry.ID = uuid.New()
	f.seenIDs[entry.NotificationID] = true
	f.entries[entry.ID] = entry
	return nil
}

func (f *fakeInboxRepo) Get(ctx context.Context, id uuid.UUID) (*model.InboxEntry, error) {
	if e, ok := f.entries[id]; ok {
		return e, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeInboxRepo) Unprocessed(ctx context.Context) ([]*model.InboxEntry, error) {
	return nil, nil
}

func (f *fakeInboxRepo) ClaimNextTx(ctx context.Context, tx *sqlx.Tx) (*model.InboxEntry, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeInboxRepo) MarkProcessedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, note *string) error {
	return nil
}

func (f *fakeInboxRepo) Search(ctx context.Context, term string, page model.Pagination) ([]*model.InboxEntry, error) {
	f.searchTerm = term
	f.searchPage = page
	return nil, nil
}

func (f *fakeInboxRepo) Reopen(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.entries[id]; !ok {
		return repository.ErrNotFound
	}
	f.reopened = append(f.reopened, id)
	return nil
}

type fakeRecordRepo struct {
	records map[string]*model.Record
}

func (f *fakeRecordRepo) Get(ctx context.Context, id uuid.UUID) (*model.Record, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeRecordRepo) GetByRecID(ctx context.Context, recid string) (*model.Record, error) {
	if r, ok := f.records[recid]; ok {
		return r, nil
	}
	return nil, repository.ErrNotFound
}

type memberFunc func(userID uuid.UUID, actorURI string) bool

func (fn memberFunc) IsMember(ctx context.Context, userID uuid.UUID, actorURI string) (bool, error) {
	return fn(userID, actorURI), nil
}

const inboxBase = "https://repo.example.org/api/v1/inbox"

func newTestService(repo *fakeInboxRepo, records *fakeRecordRepo, member bool) *Service {
	return NewService(
		repo,
		records,
		memberFunc(func(uuid.UUID, string) bool { return member }),
		inboxBase,
		metrics.New("test"),
		logger.NewLogger(nil),
	)
}

func testUser() *model.User {
	u := &model.User{Email: "member@example.org"}
	u.ID = uuid.New()
	return u
}

func announcePayload(notificationID, recordURL string) json.RawMessage {
	payload := map[string]interface{}{
		"id":   notificationID,
		"type": []string{"Announce", "coar-notify:ReviewAction"},
		"actor": map[string]interface{}{
			"id": "https://reviews.example.org",
		},
		"object": map[string]interface{}{
			"id": "https://reviews.example.org/reviews/1",
		},
		"context": map[string]interface{}{
			"id": recordURL,
		},
	}
	raw, _ := json.Marshal(payload)
	return raw
}

func TestReceiveAcceptsValidNotification(t *testing.T) {
	record := &model.Record{RecID: "8x9q1-abc42"}
	record.ID = uuid.New()
	repo := newFakeInboxRepo()
	records := &fakeRecordRepo{records: map[string]*model.Record{record.RecID: record}}
	svc := newTestService(repo, records, true)

	raw := announcePayload("urn:uuid:"+uuid.NewString(), "https://repo.example.org/records/8x9q1-abc42")

	receipt, err := svc.Receive(context.Background(), raw, testUser())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, receipt.EntryID)
	assert.Equal(t, inboxBase+"/"+receipt.EntryID.String(), receipt.Location)

	stored := repo.entries[receipt.EntryID]
	require.NotNil(t, stored)
	assert.Equal(t, record.RecID, stored.RecID)
	assert.JSONEq(t, string(raw), string(stored.Raw))
}

func TestReceiveRejectsDuplicateNotificationID(t *testing.T) {
	record := &model.Record{RecID: "8x9q1-abc42"}
	record.ID = uuid.New()
	repo := newFakeInboxRepo()
	records := &fakeRecordRepo{records: map[string]*model.Record{record.RecID: record}}
	svc := newTestService(repo, records, true)

	raw := announcePayload("urn:uuid:"+uuid.NewString(), "https://repo.example.org/records/8x9q1-abc42")

	_, err := svc.Receive(context.Background(), raw, testUser())
	require.NoError(t, err)

	_, err = svc.Receive(context.Background(), raw, testUser())
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestReceiveRejectsMalformedJSON(t *testing.T) {
	svc := newTestService(newFakeInboxRepo(), &fakeRecordRepo{}, true)

	_, err := svc.Receive(context.Background(), []byte(`{"id": "x", `), testUser())
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

func TestReceiveRejectsMissingRequiredFields(t *testing.T) {
	svc := newTestService(newFakeInboxRepo(), &fakeRecordRepo{}, true)

	// Decodes fine but has no id or type.
	_, err := svc.Receive(context.Background(), []byte(`{"actor": {"id": "https://a.example.org"}}`), testUser())
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

func TestReceiveRejectsUnknownRecord(t *testing.T) {
	svc := newTestService(newFakeInboxRepo(), &fakeRecordRepo{records: map[string]*model.Record{}}, true)

	raw := announcePayload("urn:uuid:"+uuid.NewString(), "https://repo.example.org/records/nope-1")

	_, err := svc.Receive(context.Background(), raw, testUser())
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrUnprocessable, appErr.Code)
}

func TestReceiveRejectsNonMember(t *testing.T) {
	record := &model.Record{RecID: "8x9q1-abc42"}
	record.ID = uuid.New()
	records := &fakeRecordRepo{records: map[string]*model.Record{record.RecID: record}}
	svc := newTestService(newFakeInboxRepo(), records, false)

	raw := announcePayload("urn:uuid:"+uuid.NewString(), "https://repo.example.org/records/8x9q1-abc42")

	_, err := svc.Receive(context.Background(), raw, testUser())
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)
}

func TestReceiveRejectsUnsupportedType(t *testing.T) {
	record := &model.Record{RecID: "8x9q1-abc42"}
	record.ID = uuid.New()
	records := &fakeRecordRepo{records: map[string]*model.Record{record.RecID: record}}
	svc := newTestService(newFakeInboxRepo(), records, true)

	payload := map[string]interface{}{
		"id":    "urn:uuid:" + uuid.NewString(),
		"type":  []string{"Create"},
		"actor": map[string]interface{}{"id": "https://reviews.example.org"},
		"context": map[string]interface{}{
			"id": "https://repo.example.org/records/8x9q1-abc42",
		},
	}
	raw, _ := json.Marshal(payload)

	_, err := svc.Receive(context.Background(), raw, testUser())
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrUnprocessable, appErr.Code)
}

func TestSearchClampsPagination(t *testing.T) {
	repo := newFakeInboxRepo()
	svc := newTestService(repo, &fakeRecordRepo{}, true)

	_, err := svc.Search(context.Background(), "abc", model.Pagination{Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.searchPage.Page)
	assert.Equal(t, 25, repo.searchPage.PageSize)
	assert.Equal(t, "abc", repo.searchTerm)

	_, err = svc.Search(context.Background(), "abc", model.Pagination{Page: 3, PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, 3, repo.searchPage.Page)
	assert.Equal(t, 50, repo.searchPage.PageSize)
}

func TestReopen(t *testing.T) {
	repo := newFakeInboxRepo()
	entry := &model.InboxEntry{NotificationID: "urn:uuid:" + uuid.NewString()}
	require.NoError(t, repo.Create(context.Background(), entry))

	svc := newTestService(repo, &fakeRecordRepo{}, true)

	require.NoError(t, svc.Reopen(context.Background(), entry.ID))
	assert.Equal(t, []uuid.UUID{entry.ID}, repo.reopened)

	err := svc.Reopen(context.Background(), uuid.New())
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}
