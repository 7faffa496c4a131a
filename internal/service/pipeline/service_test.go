package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarhub/notify-api/pkg/logger"
	"github.com/scholarhub/notify-api/pkg/metrics"

	"github.com/scholarhub/notify-api/internal/model"
	"github.com/scholarhub/notify-api/internal/repository"
)

type fakeInboxRepo struct {
	processed map[uuid.UUID]*string
	marked    map[uuid.UUID]bool
}

func newFakeInboxRepo() *fakeInboxRepo {
	return &fakeInboxRepo{
		processed: make(map[uuid.UUID]*string),
		marked:    make(map[uuid.UUID]bool),
	}
}

func (f *fakeInboxRepo) Create(ctx context.Context, entry *model.InboxEntry) error { return nil }
func (f *fakeInboxRepo) Get(ctx context.Context, id uuid.UUID) (*model.InboxEntry, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeInboxRepo) Unprocessed(ctx context.Context) ([]*model.InboxEntry, error) {
	return nil, nil
}
func (f *fakeInboxRepo) ClaimNextTx(ctx context.Context, tx *sqlx.Tx) (*model.InboxEntry, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeInboxRepo) MarkProcessedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, note *string) error {
	f.processed[id] = note
	f.marked[id] = true
	return nil
}
func (f *fakeInboxRepo) Search(ctx context.Context, term string, page model.Pagination) ([]*model.InboxEntry, error) {
	return nil, nil
}
func (f *fakeInboxRepo) Reopen(ctx context.Context, id uuid.UUID) error { return nil }

type fakeActorRepo struct {
	actors map[string]*model.Actor
}

func (f *fakeActorRepo) Create(ctx context.Context, actor *model.Actor) error { return nil }
func (f *fakeActorRepo) Get(ctx context.Context, id uuid.UUID) (*model.Actor, error) {
	for _, a := range f.actors {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, repository.ErrNotFound
}
func (f *fakeActorRepo) GetByActorURI(ctx context.Context, actorURI string) (*model.Actor, error) {
	if a, ok := f.actors[actorURI]; ok {
		return a, nil
	}
	return nil, repository.ErrNotFound
}
func (f *fakeActorRepo) Update(ctx context.Context, actor *model.Actor) error { return nil }
func (f *fakeActorRepo) Delete(ctx context.Context, id uuid.UUID) error       { return nil }
func (f *fakeActorRepo) List(ctx context.Context) ([]*model.Actor, error)     { return nil, nil }
func (f *fakeActorRepo) AddMember(ctx context.Context, actorID, userID uuid.UUID) error {
	return nil
}
func (f *fakeActorRepo) RemoveMember(ctx context.Context, actorID, userID uuid.UUID) error {
	return nil
}
func (f *fakeActorRepo) ListMembers(ctx context.Context, actorID uuid.UUID) ([]*model.ActorMember, error) {
	return nil, nil
}
func (f *fakeActorRepo) IsMember(ctx context.Context, userID uuid.UUID, actorURI string) (bool, error) {
	return false, nil
}

type fakeRecordRepo struct {
	records map[string]*model.Record
}

func (f *fakeRecordRepo) Get(ctx context.Context, id uuid.UUID) (*model.Record, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, repository.ErrNotFound
}
func (f *fakeRecordRepo) GetByRecID(ctx context.Context, recid string) (*model.Record, error) {
	if r, ok := f.records[recid]; ok {
		return r, nil
	}
	return nil, repository.ErrNotFound
}

type fakeRequestRepo struct {
	requests map[string]*model.EndorsementRequest
	replies  []*model.EndorsementReply
	statuses map[uuid.UUID]model.WorkflowStatus
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{
		requests: make(map[string]*model.EndorsementRequest),
		statuses: make(map[uuid.UUID]model.WorkflowStatus),
	}
}

func (f *fakeRequestRepo) Create(ctx context.Context, req *model.EndorsementRequest) error {
	f.requests[req.NotificationID] = req
	return nil
}
func (f *fakeRequestRepo) Get(ctx context.Context, id uuid.UUID) (*model.EndorsementRequest, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeRequestRepo) GetByNotificationID(ctx context.Context, notificationID string) (*model.EndorsementRequest, error) {
	if r, ok := f.requests[notificationID]; ok {
		return r, nil
	}
	return nil, repository.ErrNotFound
}
func (f *fakeRequestRepo) LatestStatus(ctx context.Context, recordID, actorID uuid.UUID) (model.WorkflowStatus, error) {
	return model.StatusUnknown, nil
}
func (f *fakeRequestRepo) CreateReplyTx(ctx context.Context, tx *sqlx.Tx, reply *model.EndorsementReply) error {
	reply.ID = uuid.New()
	reply.CreatedAt = time.Now()
	f.replies = append(f.replies, reply)
	return nil
}
func (f *fakeRequestRepo) UpdateLatestStatusTx(ctx context.Context, tx *sqlx.Tx, requestID uuid.UUID, status model.WorkflowStatus) error {
	f.statuses[requestID] = status
	return nil
}
func (f *fakeRequestRepo) ListReplies(ctx context.Context, requestID uuid.UUID) ([]*model.EndorsementReply, error) {
	return f.replies, nil
}

type fakeEndorsementRepo struct {
	endorsements []*model.Endorsement
}

func (f *fakeEndorsementRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, e *model.Endorsement) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	f.endorsements = append(f.endorsements, e)
	return nil
}
func (f *fakeEndorsementRepo) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*model.Endorsement, error) {
	return f.endorsements, nil
}
func (f *fakeEndorsementRepo) LatestReviewType(ctx context.Context, recordID, actorID uuid.UUID) (model.ReviewType, error) {
	return "", nil
}

type memberFunc func(userID uuid.UUID, actorURI string) bool

func (fn memberFunc) IsMember(ctx context.Context, userID uuid.UUID, actorURI string) (bool, error) {
	return fn(userID, actorURI), nil
}

type fixture struct {
	svc          *Service
	inbox        *fakeInboxRepo
	actors       *fakeActorRepo
	records      *fakeRecordRepo
	requests     *fakeRequestRepo
	endorsements *fakeEndorsementRepo

	actor  *model.Actor
	record *model.Record
	user   *model.User
}

func newFixture(t *testing.T, member bool) *fixture {
	t.Helper()

	actor := &model.Actor{
		ActorID: "https://reviews.example.org",
		Name:    "Example Review Service",
	}
	actor.ID = uuid.New()

	record := &model.Record{
		RecID: "8x9q1-abc42",
		Title: "A Study of Things",
		URL:   "https://repo.example.org/records/8x9q1-abc42",
	}
	record.ID = uuid.New()
	record.OwnerID = uuid.New()

	user := &model.User{Email: "deliverer@example.org"}
	user.ID = uuid.New()

	f := &fixture{
		inbox:        newFakeInboxRepo(),
		actors:       &fakeActorRepo{actors: map[string]*model.Actor{actor.ActorID: actor}},
		records:      &fakeRecordRepo{records: map[string]*model.Record{record.RecID: record}},
		requests:     newFakeRequestRepo(),
		endorsements: &fakeEndorsementRepo{},
		actor:        actor,
		record:       record,
		user:         user,
	}

	f.svc = NewService(
		f.inbox,
		f.actors,
		f.records,
		f.requests,
		f.endorsements,
		memberFunc(func(userID uuid.UUID, actorURI string) bool { return member }),
		metrics.New("test"),
		logger.NewLogger(nil),
	)
	return f
}

func (f *fixture) entry(t *testing.T, types []string, inReplyTo string) *model.InboxEntry {
	t.Helper()

	payload := map[string]interface{}{
		"id":   "urn:uuid:" + uuid.NewString(),
		"type": types,
		"actor": map[string]interface{}{
			"id":   f.actor.ActorID,
			"name": f.actor.Name,
		},
		"object": map[string]interface{}{
			"id":   "https://reviews.example.org/reviews/77",
			"type": []string{"Document"},
		},
		"context": map[string]interface{}{
			"id": f.record.URL,
		},
	}
	if inReplyTo != "" {
		payload["inReplyTo"] = inReplyTo
	}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	return &model.InboxEntry{
		ID:             uuid.New(),
		NotificationID: payload["id"].(string),
		Raw:            raw,
		RecID:          f.record.RecID,
		UserID:         f.user.ID,
	}
}

func TestProcessAnnounceReviewCreatesEndorsement(t *testing.T) {
	f := newFixture(t, true)
	entry := f.entry(t, []string{"Announce", "coar-notify:ReviewAction"}, "")

	outcome, err := f.svc.Process(context.Background(), nil, entry)
	require.NoError(t, err)

	assert.False(t, outcome.Failed())
	assert.Equal(t, model.StatusAnnounceReview, outcome.Status)
	require.Len(t, f.endorsements.endorsements, 1)

	e := f.endorsements.endorsements[0]
	assert.Equal(t, model.ReviewTypeReview, e.ReviewType)
	assert.Equal(t, f.record.ID, e.RecordID)
	assert.Equal(t, f.actor.Name, e.ActorName)
	assert.Equal(t, "https://reviews.example.org/reviews/77", e.ResultURL)
	require.NotNil(t, e.InboxID)
	assert.Equal(t, entry.ID, *e.InboxID)

	require.True(t, f.inbox.marked[entry.ID])
	assert.Nil(t, f.inbox.processed[entry.ID])
}

func TestProcessNonMemberFailsTerminally(t *testing.T) {
	f := newFixture(t, false)
	entry := f.entry(t, []string{"Announce", "coar-notify:ReviewAction"}, "")

	outcome, err := f.svc.Process(context.Background(), nil, entry)
	require.NoError(t, err)

	require.True(t, outcome.Failed())
	assert.Contains(t, *outcome.Note, "User is not a member")
	assert.Empty(t, f.endorsements.endorsements)

	note := f.inbox.processed[entry.ID]
	require.NotNil(t, note)
	assert.Contains(t, *note, "User is not a member")
}

func TestProcessRejectReplyUpdatesRequest(t *testing.T) {
	f := newFixture(t, true)

	req := &model.EndorsementRequest{
		NotificationID: "urn:uuid:" + uuid.NewString(),
		RecordID:       f.record.ID,
		UserID:         f.record.OwnerID,
		ActorID:        f.actor.ID,
		LatestStatus:   model.StatusRequestEndorsement,
	}
	req.ID = uuid.New()
	require.NoError(t, f.requests.Create(context.Background(), req))

	entry := f.entry(t, []string{"Reject"}, req.NotificationID)

	outcome, err := f.svc.Process(context.Background(), nil, entry)
	require.NoError(t, err)

	assert.False(t, outcome.Failed())
	require.Len(t, f.requests.replies, 1)
	reply := f.requests.replies[0]
	assert.Equal(t, req.ID, reply.RequestID)
	assert.Equal(t, entry.ID, reply.InboxID)
	assert.Equal(t, model.StatusReject, reply.Status)

	assert.Equal(t, model.StatusReject, f.requests.statuses[req.ID])
	assert.Empty(t, f.endorsements.endorsements, "bare reject must not create an endorsement")
}

func TestProcessUnmatchedReplyFailsTerminally(t *testing.T) {
	f := newFixture(t, true)
	entry := f.entry(t, []string{"Reject"}, "urn:uuid:"+uuid.NewString())

	outcome, err := f.svc.Process(context.Background(), nil, entry)
	require.NoError(t, err)

	require.True(t, outcome.Failed())
	assert.Contains(t, *outcome.Note, "Endorsement request not found")
	assert.Empty(t, f.requests.replies)
	assert.Empty(t, f.endorsements.endorsements)
}

func TestProcessUnresolvableRecordFailsTerminally(t *testing.T) {
	f := newFixture(t, true)
	f.records.records = map[string]*model.Record{}
	entry := f.entry(t, []string{"Announce", "coar-notify:ReviewAction"}, "")

	outcome, err := f.svc.Process(context.Background(), nil, entry)
	require.NoError(t, err)

	require.True(t, outcome.Failed())
	assert.Contains(t, *outcome.Note, "Failed to resolve record")
}

func TestProcessUnknownActorFailsTerminally(t *testing.T) {
	f := newFixture(t, true)
	entry := f.entry(t, []string{"Announce", "coar-notify:ReviewAction"}, "")
	f.actors.actors = map[string]*model.Actor{}

	outcome, err := f.svc.Process(context.Background(), nil, entry)
	require.NoError(t, err)

	require.True(t, outcome.Failed())
	assert.Contains(t, *outcome.Note, "Reviewer/Actor not found")
}

func TestProcessUnsupportedTypeFailsTerminally(t *testing.T) {
	f := newFixture(t, true)
	entry := f.entry(t, []string{"Offer", "coar-notify:EndorsementAction"}, "")

	outcome, err := f.svc.Process(context.Background(), nil, entry)
	require.NoError(t, err)

	require.True(t, outcome.Failed())
	assert.Contains(t, *outcome.Note, "Notification type not supported")
	assert.Empty(t, f.endorsements.endorsements)
}

func TestProcessAnnounceEndorsementLinksReply(t *testing.T) {
	f := newFixture(t, true)

	req := &model.EndorsementRequest{
		NotificationID: "urn:uuid:" + uuid.NewString(),
		RecordID:       f.record.ID,
		UserID:         f.record.OwnerID,
		ActorID:        f.actor.ID,
		LatestStatus:   model.StatusTentativeAccept,
	}
	req.ID = uuid.New()
	require.NoError(t, f.requests.Create(context.Background(), req))

	entry := f.entry(t, []string{"Announce", "coar-notify:EndorsementAction"}, req.NotificationID)

	outcome, err := f.svc.Process(context.Background(), nil, entry)
	require.NoError(t, err)

	assert.False(t, outcome.Failed())
	require.Len(t, f.requests.replies, 1)
	require.Len(t, f.endorsements.endorsements, 1)

	e := f.endorsements.endorsements[0]
	assert.Equal(t, model.ReviewTypeEndorsement, e.ReviewType)
	require.NotNil(t, e.ReplyID)
	assert.Equal(t, f.requests.replies[0].ID, *e.ReplyID)
	assert.Equal(t, model.StatusAnnounceEndorsement, f.requests.statuses[req.ID])
}

func TestProcessMalformedPayloadFailsTerminally(t *testing.T) {
	f := newFixture(t, true)
	entry := &model.InboxEntry{
		ID:     uuid.New(),
		Raw:    []byte(fmt.Sprintf(`{"id": %q, "type":`, uuid.NewString())),
		UserID: f.user.ID,
	}

	outcome, err := f.svc.Process(context.Background(), nil, entry)
	require.NoError(t, err)

	require.True(t, outcome.Failed())
	assert.Contains(t, *outcome.Note, "Failed to parse")
}
