package simplemedia_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-media/pkg/simplemedia"
	"github.com/tendant/simple-media/pkg/simplemedia/repo/memory"
	"github.com/tendant/simple-media/pkg/simplemedia/transform"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, store *fakeStore, opts ...simplemedia.Option) (simplemedia.Service, *memory.Repository) {
	t.Helper()
	repo := memory.New()
	opts = append([]simplemedia.Option{
		simplemedia.WithRepository(repo),
		simplemedia.WithMediaStore(store),
		simplemedia.WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	svc, err := simplemedia.New(opts...)
	require.NoError(t, err)
	return svc, repo
}

func fields(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := simplemedia.New(simplemedia.WithMediaStore(newFakeStore()))
	assert.Error(t, err)

	_, err = simplemedia.New(simplemedia.WithRepository(memory.New()))
	assert.Error(t, err)
}

// Event created without a poster, given poster R1, replaced by R2, then deleted.
func TestService_EventPosterLifecycle(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	created, err := svc.Create(ctx, simplemedia.CreateRequest{
		Kind:   simplemedia.KindEvent,
		Fields: fields(t, map[string]string{"title": "Spring Festival", "description": "Opening night", "category": "festival"}),
		Actor:  "admin-1",
	})
	require.NoError(t, err)
	event := created.Entity.(*simplemedia.Event)
	assert.Nil(t, event.Poster)
	assert.Equal(t, "Festival", event.Type)
	assert.Equal(t, simplemedia.StatusDraft, event.Status)
	assert.Equal(t, "admin-1", event.CreatedBy)
	assert.Equal(t, fixedNow, event.CreatedAt)

	first, err := svc.Update(ctx, simplemedia.UpdateRequest{
		Kind:    simplemedia.KindEvent,
		ID:      event.ID,
		Uploads: simplemedia.Uploads{"poster": {payload("a.jpg", "B1")}},
		Actor:   "admin-2",
	})
	require.NoError(t, err)
	r1 := first.Entity.(*simplemedia.Event).Poster
	require.NotNil(t, r1)
	assert.Equal(t, "programs/festival/001_a.jpg", r1.ReferenceID)

	stored, err := svc.Get(ctx, simplemedia.KindEvent, event.ID)
	require.NoError(t, err)
	assert.Equal(t, r1, stored.(*simplemedia.Event).Poster)
	assert.Equal(t, "admin-2", stored.Base().UpdatedBy)
	assert.Equal(t, "admin-1", stored.Base().CreatedBy)

	second, err := svc.Update(ctx, simplemedia.UpdateRequest{
		Kind:    simplemedia.KindEvent,
		ID:      event.ID,
		Uploads: simplemedia.Uploads{"poster": {payload("b.jpg", "B2")}},
	})
	require.NoError(t, err)
	r2 := second.Entity.(*simplemedia.Event).Poster
	require.NotNil(t, r2)
	assert.NotEqual(t, r1.ReferenceID, r2.ReferenceID)
	assert.Equal(t, []string{r1.ReferenceID}, store.deleted())

	deleted, err := svc.Delete(ctx, simplemedia.KindEvent, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted.Cascade.Attempted)
	assert.Equal(t, []string{r1.ReferenceID, r2.ReferenceID}, store.deleted())

	_, err = svc.Get(ctx, simplemedia.KindEvent, event.ID)
	assert.ErrorIs(t, err, simplemedia.ErrNotFound)
}

func TestService_DeleteProceedsWhenMediaDeletionFails(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	created, err := svc.Create(ctx, simplemedia.CreateRequest{
		Kind:    simplemedia.KindTeam,
		Fields:  fields(t, map[string]interface{}{"name": "Ana", "role": "Director", "department": "management"}),
		Uploads: simplemedia.Uploads{"image": {payload("ana.jpg", "x")}},
	})
	require.NoError(t, err)
	member := created.Entity.(*simplemedia.TeamMember)
	require.NotNil(t, member.Image)
	store.failDeletes[member.Image.ReferenceID] = true

	result, err := svc.Delete(ctx, simplemedia.KindTeam, member.ID)
	require.NoError(t, err)

	var cascadeErr *simplemedia.CascadeDeletionError
	require.ErrorAs(t, result.Cascade.Err(), &cascadeErr)
	assert.NotEmpty(t, result.Diagnostics)

	_, err = svc.Get(ctx, simplemedia.KindTeam, member.ID)
	assert.ErrorIs(t, err, simplemedia.ErrNotFound)
}

func TestService_ValidationErrorUploadsNothing(t *testing.T) {
	store := newFakeStore()
	svc, repo := newTestService(t, store)

	_, err := svc.Create(context.Background(), simplemedia.CreateRequest{
		Kind:    simplemedia.KindEvent,
		Fields:  fields(t, map[string]string{"title": "x", "description": "y", "category": "rave"}),
		Uploads: simplemedia.Uploads{"poster": {payload("p.jpg", "x")}},
	})
	var verr *simplemedia.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "category", verr.Fields[0].Field)
	assert.Equal(t, 0, store.uploadCount())

	docs, err := repo.List(context.Background(), simplemedia.ListFilter{Kind: simplemedia.KindEvent})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestService_MalformedFields(t *testing.T) {
	svc, _ := newTestService(t, newFakeStore())
	_, err := svc.Create(context.Background(), simplemedia.CreateRequest{
		Kind:   simplemedia.KindEvent,
		Fields: json.RawMessage(`{"title": 5`),
	})
	var verr *simplemedia.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestService_UpdatePatchProtectsMediaAndIdentity(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	created, err := svc.Create(ctx, simplemedia.CreateRequest{
		Kind:    simplemedia.KindProgram,
		Fields:  fields(t, map[string]string{"title": "Ballet", "description": "Classical ballet", "category": "dance"}),
		Uploads: simplemedia.Uploads{"image": {payload("ballet.jpg", "x")}},
	})
	require.NoError(t, err)
	program := created.Entity.(*simplemedia.EducationProgram)
	assert.Equal(t, "Ballet", program.Heading)

	patch := json.RawMessage(`{
		"id": "00000000-0000-0000-0000-000000000000",
		"created_by": "intruder",
		"status": "published",
		"description": "Classical and modern ballet",
		"image": {"reference_id": "forged-image"},
		"gallery": [{"reference_id": "forged"}]
	}`)
	updated, err := svc.Update(ctx, simplemedia.UpdateRequest{Kind: simplemedia.KindProgram, ID: program.ID, Fields: patch})
	require.NoError(t, err)

	got := updated.Entity.(*simplemedia.EducationProgram)
	assert.Equal(t, program.ID, got.ID)
	assert.Empty(t, got.CreatedBy)
	assert.Equal(t, simplemedia.StatusPublished, got.Status)
	assert.Equal(t, "Classical and modern ballet", got.Description)
	assert.Equal(t, "Ballet", got.Title)
	require.NotNil(t, got.Image)
	assert.Equal(t, "education/dance/001_ballet.jpg", got.Image.ReferenceID)
	assert.Empty(t, got.Gallery)
}

func TestService_UploadFailureIsPartialSuccess(t *testing.T) {
	store := newFakeStore()
	store.failUploads["clip.mp4"] = true
	svc, _ := newTestService(t, store)

	result, err := svc.Create(context.Background(), simplemedia.CreateRequest{
		Kind:   simplemedia.KindEvent,
		Fields: fields(t, map[string]string{"title": "Jazz Night", "description": "Live jazz", "category": "concert"}),
		Uploads: simplemedia.Uploads{
			"poster": {payload("p.jpg", "x")},
			"video":  {payload("clip.mp4", "v")},
		},
	})
	require.NoError(t, err)
	event := result.Entity.(*simplemedia.Event)
	assert.NotNil(t, event.Poster)
	assert.Nil(t, event.Video)
	require.Len(t, result.UploadErrors, 1)
	assert.Equal(t, "video", result.UploadErrors[0].Slot)
	assert.NotEmpty(t, result.Diagnostics)
}

var errDatabaseDown = errors.New("database is down")

type failingRepo struct {
	*memory.Repository
	failCreate bool
	failUpdate bool
}

func (f *failingRepo) Create(ctx context.Context, doc *simplemedia.Document) error {
	if f.failCreate {
		return errDatabaseDown
	}
	return f.Repository.Create(ctx, doc)
}

func (f *failingRepo) Update(ctx context.Context, doc *simplemedia.Document) error {
	if f.failUpdate {
		return errDatabaseDown
	}
	return f.Repository.Update(ctx, doc)
}

func TestService_CreateDiscardsUploadsWhenWriteFails(t *testing.T) {
	store := newFakeStore()
	svc, err := simplemedia.New(
		simplemedia.WithRepository(&failingRepo{Repository: memory.New(), failCreate: true}),
		simplemedia.WithMediaStore(store),
	)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), simplemedia.CreateRequest{
		Kind:    simplemedia.KindEvent,
		Fields:  fields(t, map[string]string{"title": "t", "description": "d", "category": "festival"}),
		Uploads: simplemedia.Uploads{"poster": {payload("p.jpg", "x")}, "gallery": {payload("g.jpg", "y")}},
	})
	var entityErr *simplemedia.EntityError
	require.ErrorAs(t, err, &entityErr)
	assert.Equal(t, "create", entityErr.Op)
	assert.Equal(t, 0, store.count(), "uploads of a failed create are discarded")
}

func TestService_FailedUpdateKeepsPreviousMedia(t *testing.T) {
	store := newFakeStore()
	repo := &failingRepo{Repository: memory.New()}
	svc, err := simplemedia.New(
		simplemedia.WithRepository(repo),
		simplemedia.WithMediaStore(store),
	)
	require.NoError(t, err)
	ctx := context.Background()

	created, err := svc.Create(ctx, simplemedia.CreateRequest{
		Kind:    simplemedia.KindEvent,
		Fields:  fields(t, map[string]string{"title": "Gala", "description": "Season opening", "category": "festival"}),
		Uploads: simplemedia.Uploads{"poster": {payload("a.jpg", "A")}},
	})
	require.NoError(t, err)
	event := created.Entity.(*simplemedia.Event)
	original := event.Poster.ReferenceID

	repo.failUpdate = true
	_, err = svc.Update(ctx, simplemedia.UpdateRequest{
		Kind:    simplemedia.KindEvent,
		ID:      event.ID,
		Uploads: simplemedia.Uploads{"poster": {payload("b.jpg", "B")}},
	})
	var entityErr *simplemedia.EntityError
	require.ErrorAs(t, err, &entityErr)
	assert.Equal(t, "update", entityErr.Op)
	assert.ErrorIs(t, err, errDatabaseDown)

	stored, err := svc.Get(ctx, simplemedia.KindEvent, event.ID)
	require.NoError(t, err)
	assert.Equal(t, original, stored.(*simplemedia.Event).Poster.ReferenceID)
	assert.True(t, store.has(original), "the stored poster must still exist")
	assert.Equal(t, 1, store.count(), "the new upload is discarded")

	repo.failUpdate = false
	_, err = svc.Update(ctx, simplemedia.UpdateRequest{
		Kind:    simplemedia.KindEvent,
		ID:      event.ID,
		Uploads: simplemedia.Uploads{"poster": {payload("c.jpg", "C")}},
	})
	require.NoError(t, err)
	assert.False(t, store.has(original), "retired once the update is stored")
	assert.Equal(t, 1, store.count())
}

func TestService_Singletons(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	got, err := svc.GetSingleton(ctx, simplemedia.KindHistory)
	require.NoError(t, err)
	assert.Nil(t, got)

	first, err := svc.SaveSingleton(ctx, simplemedia.SingletonRequest{
		Kind:    simplemedia.KindHistory,
		Fields:  fields(t, map[string]interface{}{"title": "Our Story", "description": "Since 1998", "milestones": []map[string]interface{}{{"year": 2005, "title": "New hall"}, {"year": 1998, "title": "Founded"}}}),
		Uploads: simplemedia.Uploads{"gallery": {payload("1.jpg", "a")}},
	})
	require.NoError(t, err)
	assert.True(t, first.Created)
	history := first.Entity.(*simplemedia.HistoryPage)
	assert.Equal(t, "Our Story", history.Heading)
	assert.Equal(t, 1998, history.Milestones[0].Year)

	second, err := svc.SaveSingleton(ctx, simplemedia.SingletonRequest{
		Kind:    simplemedia.KindHistory,
		Fields:  fields(t, map[string]string{"heading": "Thirty years of art"}),
		Uploads: simplemedia.Uploads{"gallery": {payload("2.jpg", "b")}},
	})
	require.NoError(t, err)
	assert.False(t, second.Created)
	updated := second.Entity.(*simplemedia.HistoryPage)
	assert.Equal(t, history.ID, updated.ID)
	assert.Equal(t, "Thirty years of art", updated.Heading)
	assert.Len(t, updated.Gallery, 2)

	got, err = svc.GetSingleton(ctx, simplemedia.KindHistory)
	require.NoError(t, err)
	assert.Equal(t, history.ID, got.Base().ID)
}

func TestService_KindChecks(t *testing.T) {
	svc, _ := newTestService(t, newFakeStore())
	ctx := context.Background()

	_, err := svc.Create(ctx, simplemedia.CreateRequest{Kind: simplemedia.KindFounder})
	assert.ErrorIs(t, err, simplemedia.ErrSingletonKind)

	_, err = svc.Delete(ctx, simplemedia.KindHistory, uuid.New())
	assert.ErrorIs(t, err, simplemedia.ErrSingletonKind)

	_, err = svc.GetSingleton(ctx, simplemedia.KindEvent)
	assert.ErrorIs(t, err, simplemedia.ErrNotSingletonKind)

	_, err = svc.Create(ctx, simplemedia.CreateRequest{Kind: "newsletter"})
	assert.ErrorIs(t, err, simplemedia.ErrInvalidKind)

	_, err = svc.Update(ctx, simplemedia.UpdateRequest{Kind: simplemedia.KindEvent, ID: uuid.New()})
	assert.ErrorIs(t, err, simplemedia.ErrNotFound)

	_, err = svc.Delete(ctx, simplemedia.KindEvent, uuid.New())
	assert.ErrorIs(t, err, simplemedia.ErrNotFound)
}

func TestService_ListAndSearch(t *testing.T) {
	svc, _ := newTestService(t, newFakeStore())
	ctx := context.Background()

	for _, m := range []map[string]interface{}{
		{"name": "Ana", "role": "Director", "department": "management", "status": "published"},
		{"name": "Ben", "role": "Piano teacher", "department": "teaching", "status": "published"},
		{"name": "Cleo", "role": "Stage manager", "department": "production"},
	} {
		_, err := svc.Create(ctx, simplemedia.CreateRequest{Kind: simplemedia.KindTeam, Fields: fields(t, m)})
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, simplemedia.ListRequest{Kind: simplemedia.KindTeam})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	published := simplemedia.StatusPublished
	pub, err := svc.List(ctx, simplemedia.ListRequest{Kind: simplemedia.KindTeam, Status: &published})
	require.NoError(t, err)
	assert.Len(t, pub, 2)

	found, err := svc.Search(ctx, simplemedia.KindTeam, "piano", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Ben", found[0].(*simplemedia.TeamMember).Name)
}

func TestService_BuildURL(t *testing.T) {
	svc, _ := newTestService(t, newFakeStore())
	assert.Equal(t,
		"https://media.example.com/history/bg.jpg?tr:w-300,h-200,c-maintain_ratio",
		svc.BuildURL("/history/bg.jpg", transform.Options{Width: 300, Height: 200, Crop: "maintain_ratio"}),
	)
}

type recordingSink struct {
	simplemedia.NoopEventSink
	events []string
}

func (r *recordingSink) EntityCreated(ctx context.Context, e simplemedia.Entity) error {
	r.events = append(r.events, "created:"+string(e.Kind()))
	return nil
}

func (r *recordingSink) EntityDeleted(ctx context.Context, kind simplemedia.Kind, id uuid.UUID) error {
	r.events = append(r.events, "deleted:"+string(kind))
	return errors.New("sink unavailable")
}

func TestService_EventSink(t *testing.T) {
	sink := &recordingSink{}
	svc, _ := newTestService(t, newFakeStore(), simplemedia.WithEventSink(sink))
	ctx := context.Background()

	created, err := svc.Create(ctx, simplemedia.CreateRequest{
		Kind:   simplemedia.KindTeam,
		Fields: fields(t, map[string]string{"name": "Ana", "role": "Director", "department": "management"}),
	})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, simplemedia.KindTeam, created.Entity.Base().ID)
	require.NoError(t, err, "sink failures do not fail the mutation")
	assert.Equal(t, []string{"created:team", "deleted:team"}, sink.events)
}
