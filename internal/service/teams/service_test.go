package teams

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/core"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/core/coretest"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/proto"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/service"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store/sqlite"
)

type env struct {
	svc       *Service
	st        *sqlite.SQLiteStore
	router    *core.Router
	founder   int64
	applicant int64
}

func newEnv(t *testing.T) *env {
	t.Helper()
	req := require.New(t)
	ctx := context.Background()

	st, err := sqlite.New(":memory:")
	req.NoError(err)
	t.Cleanup(func() { st.Close() })

	router := core.NewRouter(st)
	e := &env{svc: NewService(st, router, nil, nil), st: st, router: router}

	founder, err := st.CreateUser(ctx, "founder", "hash")
	req.NoError(err)
	applicant, err := st.CreateUser(ctx, "applicant", "hash")
	req.NoError(err)
	e.founder, e.applicant = founder.ID, applicant.ID
	return e
}

func (e *env) post(t *testing.T) *store.Post {
	t.Helper()
	post, err := e.svc.CreatePost(context.Background(), e.founder, CreatePostInput{Kind: "startup", Title: "Rocket"})
	require.NoError(t, err)
	return post
}

func TestCreatePostValidatesInput(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.CreatePost(ctx, e.founder, CreatePostInput{Kind: "bakery", Title: "Bread"})
	require.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = e.svc.CreatePost(ctx, e.founder, CreatePostInput{Kind: "startup"})
	require.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestApplyRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	post := e.post(t)

	_, err := e.svc.Apply(ctx, e.founder, post.ID, ApplyInput{})
	require.ErrorIs(t, err, ErrOwnPost)

	_, err = e.svc.Apply(ctx, e.applicant, post.ID, ApplyInput{Message: "hi"})
	require.NoError(t, err)

	_, err = e.svc.Apply(ctx, e.applicant, post.ID, ApplyInput{Message: "again"})
	require.ErrorIs(t, err, ErrAlreadyApplied)
	require.ErrorIs(t, err, service.ErrConflict)

	_, err = e.svc.Apply(ctx, e.applicant, 999, ApplyInput{})
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestOnlyOwnerDecidesApplications(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	post := e.post(t)

	app, err := e.svc.Apply(ctx, e.applicant, post.ID, ApplyInput{})
	require.NoError(t, err)

	_, err = e.svc.AcceptApplication(ctx, e.applicant, app.ID)
	require.ErrorIs(t, err, service.ErrForbidden)

	_, err = e.svc.ListApplications(ctx, e.applicant, post.ID)
	require.ErrorIs(t, err, ErrNotPostOwner)

	apps, err := e.svc.ListApplications(ctx, e.founder, post.ID)
	require.NoError(t, err)
	require.Len(t, apps, 1)

	rejected, err := e.svc.RejectApplication(ctx, e.founder, app.ID)
	require.NoError(t, err)
	require.Equal(t, store.ApplicationRejected, rejected.Status)

	_, err = e.svc.AcceptApplication(ctx, e.founder, app.ID)
	require.ErrorIs(t, err, ErrNotPending)
}

func TestAcceptOpensScreeningChatAndNotifiesApplicant(t *testing.T) {
	req := require.New(t)
	e := newEnv(t)
	ctx := context.Background()
	post := e.post(t)

	founderCh, applicantCh := coretest.NewChannel(), coretest.NewChannel()
	e.router.Connect(ctx, e.founder, founderCh)
	e.router.Connect(ctx, e.applicant, applicantCh)

	app, err := e.svc.Apply(ctx, e.applicant, post.ID, ApplyInput{})
	req.NoError(err)

	accepted, err := e.svc.AcceptApplication(ctx, e.founder, app.ID)
	req.NoError(err)
	req.Equal(store.ApplicationAccepted, accepted.Status)

	got := applicantCh.OfType(core.EventScreeningChatCreated)
	req.Len(got, 1)
	payload := got[0].Payload.(proto.ScreeningChatCreated)
	req.Equal(app.ID, payload.ApplicationID)
	req.Equal(e.founder, payload.FounderID)
	req.Empty(founderCh.OfType(core.EventScreeningChatCreated))

	_, err = e.st.FindTwoPartyParticipants(ctx, app.ID)
	req.NoError(err)
}

func TestAddToTeamCreatesSpaceOnceAndAnnounces(t *testing.T) {
	req := require.New(t)
	e := newEnv(t)
	ctx := context.Background()
	post := e.post(t)

	app, err := e.svc.Apply(ctx, e.applicant, post.ID, ApplyInput{})
	req.NoError(err)

	_, err = e.svc.AddToTeam(ctx, e.founder, app.ID)
	req.ErrorIs(err, ErrNotAccepted)

	_, err = e.svc.AcceptApplication(ctx, e.founder, app.ID)
	req.NoError(err)

	applicantCh := coretest.NewChannel()
	e.router.Connect(ctx, e.applicant, applicantCh)

	space, err := e.svc.AddToTeam(ctx, e.founder, app.ID)
	req.NoError(err)
	req.Len(applicantCh.OfType(core.EventBuilderSpaceCreated), 1)

	joined := applicantCh.OfType(core.EventTeamMemberJoined)
	req.Len(joined, 1)
	req.Equal(proto.MemberJoined{SpaceID: space.ID, UserID: e.applicant, Username: "applicant", Role: "member"}, joined[0].Payload)

	// the founder was offline and gets nothing about their own action
	req.Equal(0, e.router.QueuedMessageCount(e.founder))

	again, err := e.svc.AddToTeam(ctx, e.founder, app.ID)
	req.NoError(err)
	req.Equal(space.ID, again.ID)
	req.Len(applicantCh.OfType(core.EventTeamMemberJoined), 1)

	spaces, err := e.svc.MySpaces(ctx, e.applicant)
	req.NoError(err)
	req.Len(spaces, 1)
}
