package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/core"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store/sqlite"
)

type fixture struct {
	st        *sqlite.SQLiteStore
	gate      *Gate
	founder   int64
	applicant int64
	outsider  int64
	post      *store.Post
	accepted  int64
	pending   int64
	space     *store.Space
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	req := require.New(t)
	ctx := context.Background()

	st, err := sqlite.New(":memory:")
	req.NoError(err)
	t.Cleanup(func() { st.Close() })

	f := &fixture{st: st, gate: NewGate(st, nil)}
	for _, u := range []struct {
		name string
		dst  *int64
	}{{"founder", &f.founder}, {"applicant", &f.applicant}, {"outsider", &f.outsider}} {
		user, err := st.CreateUser(ctx, u.name, "hash")
		req.NoError(err)
		*u.dst = user.ID
	}

	f.post = &store.Post{OwnerID: f.founder, Kind: store.PostKindStartup, Title: "Rocket"}
	req.NoError(st.CreatePost(ctx, f.post))

	app := &store.Application{PostID: f.post.ID, ApplicantID: f.applicant}
	req.NoError(st.CreateApplication(ctx, app))
	req.NoError(st.UpdateApplicationStatus(ctx, app.ID, store.ApplicationAccepted))
	f.accepted = app.ID

	pending := &store.Application{PostID: f.post.ID, ApplicantID: f.outsider}
	req.NoError(st.CreateApplication(ctx, pending))
	f.pending = pending.ID

	f.space, _, err = st.EnsureSpace(ctx, f.post.ID, f.founder, f.post.Title)
	req.NoError(err)
	return f
}

func requireDenied(t *testing.T, err error, reason Reason) *DeniedError {
	t.Helper()
	require.ErrorIs(t, err, ErrAccessDenied)
	var denied *DeniedError
	require.True(t, errors.As(err, &denied))
	require.Equal(t, reason, denied.Reason)
	return denied
}

func TestScreeningChatAdmitsOnlyParticipants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.gate.Authorize(ctx, f.founder, core.KindScreeningChat, f.accepted))
	require.NoError(t, f.gate.Authorize(ctx, f.applicant, core.KindScreeningChat, f.accepted))

	denied := requireDenied(t, f.gate.Authorize(ctx, f.outsider, core.KindScreeningChat, f.accepted), ReasonParticipant)
	require.Equal(t, "you are not a participant in this screening chat", denied.Detail)
}

func TestAuthorizeParticipantReturnsParticipants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.gate.AuthorizeParticipant(ctx, f.applicant, f.accepted)
	require.NoError(t, err)
	require.Equal(t, f.founder, p.FounderID)
	require.Equal(t, f.applicant, p.ApplicantID)

	p, err = f.gate.AuthorizeParticipant(ctx, f.outsider, f.accepted)
	requireDenied(t, err, ReasonParticipant)
	require.Zero(t, p)
}

func TestScreeningChatOfUnacceptedApplicationIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.gate.Authorize(ctx, f.founder, core.KindScreeningChat, f.pending)
	require.ErrorIs(t, err, ErrResourceNotFound)
	require.NotErrorIs(t, err, ErrAccessDenied)

	require.ErrorIs(t, f.gate.Authorize(ctx, f.founder, core.KindScreeningChat, 999), ErrResourceNotFound)
}

func TestTeamScopedKindsRequireMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	kinds := []core.ResourceKind{core.KindBuilderSpace, core.KindGroupChat, core.KindLinkBoard, core.KindTaskBoard}
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			require.NoError(t, f.gate.Authorize(ctx, f.founder, kind, f.space.ID))
			requireDenied(t, f.gate.Authorize(ctx, f.applicant, kind, f.space.ID), ReasonMembership)
			require.ErrorIs(t, f.gate.Authorize(ctx, f.founder, kind, 999), ErrResourceNotFound)
		})
	}

	denied := requireDenied(t, f.gate.Authorize(ctx, f.outsider, core.KindGroupChat, f.space.ID), ReasonMembership)
	require.Equal(t, "you are not a member of this group chat", denied.Detail)
}

func TestMembershipChangesApplyImmediately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	requireDenied(t, f.gate.Authorize(ctx, f.applicant, core.KindTaskBoard, f.space.ID), ReasonMembership)

	_, err := f.st.AddSpaceMember(ctx, f.space.ID, f.applicant, store.RoleMember)
	require.NoError(t, err)

	require.NoError(t, f.gate.Authorize(ctx, f.applicant, core.KindTaskBoard, f.space.ID))
}

func TestOwnedItemsRequireMembershipThenOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := require.New(t)

	_, err := f.st.AddSpaceMember(ctx, f.space.ID, f.applicant, store.RoleMember)
	req.NoError(err)

	link := &store.Link{SpaceID: f.space.ID, CreatorID: f.applicant, Title: "Figma", URL: "https://figma.com"}
	req.NoError(f.st.CreateLink(ctx, link))
	task := &store.Task{SpaceID: f.space.ID, CreatorID: f.founder, Title: "Pitch deck"}
	req.NoError(f.st.CreateTask(ctx, task))

	// any member may read or update
	req.NoError(f.gate.Authorize(ctx, f.founder, core.KindSharedLink, link.ID))
	req.NoError(f.gate.Authorize(ctx, f.applicant, core.KindTask, task.ID))

	// only the creator may delete
	req.NoError(f.gate.AuthorizeOwner(ctx, f.applicant, core.KindSharedLink, link.ID))
	denied := requireDenied(t, f.gate.AuthorizeOwner(ctx, f.founder, core.KindSharedLink, link.ID), ReasonOwnership)
	req.Equal("only the creator can delete this link", denied.Detail)
	requireDenied(t, f.gate.AuthorizeOwner(ctx, f.applicant, core.KindTask, task.ID), ReasonOwnership)

	// non-members are denied for membership before ownership is considered
	denied = requireDenied(t, f.gate.AuthorizeOwner(ctx, f.outsider, core.KindSharedLink, link.ID), ReasonMembership)
	req.Equal("you are not a member of the space this link belongs to", denied.Detail)

	req.ErrorIs(f.gate.AuthorizeOwner(ctx, f.founder, core.KindTask, 999), ErrResourceNotFound)
	req.ErrorIs(f.gate.AuthorizeOwner(ctx, f.founder, core.KindGroupChat, f.space.ID), core.ErrUnsupportedKind)
}

func TestUnauthenticatedActorIsDenied(t *testing.T) {
	f := newFixture(t)
	denied := requireDenied(t, f.gate.Authorize(context.Background(), 0, core.KindBuilderSpace, f.space.ID), ReasonAuthentication)
	require.Equal(t, "authentication required to access this builder space", denied.Detail)
}
