package core

import "context"

// ResourceKind names a collaboration resource a user can be entitled to.
type ResourceKind string

const (
	// KindScreeningChat is the two-party chat of one accepted application.
	KindScreeningChat ResourceKind = "screening_chat"

	// Team scoped kinds; their resource ID is the space ID.
	KindBuilderSpace ResourceKind = "builder_space"
	KindGroupChat    ResourceKind = "group_chat"
	KindLinkBoard    ResourceKind = "link_board"
	KindTaskBoard    ResourceKind = "task_board"

	// Owned items; their resource ID is the item ID.
	KindSharedLink ResourceKind = "shared_link"
	KindTask       ResourceKind = "task"
)

// TwoParty reports whether access is defined by exactly two participants.
func (k ResourceKind) TwoParty() bool {
	return k == KindScreeningChat
}

// TeamScoped reports whether access is defined by space membership.
func (k ResourceKind) TeamScoped() bool {
	switch k {
	case KindBuilderSpace, KindGroupChat, KindLinkBoard, KindTaskBoard:
		return true
	}
	return false
}

// Owned reports whether the resource records a creator.
func (k ResourceKind) Owned() bool {
	return k == KindSharedLink || k == KindTask
}

// Ownership locates an owned item.
type Ownership struct {
	CreatorID int64
	SpaceID   int64
}

// Participants are the two users of a screening chat.
type Participants struct {
	ApplicationID int64
	PostID        int64
	FounderID     int64
	ApplicantID   int64
}

// Has reports whether userID is one of the two participants.
func (p Participants) Has(userID int64) bool {
	return userID != 0 && (userID == p.FounderID || userID == p.ApplicantID)
}

// MembershipResolver answers read-only membership questions from persistence.
// Lookups for missing resources return an error wrapping store.ErrNotFound.
type MembershipResolver interface {
	ResolveTeamMembers(ctx context.Context, kind ResourceKind, resourceID int64) ([]int64, error)
	ResolveUserSpaces(ctx context.Context, userID int64) ([]int64, error)
	FindCreator(ctx context.Context, kind ResourceKind, resourceID int64) (Ownership, error)
	FindTwoPartyParticipants(ctx context.Context, applicationID int64) (Participants, error)
}
