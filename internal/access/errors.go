package access

import (
	"errors"
	"fmt"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/core"
)

var (
	// ErrAccessDenied matches every *DeniedError.
	ErrAccessDenied = errors.New("access denied")
	// ErrResourceNotFound is returned when the resource being authorized does not exist.
	ErrResourceNotFound = errors.New("resource not found")
)

// Reason classifies a denial.
type Reason string

const (
	ReasonAuthentication Reason = "authentication"
	ReasonParticipant    Reason = "participant"
	ReasonMembership     Reason = "membership"
	ReasonOwnership      Reason = "ownership"
)

// DeniedError is returned when the actor is not entitled to a resource.
// Detail is safe to show to the user.
type DeniedError struct {
	Kind       core.ResourceKind
	ResourceID int64
	Reason     Reason
	Detail     string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("access denied to %s %d: %s", e.Kind, e.ResourceID, e.Detail)
}

// Is makes errors.Is(err, ErrAccessDenied) hold for every denial.
func (e *DeniedError) Is(target error) bool {
	return target == ErrAccessDenied
}

var nouns = map[core.ResourceKind]string{
	core.KindScreeningChat: "screening chat",
	core.KindBuilderSpace:  "builder space",
	core.KindGroupChat:     "group chat",
	core.KindLinkBoard:     "link board",
	core.KindTaskBoard:     "task board",
	core.KindSharedLink:    "link",
	core.KindTask:          "task",
}

func noun(kind core.ResourceKind) string {
	if n, ok := nouns[kind]; ok {
		return n
	}
	return string(kind)
}

func deny(kind core.ResourceKind, id int64, reason Reason) *DeniedError {
	var detail string
	switch reason {
	case ReasonAuthentication:
		detail = "authentication required to access this " + noun(kind)
	case ReasonParticipant:
		detail = "you are not a participant in this " + noun(kind)
	case ReasonMembership:
		if kind.Owned() {
			detail = "you are not a member of the space this " + noun(kind) + " belongs to"
		} else {
			detail = "you are not a member of this " + noun(kind)
		}
	case ReasonOwnership:
		detail = "only the creator can delete this " + noun(kind)
	}
	return &DeniedError{Kind: kind, ResourceID: id, Reason: reason, Detail: detail}
}

func notFound(kind core.ResourceKind, id int64) error {
	return fmt.Errorf("%s %d: %w", noun(kind), id, ErrResourceNotFound)
}
