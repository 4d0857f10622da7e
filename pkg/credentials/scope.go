package credentials

import "github.com/Nephrolytics-ai/audio-summarizer/pkg/model"

const (
	guestKey      = "credential:guest"
	userKeyPrefix = "credential:user:"
)

type scopeKind int

const (
	scopeGuest scopeKind = iota
	scopeUser
)

// Scope is the persisted partition a credential belongs to: the single guest
// slot or one slot per signed-in identity.
type Scope struct {
	kind   scopeKind
	userID string
}

func GuestScope() Scope {
	return Scope{kind: scopeGuest}
}

func UserScope(id string) Scope {
	return Scope{kind: scopeUser, userID: id}
}

// ScopeFor selects the user scope when an identity is known and the guest scope otherwise.
func ScopeFor(identity *model.Identity) Scope {
	if identity == nil || identity.ID == "" {
		return GuestScope()
	}
	return UserScope(identity.ID)
}

func (s Scope) IsGuest() bool {
	return s.kind == scopeGuest
}

func (s Scope) UserID() string {
	return s.userID
}

func (s Scope) Key() string {
	if s.kind == scopeUser {
		return userKeyPrefix + s.userID
	}
	return guestKey
}

func (s Scope) String() string {
	if s.kind == scopeUser {
		return "user"
	}
	return "guest"
}
