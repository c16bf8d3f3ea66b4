package services

import "github.com/HuskeLuv/SFC-sub003/internal/models"

// Identity is the authenticated caller as carried by the session token.
type Identity struct {
	ID    string
	Email string
	Role  models.Role
}

// ActingClient describes the client a consultant is currently acting as.
type ActingClient struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ActingContext is passed to every data-access call. TargetUserID is the
// tenancy key for user-owned rows; RequestorID is who is making the request.
// The two differ only while a consultant acts for a linked client, in which
// case Justification names the link that allowed it.
type ActingContext struct {
	RequestorID   string        `json:"requestor_id"`
	TargetUserID  string        `json:"target_user_id"`
	ActingClient  *ActingClient `json:"acting_client"`
	Justification string        `json:"justification"`
}

// JustificationSelf marks a context where the caller acts on their own data.
const JustificationSelf = "self"

// SelfContext returns a context in which identity acts on its own data.
func SelfContext(identityID string) ActingContext {
	return ActingContext{
		RequestorID:   identityID,
		TargetUserID:  identityID,
		Justification: JustificationSelf,
	}
}

// IsActing reports whether a consultant is acting on behalf of a client.
func (a ActingContext) IsActing() bool {
	return a.ActingClient != nil
}
