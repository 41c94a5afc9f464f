package model

// CartIdentity identifies the owner of a cart: either an authenticated user
// or an anonymous guest session. Exactly one side is ever set; the zero value
// means the caller is anonymous and has not presented a session token yet.
type CartIdentity struct {
	userID uint
	token  string
}

// UserIdentity returns the identity of an authenticated user
func UserIdentity(userID uint) CartIdentity {
	return CartIdentity{userID: userID}
}

// GuestIdentity returns the identity of a guest session
func GuestIdentity(sessionToken string) CartIdentity {
	return CartIdentity{token: sessionToken}
}

// IsZero reports whether no identity has been resolved at all
func (i CartIdentity) IsZero() bool {
	return i.userID == 0 && i.token == ""
}

// IsGuest reports whether the identity belongs to a guest session
func (i CartIdentity) IsGuest() bool {
	return i.userID == 0 && i.token != ""
}

// UserID returns the user id when the identity is an authenticated user
func (i CartIdentity) UserID() (uint, bool) {
	if i.userID == 0 {
		return 0, false
	}
	return i.userID, true
}

// SessionToken returns the session token when the identity is a guest
func (i CartIdentity) SessionToken() (string, bool) {
	if !i.IsGuest() {
		return "", false
	}
	return i.token, true
}

// LogFields returns the identity as structured log fields
func (i CartIdentity) LogFields() map[string]interface{} {
	if i.IsGuest() {
		return map[string]interface{}{"session_id": i.token}
	}
	return map[string]interface{}{"user_id": i.userID}
}
