// Package sessions manages the authenticated dashboard user for a browser.
// The state is persisted in the browser's key-value storage under
// StorageKey and lives from login until logout or a rejected token.
package sessions

// StorageKey is the browser storage key holding the serialized session State
const StorageKey = "auth-storage"

// User is the identity decoded from the auth service's bearer token
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// State is what gets persisted for a browser
type State struct {
	User            *User  `json:"user"`
	Token           string `json:"token"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// Authenticated reports whether the state carries a usable user and token
func (s *State) Authenticated() bool {
	return s != nil && s.IsAuthenticated && s.User != nil && s.Token != ""
}
