package dto

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ConsentURLResponse struct {
	URL string `json:"url"`
}

type SessionResponse struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}

type UserProfile struct {
	ID         string           `json:"id"`
	Email      string           `json:"email,omitempty"`
	LocalEmail string           `json:"local_email,omitempty"`
	Identities []LinkedIdentity `json:"identities"`
}

type LinkedIdentity struct {
	Provider    string `json:"provider"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Linked      bool   `json:"linked"`
}
