package models

// User is the profile mirrored from the auth account.
type User struct {
	ID       string `json:"id"`
	FullName string `json:"nomeCompleto"`
	Email    string `json:"email"`
}
