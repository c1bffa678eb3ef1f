package models

// User is an account that can book seats; admins also manage trips.
type User struct {
	ID           string `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	PasswordHash string `json:"-"`
}

// Recipient is a notification target.
type Recipient struct {
	Name  string
	Email string
}
