// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data: similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
//
// JSON field names follow the gallery's browser client, which reads "_id",
// "mimetype" and "imageId" straight off the API responses.
package model

import "time"

// User represents a registered gallery account.
//
// The username is the primary key: it is chosen at signup, unique, and never
// changes. PasswordHash is tagged `json:"-"` so a User can be written to a
// response without ever leaking the bcrypt hash.
//
// GitHubID is only set for accounts created through "Sign in with GitHub";
// password accounts leave it at zero.
type User struct {
	Username       string    `json:"_id"`
	PasswordHash   string    `json:"-"`
	GitHubID       int64     `json:"-"`
	ProfileImageID string    `json:"image,omitempty"` // showcase image, set on first upload
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UserPage is one page of the user directory plus what the client needs to
// compute the number of pages (ceil(Total / Limit)).
type UserPage struct {
	Users []User `json:"users_array"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}
