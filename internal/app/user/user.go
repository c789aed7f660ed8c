/*
Package user defines the user identity record and its sanitized client-facing profile.
*/
package user

import (
	"strings"
	"time"
)

// User is the persisted identity of a registered account.
type User struct {
	// ID is the opaque unique key of the user.
	ID string

	// Name is the display name chosen at registration.
	Name string

	// Email is unique across users and stored normalized (see NormalizeEmail).
	Email string

	// Password is an opaque credential compared verbatim on login.
	Password string

	// ProfilePicURL is nil until the user sets a profile picture.
	ProfilePicURL *string

	CreatedAt time.Time
}

// Profile is the representation of a user sent to clients. It never carries the password.
type Profile struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	ProfilePicURL *string `json:"profilePicUrl"`
}

// Profile returns the sanitized view of u.
func (u User) Profile() Profile {
	return Profile{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		ProfilePicURL: u.ProfilePicURL,
	}
}

// Profiles maps users to their sanitized views.
func Profiles(users []User) []Profile {
	out := make([]Profile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	return out
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
