package models

import "time"

// User represents a registered listener
type User struct {
	Email         string // unique, immutable key (the Spotify account email)
	Name          string
	AccessToken   string // short-lived Spotify access token
	RefreshToken  string // long-lived; empty means the user is never polled
	ListenTime    int64  // total attributed active-listening time, nanoseconds
	LastCheckTime int64  // checkpoint of the last attribution, UnixNano
	CreatedAt     time.Time
}
