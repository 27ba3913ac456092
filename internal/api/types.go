package api

import (
	"encoding/json"
	"time"
)

// User is the service's account record as it appears on the wire.
type User struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	URLCount int    `json:"urlCount"`
}

// AuthResult is the payload of a successful register or login exchange.
type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Link is a shortened URL record as it appears on the wire.
type Link struct {
	ID          string    `json:"_id"`
	OriginalURL string    `json:"originalUrl"`
	ShortCode   string    `json:"shortCode"`
	ShortURL    string    `json:"shortUrl"`
	Clicks      int       `json:"clicks"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LinkPage is the payload of a list call: the full link collection plus
// the server-reported total and quota ceiling.
type LinkPage struct {
	Links      []Link `json:"urls"`
	TotalCount int    `json:"totalCount"`
	Limit      int    `json:"limit"`
}

// envelope is the service's uniform response wrapper. Data is kept raw
// so each endpoint can decode its own payload shape.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createLinkRequest struct {
	OriginalURL string `json:"originalUrl"`
}
