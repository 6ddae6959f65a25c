package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type registerRequest struct {
	Username        string `json:"username"         validate:"required"`
	Email           string `json:"email"            validate:"required,email"`
	Name            string `json:"name"             validate:"required"`
	Telephone       string `json:"telephone"        validate:"required"`
	Password        string `json:"password"         validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Profile         string `json:"profile"          validate:"omitempty,oneof=Public Private"`
	Occupation      string `json:"occupation"`
	Workplace       string `json:"workplace"`
	Address         string `json:"address"`
	PostalCode      string `json:"postal_code"`
	TaxID           string `json:"tax_id"`
	Photo           string `json:"photo"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// loginResponse mirrors the session minted for the caller; the session id
// itself travels only inside the cookie.
type loginResponse struct {
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}
