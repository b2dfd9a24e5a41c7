// Package types contains the REST API request and response payloads.
package types

import "time"

// SignupRequest is the payload for account registration. The platform
// handles are optional at signup time.
type SignupRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	LeetcodeUsername string `json:"leetcodeUsername"`
	CodeforcesHandle string `json:"codeforcesHandle"`
}

// LoginRequest is the payload for credential login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session token and the profile basics the
// frontend renders immediately after login.
type LoginResponse struct {
	Token            string `json:"token"`
	Email            string `json:"email"`
	LeetcodeUsername string `json:"leetcodeUsername"`
	CodeforcesHandle string `json:"codeforcesHandle"`
}

// HandlesRequest updates the platform handles. Empty fields keep the
// previous value.
type HandlesRequest struct {
	LeetcodeUsername string `json:"leetcodeUsername"`
	CodeforcesHandle string `json:"codeforcesHandle"`
}

// HandlesResponse confirms the updated handles.
type HandlesResponse struct {
	Message          string `json:"message"`
	LeetcodeUsername string `json:"leetcodeUsername"`
	CodeforcesHandle string `json:"codeforcesHandle"`
}

// MessageResponse is a bare status message.
type MessageResponse struct {
	Message string `json:"message"`
}

// RefreshResponse confirms an explicit cache refresh.
type RefreshResponse struct {
	Message     string    `json:"message"`
	RefreshedAt time.Time `json:"refreshedAt"`
}
