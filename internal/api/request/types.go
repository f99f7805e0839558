package request

// LoginRequest is the request body for logging in to an account
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CommandRequest is the request body for sending a command over a session
type CommandRequest struct {
	Command string `json:"command"`
}
