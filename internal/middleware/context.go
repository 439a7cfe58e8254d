package middleware

// Context keys used to store authentication metadata.
const (
	ContextKeySubject   = "subject"
	ContextKeyUserEmail = "user_email"
	ContextKeyUserRole  = "user_role"
	ContextKeyRequestID = "request_id"
)
