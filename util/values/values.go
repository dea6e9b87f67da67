package values

type contextKey string

const (
	Success        = "success"
	Created        = "created"
	Error          = "error"
	Failed         = "failed"
	BadRequestBody = "bad_request"
	Unprocessable  = "unprocessable"
	NotAllowed     = "not_allowed"
	Conflict       = "conflict"
	NotFound       = "not_found"
	NotAuthorised  = "not_authorised"
	TokenExpired   = "token_expired"
	ActiveLogin    = "active_login"
)

const (
	HeaderRequestSource = "X-Request-Source"
	HeaderRequestID     = "X-Request-ID"

	UnknownRequestSource = "unknown"
)

const (
	ContextTracingKey contextKey = "tracing"
	ContextUserIDKey  contextKey = "user_id"
)
