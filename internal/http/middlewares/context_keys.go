package middlewares

// gin context keys
const (
	CtxRequestID = "request_id"
	CtxOwnerID   = "auth.ownerID"
)
