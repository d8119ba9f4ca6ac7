package middlewares

// Keys set on *gin.Context by the middlewares in this package.
const (
	CtxRequestID = "request_id"
	CtxSession   = "session_status"
)
