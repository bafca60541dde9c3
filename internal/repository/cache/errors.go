package cache

type ErrorHandler struct {
	Err        error
	StatusCode int
}

func (e ErrorHandler) Error() string { return e.Err.Error() }

func NewErrorHandler(err error, statusCode int) ErrorHandler {
	return ErrorHandler{Err: err, StatusCode: statusCode}
}
