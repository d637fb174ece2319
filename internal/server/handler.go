package server

// RequestHandler produces the response for one route.
//
// Handle returns either a response or an error. An error is converted by the
// Dispatcher into a 500 response; its text never reaches the client.
type RequestHandler interface {
	Handle(rc *RequestContext) (*Response, error)
}

// Offloader is implemented by handlers that may block the calling goroutine
// for a non-trivial time (subprocesses, file reads, outbound requests).
// Handlers that do not implement it run inline.
type Offloader interface {
	RequiresOffload() bool
}

// RequiresOffload reports whether h must run on the worker pool.
func RequiresOffload(h RequestHandler) bool {
	o, ok := h.(Offloader)
	return ok && o.RequiresOffload()
}

// HandlerFunc adapts an ordinary function to RequestHandler.
type HandlerFunc func(rc *RequestContext) (*Response, error)

func (f HandlerFunc) Handle(rc *RequestContext) (*Response, error) {
	return f(rc)
}

type blockingHandler struct {
	RequestHandler
}

func (blockingHandler) RequiresOffload() bool { return true }

// Blocking marks h as requiring the worker pool.
func Blocking(h RequestHandler) RequestHandler {
	return blockingHandler{RequestHandler: h}
}
