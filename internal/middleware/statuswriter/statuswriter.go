// Package statuswriter wraps an http.ResponseWriter so middlewares can
// observe the status code a handler wrote.
package statuswriter

import "net/http"

type Recorder struct {
	http.ResponseWriter

	status      int
	wroteHeader bool
}

func New(w http.ResponseWriter) *Recorder {
	return &Recorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *Recorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}

	r.status = status
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(status)
}

func (r *Recorder) Write(b []byte) (int, error) {
	r.wroteHeader = true

	return r.ResponseWriter.Write(b)
}

// Status returns the recorded status code, defaulting to 200 when the
// handler never called WriteHeader.
func (r *Recorder) Status() int {
	return r.status
}
