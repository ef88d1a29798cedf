package monitoring

import "time"

// Recorder receives measurements from the encoder, live sessions and share sinks
type Recorder interface {
	ObserveEncode(backend string, took time.Duration, err error)
	StaleDiscarded()
	CacheLookup(hit bool)
	ObserveShare(sink string, err error)
}

// NoopRecorder drops every measurement
type NoopRecorder struct{}

func (NoopRecorder) ObserveEncode(string, time.Duration, error) {}
func (NoopRecorder) StaleDiscarded()                            {}
func (NoopRecorder) CacheLookup(bool)                           {}
func (NoopRecorder) ObserveShare(string, error)                 {}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
