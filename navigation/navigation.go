package navigation

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Navigator consumes "navigate to path" instructions. Routing itself lives elsewhere.
type Navigator interface {
	Navigate(path string)
}

// Func adapts a plain function to a Navigator
type Func func(path string)

func (f Func) Navigate(path string) {
	f(path)
}

// Discard ignores every navigation signal
var Discard Navigator = Func(func(string) {})

var _ Navigator = (*Recorder)(nil)

// Recorder keeps every emitted path, optionally forwarding to another navigator
type Recorder struct {
	next  Navigator
	paths []string
	lock  sync.RWMutex
}

func NewRecorder(next Navigator) *Recorder {
	return &Recorder{next: next}
}

func (r *Recorder) Navigate(path string) {
	r.lock.Lock()
	r.paths = append(r.paths, path)
	r.lock.Unlock()

	log.Debug().Str("path", path).Msg("navigation requested")
	if r.next != nil {
		r.next.Navigate(path)
	}
}

// Paths returns a copy of the recorded paths in emission order
func (r *Recorder) Paths() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return append([]string(nil), r.paths...)
}

func (r *Recorder) Count() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.paths)
}

// Last returns the most recent path, empty when nothing was recorded
func (r *Recorder) Last() string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if len(r.paths) == 0 {
		return ""
	}
	return r.paths[len(r.paths)-1]
}

func (r *Recorder) Reset() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.paths = nil
}
