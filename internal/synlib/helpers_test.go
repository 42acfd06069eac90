// ABOUTME: Shared fakes for synlib tests.
// ABOUTME: A recording Logger and function-backed collaborators.

package synlib

import (
	"sync"
	"time"
)

// recordingLogger captures every line by level.
type recordingLogger struct {
	mu         sync.Mutex
	debug      []string
	emergency  []string
	exceptions []error
}

func (l *recordingLogger) Debug(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = append(l.debug, line)
}

func (l *recordingLogger) Emergency(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.emergency = append(l.emergency, line)
}

func (l *recordingLogger) LogException(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.exceptions = append(l.exceptions, err)
}

func (l *recordingLogger) debugLines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.debug...)
}

func (l *recordingLogger) emergencyLines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.emergency...)
}

func (l *recordingLogger) errors() []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]error(nil), l.exceptions...)
}

type collaboratorFunc func(g Gateway) error

func (f collaboratorFunc) Run(g Gateway) error {
	return f(g)
}

// runWith builds a NewCollaboratorFunc around run.
func runWith(run func(g Gateway) error) NewCollaboratorFunc {
	return func(Logger, int, string) (Collaborator, error) {
		return collaboratorFunc(run), nil
	}
}

// untilShutdown behaves like a well-mannered session manager.
func untilShutdown(g Gateway) error {
	for !g.IsShutdown() {
		time.Sleep(time.Millisecond)
	}
	return nil
}
