// Package permissions reports whether the assistant may use a sensor.
package permissions

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Kind names a permission.
type Kind string

const (
	Camera     Kind = "camera"
	Microphone Kind = "microphone"
	Location   Kind = "location"
)

// ErrDenied is returned when a required permission is not granted.
var ErrDenied = errors.New("permissions: denied")

// Provider answers permission queries. Granted is called lazily before
// each use, so a revoked grant takes effect on the next check.
type Provider interface {
	Granted(kind Kind) bool
}

// Require returns ErrDenied if kind is not granted by p.
func Require(p Provider, kind Kind) error {
	if p == nil || !p.Granted(kind) {
		return ErrDenied
	}
	return nil
}

// Static is an in-memory Provider whose grants can be changed at runtime.
type Static struct {
	mu     sync.RWMutex
	grants map[Kind]bool
}

var _ Provider = (*Static)(nil)

// NewStatic creates a Static granting the given kinds.
func NewStatic(granted ...Kind) *Static {
	s := &Static{grants: make(map[Kind]bool)}
	for _, k := range granted {
		s.grants[k] = true
	}
	return s
}

// AllGranted returns a Static granting every kind.
func AllGranted() *Static {
	return NewStatic(Camera, Microphone, Location)
}

// Granted implements Provider.
func (s *Static) Granted(kind Kind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grants[kind]
}

// Set grants or revokes kind.
func (s *Static) Set(kind Kind, granted bool) {
	s.mu.Lock()
	s.grants[kind] = granted
	s.mu.Unlock()
}

// Env reads grants from environment variables named Prefix + upper(kind),
// e.g. SOUNDSCAPE_PERMIT_CAMERA=false. Unset variables are granted.
type Env struct {
	Prefix string
}

var _ Provider = Env{}

// Granted implements Provider.
func (e Env) Granted(kind Kind) bool {
	v, ok := os.LookupEnv(e.Prefix + strings.ToUpper(string(kind)))
	if !ok || v == "" {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
