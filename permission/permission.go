// Package permission answers whether the process may use the microphone.
package permission

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type Status int

const (
	Undetermined Status = iota
	Granted
	Denied
)

func (s Status) String() string {
	switch s {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	default:
		return "undetermined"
	}
}

func Parse(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "granted", "":
		return Granted, nil
	case "denied":
		return Denied, nil
	case "undetermined":
		return Undetermined, nil
	}
	return Undetermined, fmt.Errorf("unknown permission status %q", s)
}

type Provider interface {
	Status() Status
	// Request prompts when the status is undetermined and returns the
	// answer, either Granted or Denied.
	Request(ctx context.Context) Status
}

// Resolve checks the status, asking only when it is undetermined.
func Resolve(ctx context.Context, p Provider) bool {
	switch p.Status() {
	case Granted:
		return true
	case Denied:
		return false
	}
	return p.Request(ctx) == Granted
}

// Static is a provider with a configured answer. Desktop audio servers do
// not prompt the process, so an undetermined status resolves to granted on
// request.
type Static struct {
	mu     sync.Mutex
	status Status
}

func NewStatic(s Status) *Static {
	return &Static{status: s}
}

func (p *Static) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Static) Request(ctx context.Context) Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == Undetermined {
		if ctx.Err() != nil {
			return Denied
		}
		p.status = Granted
	}
	return p.status
}

// Fake answers requests with a scripted status and counts calls.
type Fake struct {
	mu       sync.Mutex
	status   Status
	answer   Status
	checks   int
	requests int
}

// NewFake starts at status; a request while undetermined settles on answer.
func NewFake(status, answer Status) *Fake {
	return &Fake{status: status, answer: answer}
}

func (f *Fake) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	return f.status
}

func (f *Fake) Request(context.Context) Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	if f.status == Undetermined {
		f.status = f.answer
	}
	return f.status
}

func (f *Fake) Checks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks
}

func (f *Fake) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}
