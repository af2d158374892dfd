package entity

import (
	"fmt"
	"sync"
)

// Kind identifies the control type a field is exposed as.
type Kind string

const (
	KindDateTime Kind = "datetime"
	KindNumber   Kind = "number"
	KindSelect   Kind = "select"
	KindSwitch   Kind = "switch"
	KindTime     Kind = "time"
)

// Document names a field's backing document.
type Document string

const (
	DocValues Document = "values"
	DocConfig Document = "config"
)

// Field binds one externally visible value to getter/setter closures over
// the planner. The UI adapter reads and writes through these without knowing
// anything about slots or strategies.
type Field struct {
	Kind    Kind
	ID      string
	Store   Document
	Options []string // for select fields

	Get func() (any, error)
	Set func(value any) error
}

// Registry holds the bound fields and fans out refresh notifications after a
// batch of document writes. Notifications are non-blocking: a consumer that
// is not draining Updates never stalls the planner.
type Registry struct {
	mu     sync.Mutex
	fields map[string]Field

	// Updates receives the name of each document whose fields should be
	// re-read.
	Updates chan Document
}

func NewRegistry() *Registry {
	return &Registry{
		fields:  make(map[string]Field),
		Updates: make(chan Document, 8),
	}
}

// Register adds a field. Registering the same ID twice is an error.
func (r *Registry) Register(field Field) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.fields[field.ID]; exists {
		return fmt.Errorf("field %q already registered", field.ID)
	}
	r.fields[field.ID] = field
	return nil
}

// Field looks up a bound field by ID.
func (r *Registry) Field(id string) (Field, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	field, ok := r.fields[id]
	return field, ok
}

// Fields returns all bound fields for the given document.
func (r *Registry) Fields(doc Document) []Field {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Field
	for _, field := range r.fields {
		if field.Store == doc {
			out = append(out, field)
		}
	}
	return out
}

// UpdateValues signals that fields backed by the values document changed.
func (r *Registry) UpdateValues() { r.notify(DocValues) }

// UpdateConfig signals that fields backed by the config document changed.
func (r *Registry) UpdateConfig() { r.notify(DocConfig) }

func (r *Registry) notify(doc Document) {
	select {
	case r.Updates <- doc:
	default:
	}
}
