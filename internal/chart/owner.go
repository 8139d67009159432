package chart

import (
	"errors"
	"fmt"
	"sync"
)

// ErrCanvasBusy is returned when an instance is attached to a canvas that already holds one.
var ErrCanvasBusy = errors.New("chart: canvas already holds a live instance")

// Config is everything a factory needs to draw one chart.
type Config struct {
	Dataset Dataset
	Style   Style
}

// Instance is a live chart attached to a canvas.
type Instance interface {
	// Destroy releases the instance and detaches it from its canvas.
	Destroy() error
}

// Factory creates chart instances on a canvas.
type Factory interface {
	Create(canvas Canvas, cfg Config) (Instance, error)
}

// Canvas is the mounting point a chart is drawn into.
type Canvas interface {
	ID() string
	Attach(inst Instance) error
	Detach(inst Instance)
}

// Mount is an in-memory Canvas that refuses a second live instance.
type Mount struct {
	id      string
	mu      sync.Mutex
	current Instance
}

// NewMount creates an empty canvas with the given element id.
func NewMount(id string) *Mount {
	return &Mount{id: id}
}

// ID returns the canvas element id.
func (m *Mount) ID() string {
	return m.id
}

// Attach binds inst to the canvas.
func (m *Mount) Attach(inst Instance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		return ErrCanvasBusy
	}
	m.current = inst
	return nil
}

// Detach unbinds inst if it is the attached instance.
func (m *Mount) Detach(inst Instance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == inst {
		m.current = nil
	}
}

// Current returns the attached instance, or nil.
func (m *Mount) Current() Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Attached returns how many instances the canvas holds: 0 or 1.
func (m *Mount) Attached() int {
	if m.Current() == nil {
		return 0
	}
	return 1
}

// Owner holds at most one chart instance for a canvas. Replace destroys the
// previous instance before creating the next, so the canvas never holds two.
type Owner struct {
	mu           sync.Mutex
	canvas       Canvas
	factory      Factory
	current      Instance
	replacements int
}

// NewOwner creates an owner drawing onto canvas with factory.
func NewOwner(canvas Canvas, factory Factory) *Owner {
	return &Owner{canvas: canvas, factory: factory}
}

// Canvas returns the canvas this owner draws onto.
func (o *Owner) Canvas() Canvas {
	return o.canvas
}

// Replace disposes of the current instance, if any, and creates a new one from cfg.
// If the old instance cannot be destroyed it stays current and no new one is created.
// If creation fails the owner is left empty.
func (o *Owner) Replace(cfg Config) (Instance, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current != nil {
		if err := o.current.Destroy(); err != nil {
			return nil, fmt.Errorf("chart: destroy previous instance on %s: %w", o.canvas.ID(), err)
		}
		o.current = nil
		o.replacements++
	}

	inst, err := o.factory.Create(o.canvas, cfg)
	if err != nil {
		return nil, fmt.Errorf("chart: create instance on %s: %w", o.canvas.ID(), err)
	}
	o.current = inst
	return inst, nil
}

// Current returns the live instance, or nil.
func (o *Owner) Current() Instance {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Replacements returns how many times a live instance was disposed by Replace.
func (o *Owner) Replacements() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.replacements
}

// Close destroys the live instance, if any.
func (o *Owner) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return nil
	}
	err := o.current.Destroy()
	if err == nil {
		o.current = nil
	}
	return err
}
