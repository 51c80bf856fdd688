package asset

import (
	"errors"
	"sync"
)

// ErrSceneNotInitialized is returned when models are loaded before the scene
// was initialized.
var ErrSceneNotInitialized = errors.New("scene is not initialized")

// ErrSceneFull is returned when the scene already holds its maximum number
// of objects.
var ErrSceneFull = errors.New("scene is full")

// Object is a node of the scene graph built from a loaded model.
type Object struct {
	Name     string    `json:"name"`
	Format   string    `json:"format,omitempty"`
	Source   string    `json:"source,omitempty"`
	Meshes   int       `json:"meshes"`
	Vertices int       `json:"vertices"`
	Children []*Object `json:"children,omitempty"`
}

// Scene is the container loaded models are added to. It must be initialized
// with Init before use and is safe for concurrent use.
type Scene struct {
	mu          sync.RWMutex
	initialized bool
	limit       int
	objects     []*Object
}

// NewScene returns an uninitialized scene with no object limit.
func NewScene() *Scene {
	return &Scene{}
}

// NewSceneWithLimit returns an uninitialized scene holding at most limit
// root objects.
func NewSceneWithLimit(limit int) *Scene {
	return &Scene{limit: limit}
}

// Init marks the scene ready and clears any objects.
func (s *Scene) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
	s.objects = nil
}

// Initialized reports whether Init was called.
func (s *Scene) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Full reports whether the scene has reached its object limit.
func (s *Scene) Full() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.full()
}

func (s *Scene) full() bool {
	return s.limit > 0 && len(s.objects) >= s.limit
}

// Add appends a root object to the scene.
func (s *Scene) Add(obj *Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrSceneNotInitialized
	}
	if s.full() {
		return ErrSceneFull
	}
	s.objects = append(s.objects, obj)
	return nil
}

// Objects returns the scene's root objects.
func (s *Scene) Objects() []*Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Object, len(s.objects))
	copy(out, s.objects)
	return out
}
