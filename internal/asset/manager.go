package asset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrUnsupportedFormat is returned for model files that are neither OBJ nor
// glTF.
var ErrUnsupportedFormat = errors.New("unsupported model format")

// Loader turns a model source (local path or http(s) URL) into an object
// tree.
type Loader interface {
	Load(ctx context.Context, src string) (*Object, error)
}

// Manager loads models into a scene, choosing the loader by file extension.
type Manager struct {
	scene   *Scene
	loaders map[string]Loader
	logger  *slog.Logger
}

// NewManager creates a manager that reads .obj files with objLoader and
// .glb/.gltf files with gltfLoader.
func NewManager(scene *Scene, objLoader, gltfLoader Loader, logger *slog.Logger) *Manager {
	return &Manager{
		scene: scene,
		loaders: map[string]Loader{
			"obj":  objLoader,
			"glb":  gltfLoader,
			"gltf": gltfLoader,
		},
		logger: logger,
	}
}

// Scene returns the scene models are added to.
func (m *Manager) Scene() *Scene {
	return m.scene
}

// Load3DModel loads the model at path and adds its root object to the scene.
// The scene is left unchanged on any error.
func (m *Manager) Load3DModel(ctx context.Context, path string) (*Object, error) {
	if !m.scene.Initialized() {
		m.logger.ErrorContext(ctx, "scene is not initialized", slog.String("path", path))
		return nil, ErrSceneNotInitialized
	}
	if m.scene.Full() {
		m.logger.WarnContext(ctx, "scene is full", slog.String("path", path))
		return nil, ErrSceneFull
	}

	ext := extension(path)
	loader, ok := m.loaders[ext]
	if !ok || loader == nil {
		m.logger.ErrorContext(ctx, "unsupported model file type",
			slog.String("path", path),
			slog.String("extension", ext),
		)
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	obj, err := loader.Load(ctx, path)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to load model",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if err := m.scene.Add(obj); err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "model loaded",
		slog.String("path", path),
		slog.String("format", ext),
		slog.Int("meshes", obj.Meshes),
		slog.Int("vertices", obj.Vertices),
	)
	return obj, nil
}
