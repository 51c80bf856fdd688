package asset

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/qmuntal/gltf"
)

// GLTFLoader reads glTF 2.0 models in both the JSON (.gltf) and binary
// (.glb) encodings. The root object holds one child per node of the
// document's default scene.
type GLTFLoader struct {
	fetcher  Fetcher
	maxBytes int64
}

// NewGLTFLoader creates a glTF loader that fetches remote models with fetcher.
func NewGLTFLoader(fetcher Fetcher) *GLTFLoader {
	return &GLTFLoader{fetcher: fetcher}
}

// WithMaxBytes returns a copy of l that refuses remote models larger than n
// bytes. Zero means no limit.
func (l *GLTFLoader) WithMaxBytes(n int64) *GLTFLoader {
	cpy := *l
	cpy.maxBytes = n
	return &cpy
}

// Load implements Loader. Remote .gltf documents must embed their buffers.
func (l *GLTFLoader) Load(ctx context.Context, src string) (*Object, error) {
	doc, err := l.decode(ctx, src)
	if err != nil {
		return nil, err
	}

	root := &Object{
		Name:   baseName(src),
		Format: extension(src),
		Source: src,
	}
	for _, idx := range sceneNodes(doc) {
		child := buildNode(doc, idx, map[int]bool{})
		if child == nil {
			continue
		}
		root.Children = append(root.Children, child)
		root.Meshes += child.Meshes
		root.Vertices += child.Vertices
	}
	return root, nil
}

func (l *GLTFLoader) decode(ctx context.Context, src string) (*gltf.Document, error) {
	if !isRemote(src) {
		doc, err := gltf.Open(src)
		if err != nil {
			return nil, fmt.Errorf("open gltf %s: %w", src, err)
		}
		return doc, nil
	}

	rc, err := open(ctx, l.fetcher, src, l.maxBytes)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read gltf %s: %w", src, err)
	}
	if err := checkBuffers(data); err != nil {
		return nil, fmt.Errorf("gltf %s: %w", src, err)
	}

	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode gltf %s: %w", src, err)
	}
	return doc, nil
}

const (
	glbMagic      = 0x46546C67 // "glTF"
	glbHeaderSize = 12
	glbChunkSize  = 8
)

// checkBuffers rejects documents whose buffers declare more bytes than the
// whole payload holds. The decoder allocates byteLength up front.
func checkBuffers(data []byte) error {
	jsonChunk := data
	if len(data) >= glbHeaderSize && binary.LittleEndian.Uint32(data) == glbMagic {
		if len(data) < glbHeaderSize+glbChunkSize {
			return errors.New("truncated glb header")
		}
		n := uint64(binary.LittleEndian.Uint32(data[glbHeaderSize:]))
		start := uint64(glbHeaderSize + glbChunkSize)
		if n > uint64(len(data))-start {
			return fmt.Errorf("glb json chunk of %d bytes overruns the %d byte model", n, len(data))
		}
		jsonChunk = data[start : start+n]
	}

	var head struct {
		Buffers []struct {
			ByteLength uint64 `json:"byteLength"`
		} `json:"buffers"`
	}
	if err := json.Unmarshal(jsonChunk, &head); err != nil {
		return fmt.Errorf("decode gltf json: %w", err)
	}
	for i, b := range head.Buffers {
		if b.ByteLength > uint64(len(data)) {
			return fmt.Errorf("buffer %d declares %d bytes but the model is %d bytes", i, b.ByteLength, len(data))
		}
	}
	return nil
}

// sceneNodes returns the root nodes of the default scene, or of the first
// scene when none is marked default.
func sceneNodes(doc *gltf.Document) []int {
	if len(doc.Scenes) == 0 {
		return nil
	}
	idx := 0
	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		idx = int(*doc.Scene)
	}
	nodes := make([]int, len(doc.Scenes[idx].Nodes))
	for i, n := range doc.Scenes[idx].Nodes {
		nodes[i] = int(n)
	}
	return nodes
}

// buildNode converts a node and its descendants, summing mesh and vertex
// counts upwards. visiting guards against cyclic node graphs.
func buildNode(doc *gltf.Document, idx int, visiting map[int]bool) *Object {
	if idx < 0 || idx >= len(doc.Nodes) || visiting[idx] {
		return nil
	}
	visiting[idx] = true
	defer delete(visiting, idx)

	node := doc.Nodes[idx]
	obj := &Object{Name: node.Name}
	if obj.Name == "" {
		obj.Name = fmt.Sprintf("node-%d", idx)
	}

	if node.Mesh != nil && int(*node.Mesh) < len(doc.Meshes) {
		obj.Meshes = 1
		obj.Vertices = meshVertices(doc, doc.Meshes[*node.Mesh])
	}

	for _, c := range node.Children {
		child := buildNode(doc, int(c), visiting)
		if child == nil {
			continue
		}
		obj.Children = append(obj.Children, child)
		obj.Meshes += child.Meshes
		obj.Vertices += child.Vertices
	}
	return obj
}

func meshVertices(doc *gltf.Document, mesh *gltf.Mesh) int {
	total := 0
	for _, prim := range mesh.Primitives {
		acc, ok := prim.Attributes["POSITION"]
		if !ok || int(acc) >= len(doc.Accessors) {
			continue
		}
		total += int(doc.Accessors[acc].Count)
	}
	return total
}
