package asset

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OBJLoader reads Wavefront OBJ models. Each "o" or "g" record starts a child
// object; faces outside any group belong to the root.
type OBJLoader struct {
	fetcher  Fetcher
	maxBytes int64
}

// NewOBJLoader creates an OBJ loader that fetches remote models with fetcher.
func NewOBJLoader(fetcher Fetcher) *OBJLoader {
	return &OBJLoader{fetcher: fetcher}
}

// WithMaxBytes returns a copy of l that refuses models larger than n bytes.
// Zero means no limit.
func (l *OBJLoader) WithMaxBytes(n int64) *OBJLoader {
	cpy := *l
	cpy.maxBytes = n
	return &cpy
}

// Load implements Loader.
func (l *OBJLoader) Load(ctx context.Context, src string) (*Object, error) {
	rc, err := open(ctx, l.fetcher, src, l.maxBytes)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	root, err := parseOBJ(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src, err)
	}
	root.Name = baseName(src)
	root.Source = src
	return root, nil
}

func parseOBJ(ctx context.Context, r io.Reader) (*Object, error) {
	root := &Object{Format: "obj"}
	current := root
	hasFaces := map[*Object]bool{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			if err := checkFloats(fields[1:], 3); err != nil {
				return nil, fmt.Errorf("line %d: vertex: %w", lineNo, err)
			}
			root.Vertices++
		case "vn":
			if err := checkFloats(fields[1:], 3); err != nil {
				return nil, fmt.Errorf("line %d: normal: %w", lineNo, err)
			}
		case "vt":
			if err := checkFloats(fields[1:], 1); err != nil {
				return nil, fmt.Errorf("line %d: texture coordinate: %w", lineNo, err)
			}
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNo)
			}
			hasFaces[current] = true
		case "o", "g":
			name := strings.Join(fields[1:], " ")
			current = &Object{Name: name, Format: "obj"}
			root.Children = append(root.Children, current)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	if hasFaces[root] {
		root.Meshes = 1
	}
	for _, child := range root.Children {
		if hasFaces[child] {
			child.Meshes = 1
			root.Meshes++
		}
	}
	return root, nil
}

func checkFloats(values []string, min int) error {
	if len(values) < min {
		return fmt.Errorf("expected at least %d components, got %d", min, len(values))
	}
	for _, v := range values {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("invalid component %q", v)
		}
	}
	return nil
}
