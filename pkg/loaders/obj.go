package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
)

// OBJMaterial is the subset of a Wavefront MTL material the renderer uses
type OBJMaterial struct {
	Name     string
	Diffuse  core.Vec3 // Kd
	Emission core.Vec3 // Ke
}

// OBJData is a triangulated Wavefront OBJ model
type OBJData struct {
	Vertices      []core.Vec3
	Faces         []int // 3 vertex indices per triangle
	FaceMaterials []int // index into Materials per triangle, -1 when unassigned
	Materials     []OBJMaterial
}

// LoadOBJ reads an OBJ file and any material libraries it references, which
// are resolved relative to the OBJ file.
func LoadOBJ(path string) (*OBJData, error) {
	start := time.Now()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open OBJ file: %w", err)
	}
	defer file.Close()

	dir := filepath.Dir(path)
	data, err := ReadOBJ(file, func(name string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(dir, name))
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.Infof("loaded %s: %d vertices, %d triangles, %d materials in %v",
		path, len(data.Vertices), len(data.Faces)/3, len(data.Materials), time.Since(start))
	return data, nil
}

// ReadOBJ parses OBJ text. openLib opens "mtllib" references; it may be nil
// when the model carries no materials.
func ReadOBJ(r io.Reader, openLib func(name string) (io.ReadCloser, error)) (*OBJData, error) {
	data := &OBJData{}
	matNameToIndex := make(map[string]int)
	curMaterial := -1

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			data.Vertices = append(data.Vertices, v)
		case "f":
			indices, err := parseFace(lineTokens, len(data.Vertices))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			for i := 1; i+1 < len(indices); i++ {
				data.Faces = append(data.Faces, indices[0], indices[i], indices[i+1])
				data.FaceMaterials = append(data.FaceMaterials, curMaterial)
			}
		case "mtllib":
			if len(lineTokens) != 2 {
				return nil, fmt.Errorf(`line %d: unsupported syntax for "mtllib"; expected 1 argument; got %d`, lineNum, len(lineTokens)-1)
			}
			if openLib == nil {
				return nil, fmt.Errorf("line %d: cannot open material library %q", lineNum, lineTokens[1])
			}
			lib, err := openLib(lineTokens[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			materials, err := ReadMTL(lib)
			lib.Close()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", lineTokens[1], err)
			}
			for _, m := range materials {
				if _, exists := matNameToIndex[m.Name]; exists {
					return nil, fmt.Errorf("%s: material %q already defined", lineTokens[1], m.Name)
				}
				data.Materials = append(data.Materials, m)
				matNameToIndex[m.Name] = len(data.Materials) - 1
			}
		case "usemtl":
			if len(lineTokens) != 2 {
				return nil, fmt.Errorf(`line %d: unsupported syntax for "usemtl"; expected 1 argument; got %d`, lineNum, len(lineTokens)-1)
			}
			index, exists := matNameToIndex[lineTokens[1]]
			if !exists {
				return nil, fmt.Errorf(`line %d: undefined material with name "%s"`, lineNum, lineTokens[1])
			}
			curMaterial = index
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return data, nil
}

// ReadMTL parses a Wavefront material library
func ReadMTL(r io.Reader) ([]OBJMaterial, error) {
	var materials []OBJMaterial
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		if lineTokens[0] == "newmtl" {
			if len(lineTokens) != 2 {
				return nil, fmt.Errorf(`line %d: unsupported syntax for "newmtl"; expected 1 argument; got %d`, lineNum, len(lineTokens)-1)
			}
			materials = append(materials, OBJMaterial{Name: lineTokens[1]})
			continue
		}
		if len(materials) == 0 {
			return nil, fmt.Errorf(`line %d: got "%s" without a "newmtl"`, lineNum, lineTokens[0])
		}

		cur := &materials[len(materials)-1]
		var err error
		switch lineTokens[0] {
		case "Kd":
			cur.Diffuse, err = parseVec3(lineTokens)
		case "Ke":
			cur.Emission, err = parseVec3(lineTokens)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	return materials, scanner.Err()
}

// parseFace resolves the vertex index of every "v/vt/vn" argument
func parseFace(lineTokens []string, vertexCount int) ([]int, error) {
	if len(lineTokens) < 4 {
		return nil, fmt.Errorf(`unsupported syntax for "f"; expected at least 3 arguments; got %d`, len(lineTokens)-1)
	}
	indices := make([]int, 0, len(lineTokens)-1)
	for arg, token := range lineTokens[1:] {
		vToken, _, _ := strings.Cut(token, "/")
		if vToken == "" {
			return nil, fmt.Errorf("face argument %d does not include a vertex index", arg)
		}
		index, err := selectFaceCoordIndex(vToken, vertexCount)
		if err != nil {
			return nil, fmt.Errorf("could not parse vertex coord for face argument %d: %w", arg, err)
		}
		indices = append(indices, index)
	}
	return indices, nil
}

// selectFaceCoordIndex converts a 1-based or negative (relative to the end)
// OBJ index into a slice offset.
func selectFaceCoordIndex(indexToken string, coordListLen int) (int, error) {
	index, err := strconv.Atoi(indexToken)
	if err != nil {
		return -1, err
	}

	offset := index - 1
	if index < 0 {
		offset = coordListLen + index
	}
	if index == 0 || offset < 0 || offset >= coordListLen {
		return -1, fmt.Errorf("index %d out of bounds", index)
	}
	return offset, nil
}

// parseVec3 parses the three numbers following a keyword
func parseVec3(lineTokens []string) (core.Vec3, error) {
	if len(lineTokens) < 4 {
		return core.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	var coords [3]float64
	for i := range coords {
		coord, err := strconv.ParseFloat(lineTokens[i+1], 64)
		if err != nil {
			return core.Vec3{}, err
		}
		coords[i] = coord
	}
	return core.NewVec3(coords[0], coords[1], coords[2]), nil
}
