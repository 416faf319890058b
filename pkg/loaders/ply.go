package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format      string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version     string // Usually "1.0"
	VertexCount int
	FaceCount   int
	VertexProps []PLYProperty
	FaceProps   []PLYProperty
	Elements    []PLYElement // every element in file order
}

// PLYElement is an element declaration such as "element vertex 8"
type PLYElement struct {
	Name       string
	Count      int
	Properties []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// PLYData contains the geometry loaded from a PLY file
type PLYData struct {
	Vertices []core.Vec3 // Vertex positions (x, y, z)
	Faces    []int       // Triangle indices (3 per triangle); polygons are fanned
	Normals  []core.Vec3 // Per-vertex normals, empty if not present
}

// LoadPLY loads a PLY file and returns its vertex and face data
func LoadPLY(filename string) (*PLYData, error) {
	startTime := time.Now()

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	data, err := ReadPLY(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	logger.Infof("loaded %s: %d vertices, %d triangles in %v",
		filename, len(data.Vertices), len(data.Faces)/3, time.Since(startTime))
	return data, nil
}

// ReadPLY parses an ASCII or binary PLY stream
func ReadPLY(r io.Reader) (*PLYData, error) {
	reader := bufio.NewReaderSize(r, 1<<20)
	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var values plyValueReader
	switch header.Format {
	case "ascii":
		values = &asciiValueReader{scanner: newWordScanner(reader)}
	case "binary_little_endian":
		values = &binaryValueReader{reader: reader, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &binaryValueReader{reader: reader, order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("unsupported PLY format: %s", header.Format)
	}

	data := &PLYData{
		Vertices: make([]core.Vec3, 0, header.VertexCount),
		Faces:    make([]int, 0, header.FaceCount*3),
	}
	for _, element := range header.Elements {
		switch element.Name {
		case "vertex":
			err = readPLYVertices(values, element, data)
		case "face":
			err = readPLYFaces(values, element, data)
		default:
			err = skipPLYElement(values, element)
		}
		if err != nil {
			return nil, err
		}
	}

	for _, index := range data.Faces {
		if index < 0 || index >= len(data.Vertices) {
			return nil, fmt.Errorf("face index %d out of range for %d vertices", index, len(data.Vertices))
		}
	}
	return data, nil
}

// parsePLYHeader reads the header up to and including "end_header", leaving
// the reader positioned at the first body byte.
func parsePLYHeader(reader *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}
	current := -1

	for lineNum := 1; ; lineNum++ {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("header ended without end_header: %w", err)
		}
		line = strings.TrimSpace(line)

		if lineNum == 1 {
			if line != "ply" {
				return nil, fmt.Errorf("missing ply magic number")
			}
			continue
		}
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("line %d: invalid format line", lineNum)
			}
			header.Format = parts[1]
			header.Version = parts[2]
		case "comment", "obj_info":
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("line %d: invalid element line", lineNum)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("line %d: invalid element count: %s", lineNum, parts[2])
			}
			header.Elements = append(header.Elements, PLYElement{Name: parts[1], Count: count})
			current = len(header.Elements) - 1
		case "property":
			if current < 0 {
				return nil, fmt.Errorf("line %d: property before any element", lineNum)
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			header.Elements[current].Properties = append(header.Elements[current].Properties, prop)
		default:
			return nil, fmt.Errorf("line %d: unknown header keyword %q", lineNum, parts[0])
		}
	}

	for _, element := range header.Elements {
		switch element.Name {
		case "vertex":
			header.VertexCount = element.Count
			header.VertexProps = element.Properties
		case "face":
			header.FaceCount = element.Count
			header.FaceProps = element.Properties
		}
	}
	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		prop := PLYProperty{IsList: true, ListType: parts[1], DataType: parts[2], Name: parts[3]}
		if getTypeSize(prop.ListType) == 0 || getTypeSize(prop.DataType) == 0 {
			return PLYProperty{}, fmt.Errorf("unsupported list property types %s %s", prop.ListType, prop.DataType)
		}
		return prop, nil
	}

	prop := PLYProperty{Type: parts[0], Name: parts[1]}
	if getTypeSize(prop.Type) == 0 {
		return PLYProperty{}, fmt.Errorf("unsupported data type: %s", prop.Type)
	}
	return prop, nil
}

func readPLYVertices(values plyValueReader, element PLYElement, data *PLYData) error {
	position := [3]int{-1, -1, -1}
	normal := [3]int{-1, -1, -1}
	for i, prop := range element.Properties {
		switch prop.Name {
		case "x":
			position[0] = i
		case "y":
			position[1] = i
		case "z":
			position[2] = i
		case "nx":
			normal[0] = i
		case "ny":
			normal[1] = i
		case "nz":
			normal[2] = i
		}
	}
	if position[0] < 0 || position[1] < 0 || position[2] < 0 {
		return fmt.Errorf("vertex element lacks x, y and z properties")
	}
	hasNormals := normal[0] >= 0 && normal[1] >= 0 && normal[2] >= 0

	row := make([]float64, len(element.Properties))
	for v := 0; v < element.Count; v++ {
		for i, prop := range element.Properties {
			if prop.IsList {
				if _, err := readPLYList(values, prop); err != nil {
					return fmt.Errorf("vertex %d: %w", v, err)
				}
				continue
			}
			value, err := values.read(prop.Type)
			if err != nil {
				return fmt.Errorf("vertex %d property %s: %w", v, prop.Name, err)
			}
			row[i] = value
		}
		data.Vertices = append(data.Vertices, core.NewVec3(row[position[0]], row[position[1]], row[position[2]]))
		if hasNormals {
			data.Normals = append(data.Normals, core.NewVec3(row[normal[0]], row[normal[1]], row[normal[2]]))
		}
	}
	return nil
}

func readPLYFaces(values plyValueReader, element PLYElement, data *PLYData) error {
	for f := 0; f < element.Count; f++ {
		for _, prop := range element.Properties {
			if !prop.IsList {
				if _, err := values.read(prop.Type); err != nil {
					return fmt.Errorf("face %d property %s: %w", f, prop.Name, err)
				}
				continue
			}
			list, err := readPLYList(values, prop)
			if err != nil {
				return fmt.Errorf("face %d: %w", f, err)
			}
			if prop.Name != "vertex_indices" && prop.Name != "vertex_index" {
				continue
			}
			if len(list) < 3 {
				return fmt.Errorf("face %d has %d vertices", f, len(list))
			}
			// Fan triangulation keeps the polygon's winding
			for i := 1; i+1 < len(list); i++ {
				data.Faces = append(data.Faces, int(list[0]), int(list[i]), int(list[i+1]))
			}
		}
	}
	return nil
}

func skipPLYElement(values plyValueReader, element PLYElement) error {
	for n := 0; n < element.Count; n++ {
		for _, prop := range element.Properties {
			var err error
			if prop.IsList {
				_, err = readPLYList(values, prop)
			} else {
				_, err = values.read(prop.Type)
			}
			if err != nil {
				return fmt.Errorf("%s %d: %w", element.Name, n, err)
			}
		}
	}
	return nil
}

func readPLYList(values plyValueReader, prop PLYProperty) ([]float64, error) {
	count, err := values.read(prop.ListType)
	if err != nil {
		return nil, fmt.Errorf("list %s count: %w", prop.Name, err)
	}
	if count < 0 || count != math.Trunc(count) {
		return nil, fmt.Errorf("list %s has invalid count %v", prop.Name, count)
	}
	list := make([]float64, int(count))
	for i := range list {
		if list[i], err = values.read(prop.DataType); err != nil {
			return nil, fmt.Errorf("list %s item %d: %w", prop.Name, i, err)
		}
	}
	return list, nil
}

// getTypeSize returns the size in bytes of a PLY data type, 0 if unknown
func getTypeSize(dataType string) int {
	switch dataType {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	default:
		return 0
	}
}

// plyValueReader decodes one scalar of the given PLY type from the body
type plyValueReader interface {
	read(dataType string) (float64, error)
}

type binaryValueReader struct {
	reader io.Reader
	order  binary.ByteOrder
	buf    [8]byte
}

func (b *binaryValueReader) read(dataType string) (float64, error) {
	size := getTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("unsupported data type: %s", dataType)
	}
	buf := b.buf[:size]
	if _, err := io.ReadFull(b.reader, buf); err != nil {
		return 0, err
	}
	switch dataType {
	case "char", "int8":
		return float64(int8(buf[0])), nil
	case "uchar", "uint8":
		return float64(buf[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(buf))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(buf)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(buf))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(buf)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(buf))), nil
	default:
		return math.Float64frombits(b.order.Uint64(buf)), nil
	}
}

type asciiValueReader struct {
	scanner *bufio.Scanner
}

func newWordScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	return scanner
}

func (a *asciiValueReader) read(dataType string) (float64, error) {
	if !a.scanner.Scan() {
		if err := a.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	value, err := strconv.ParseFloat(a.scanner.Text(), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q", dataType, a.scanner.Text())
	}
	return value, nil
}
