package geometry

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sjenson/growth/cell"
)

// plyHeader holds the layout parsed from an ASCII PLY header.
type plyHeader struct {
	vertexCount int
	faceCount   int
	vertexProps []string
}

// LoadPLY reads an ASCII PLY mesh and converts it into ringed particles.
// The mesh must be triangulated, closed, and consistently wound.
func LoadPLY(path string) ([]*cell.Particle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	defer f.Close()

	particles, err := parsePLY(bufio.NewScanner(f))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return particles, nil
}

func parsePLY(sc *bufio.Scanner) ([]*cell.Particle, error) {
	header, err := parseHeader(sc)
	if err != nil {
		return nil, err
	}

	xi := indexOf(header.vertexProps, "x")
	yi := indexOf(header.vertexProps, "y")
	zi := indexOf(header.vertexProps, "z")
	if xi < 0 || yi < 0 || zi < 0 {
		return nil, fmt.Errorf("vertex element lacks x/y/z properties")
	}
	nxi := indexOf(header.vertexProps, "nx")
	nyi := indexOf(header.vertexProps, "ny")
	nzi := indexOf(header.vertexProps, "nz")
	hasNormals := nxi >= 0 && nyi >= 0 && nzi >= 0

	vertices := make([]r3.Vec, header.vertexCount)
	var normals []r3.Vec
	if hasNormals {
		normals = make([]r3.Vec, header.vertexCount)
	}
	for i := range vertices {
		fields, err := nextFields(sc)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		if len(fields) < len(header.vertexProps) {
			return nil, fmt.Errorf("vertex %d: have %d values, want %d", i, len(fields), len(header.vertexProps))
		}
		v, err := parseVec(fields, xi, yi, zi)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		vertices[i] = v
		if hasNormals {
			n, err := parseVec(fields, nxi, nyi, nzi)
			if err != nil {
				return nil, fmt.Errorf("vertex %d: %w", i, err)
			}
			normals[i] = n
		}
	}

	faces := make([][3]int32, header.faceCount)
	for i := range faces {
		fields, err := nextFields(sc)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("face %d: bad vertex count %q", i, fields[0])
		}
		if n != 3 {
			return nil, fmt.Errorf("face %d has %d vertices, want triangles", i, n)
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("face %d: have %d indices, want 3", i, len(fields)-1)
		}
		for j := 0; j < 3; j++ {
			idx, err := strconv.Atoi(fields[1+j])
			if err != nil {
				return nil, fmt.Errorf("face %d: bad index %q", i, fields[1+j])
			}
			faces[i][j] = int32(idx)
		}
	}

	return particlesFromMesh(vertices, normals, faces)
}

func parseHeader(sc *bufio.Scanner) (plyHeader, error) {
	var h plyHeader
	magic, err := nextLine(sc)
	if err != nil || magic != "ply" {
		return h, fmt.Errorf("not a PLY file")
	}

	element := ""
	for {
		line, err := nextLine(sc)
		if err != nil {
			return h, fmt.Errorf("unterminated header: %w", err)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "comment", "obj_info":
		case "format":
			if len(fields) < 2 || fields[1] != "ascii" {
				return h, fmt.Errorf("unsupported format %q, want ascii", line)
			}
		case "element":
			if len(fields) < 3 {
				return h, fmt.Errorf("malformed element line %q", line)
			}
			element = fields[1]
			count, err := strconv.Atoi(fields[2])
			if err != nil {
				return h, fmt.Errorf("bad element count %q", fields[2])
			}
			switch element {
			case "vertex":
				h.vertexCount = count
			case "face":
				h.faceCount = count
			}
		case "property":
			if element == "vertex" && len(fields) >= 3 {
				h.vertexProps = append(h.vertexProps, fields[len(fields)-1])
			}
		case "end_header":
			if h.vertexCount == 0 {
				return h, fmt.Errorf("header declares no vertices")
			}
			if h.faceCount == 0 {
				return h, fmt.Errorf("header declares no faces")
			}
			return h, nil
		default:
			return h, fmt.Errorf("unrecognized header line %q", line)
		}
	}
}

func indexOf(props []string, name string) int {
	for i, p := range props {
		if p == name {
			return i
		}
	}
	return -1
}

func parseVec(fields []string, xi, yi, zi int) (r3.Vec, error) {
	var v r3.Vec
	var err error
	if v.X, err = strconv.ParseFloat(fields[xi], 64); err != nil {
		return v, fmt.Errorf("bad value %q", fields[xi])
	}
	if v.Y, err = strconv.ParseFloat(fields[yi], 64); err != nil {
		return v, fmt.Errorf("bad value %q", fields[yi])
	}
	if v.Z, err = strconv.ParseFloat(fields[zi], 64); err != nil {
		return v, fmt.Errorf("bad value %q", fields[zi])
	}
	return v, nil
}

func nextLine(sc *bufio.Scanner) (string, error) {
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(sc.Text()), nil
}

func nextFields(sc *bufio.Scanner) ([]string, error) {
	for {
		line, err := nextLine(sc)
		if err != nil {
			return nil, err
		}
		if fields := strings.Fields(line); len(fields) > 0 {
			return fields, nil
		}
	}
}

// WritePLY writes mesh buffers as an ASCII PLY with vertex normals. Ring
// projection emits every face three times, once per corner; duplicates
// are written as-is.
func WritePLY(path string, vertices, normals [][3]float64, faces [][3]int32) error {
	if len(normals) != len(vertices) {
		return fmt.Errorf("write %s: %d normals for %d vertices", path, len(normals), len(vertices))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "ply")
	fmt.Fprintln(w, "format ascii 1.0")
	fmt.Fprintf(w, "element vertex %d\n", len(vertices))
	fmt.Fprintln(w, "property float x")
	fmt.Fprintln(w, "property float y")
	fmt.Fprintln(w, "property float z")
	fmt.Fprintln(w, "property float nx")
	fmt.Fprintln(w, "property float ny")
	fmt.Fprintln(w, "property float nz")
	fmt.Fprintf(w, "element face %d\n", len(faces))
	fmt.Fprintln(w, "property list uchar int vertex_indices")
	fmt.Fprintln(w, "end_header")

	for i, v := range vertices {
		n := normals[i]
		fmt.Fprintf(w, "%g %g %g %g %g %g\n", v[0], v[1], v[2], n[0], n[1], n[2])
	}
	for _, face := range faces {
		fmt.Fprintf(w, "3 %d %d %d\n", face[0], face[1], face[2])
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
