// Package npy reads the float32 2-D arrays NumPy's .npy format stores —
// just enough of the format to load a style_vectors.npy file. No
// third-party .npy reader appears anywhere in the retrieval pack, so
// this is a small from-scratch decoder built directly off the documented
// NPY v1.0/v2.0 header layout.
package npy

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var magic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y'}

var shapePattern = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)
var descrPattern = regexp.MustCompile(`'descr':\s*'([^']*)'`)

// ReadFloat32Matrix2D parses a row-major 2-D float32 .npy stream into
// [rows][cols].
func ReadFloat32Matrix2D(r io.Reader) ([][]float32, error) {
	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	descr := descrPattern.FindStringSubmatch(header)
	if descr == nil {
		return nil, fmt.Errorf("npy: missing descr field in header")
	}
	if descr[1] != "<f4" {
		return nil, fmt.Errorf("npy: unsupported dtype %q (only little-endian float32 is supported)", descr[1])
	}

	shapeMatch := shapePattern.FindStringSubmatch(header)
	if shapeMatch == nil {
		return nil, fmt.Errorf("npy: missing shape field in header")
	}
	dims, err := parseShape(shapeMatch[1])
	if err != nil {
		return nil, err
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("npy: expected a 2-D array, got shape %v", dims)
	}
	rows, cols := dims[0], dims[1]

	raw := make([]byte, rows*cols*4)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("npy: failed to read array payload: %w", err)
	}

	out := make([][]float32, rows)
	offset := 0
	for i := 0; i < rows; i++ {
		row := make([]float32, cols)
		for j := 0; j < cols; j++ {
			bits := binary.LittleEndian.Uint32(raw[offset : offset+4])
			row[j] = math.Float32frombits(bits)
			offset += 4
		}
		out[i] = row
	}
	return out, nil
}

func readHeader(r io.Reader) (string, error) {
	prefix := make([]byte, 8)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return "", fmt.Errorf("npy: failed to read magic prefix: %w", err)
	}
	for i, b := range magic {
		if prefix[i] != b {
			return "", fmt.Errorf("npy: invalid magic bytes")
		}
	}
	major := prefix[6]

	var headerLen int
	if major == 1 {
		lenBytes := make([]byte, 2)
		if _, err := io.ReadFull(r, lenBytes); err != nil {
			return "", fmt.Errorf("npy: failed to read v1 header length: %w", err)
		}
		headerLen = int(binary.LittleEndian.Uint16(lenBytes))
	} else {
		lenBytes := make([]byte, 4)
		if _, err := io.ReadFull(r, lenBytes); err != nil {
			return "", fmt.Errorf("npy: failed to read v2+ header length: %w", err)
		}
		headerLen = int(binary.LittleEndian.Uint32(lenBytes))
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return "", fmt.Errorf("npy: failed to read header dict: %w", err)
	}
	return string(header), nil
}

func parseShape(body string) ([]int, error) {
	parts := strings.Split(body, ",")
	var dims []int
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("npy: invalid shape component %q: %w", p, err)
		}
		dims = append(dims, n)
	}
	return dims, nil
}
