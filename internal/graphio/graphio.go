// Package graphio persists engine.Graph values to disk in a binary CSR
// format and a plain-text edge-list format, both written atomically.
package graphio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/tkellan/vcgame/internal/fileutil"
	"github.com/tkellan/vcgame/sdk/engine"
)

// SaveBinary writes g to path as little-endian uint64 throughout: n, m,
// row_ptr[n+1], col_ind[2m]. One width chosen once; there is no legacy
// format to stay compatible with. The write is atomic.
func SaveBinary(path string, g *engine.Graph) error {
	buf := make([]byte, 0, 8*(2+len(g.RowPtr())+len(g.ColInd())))
	var scratch [8]byte

	put := func(v uint64) {
		binary.LittleEndian.PutUint64(scratch[:], v)
		buf = append(buf, scratch[:]...)
	}

	put(uint64(g.N()))
	put(uint64(g.M()))
	for _, v := range g.RowPtr() {
		put(uint64(v))
	}
	for _, v := range g.ColInd() {
		put(uint64(v))
	}

	return fileutil.WriteFileAtomic(path, buf, 0o644)
}

// LoadBinary reads a graph previously written by SaveBinary. A truncated
// file or a header inconsistent with the edge count actually present is an
// input-rejection error, not a panic.
func LoadBinary(path string) (*engine.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	readUint64 := func() (uint64, error) {
		var scratch [8]byte
		if _, err := io.ReadFull(r, scratch[:]); err != nil {
			return 0, fmt.Errorf("graphio: truncated binary graph: %w", err)
		}
		return binary.LittleEndian.Uint64(scratch[:]), nil
	}

	n64, err := readUint64()
	if err != nil {
		return nil, err
	}
	m64, err := readUint64()
	if err != nil {
		return nil, err
	}
	n, m := int(n64), int(m64)
	if n < 0 || m < 0 {
		return nil, fmt.Errorf("graphio: negative header values n=%d m=%d", n, m)
	}

	rowPtr := make([]int, n+1)
	for i := range rowPtr {
		v, err := readUint64()
		if err != nil {
			return nil, err
		}
		rowPtr[i] = int(v)
	}

	colInd := make([]int, 2*m)
	for i := range colInd {
		v, err := readUint64()
		if err != nil {
			return nil, err
		}
		colInd[i] = int(v)
	}

	if rowPtr[n] != len(colInd) {
		return nil, fmt.Errorf("graphio: header m=%d inconsistent with row_ptr[n]=%d", m, rowPtr[n])
	}

	return engine.NewGraphFromCSR(n, rowPtr, colInd)
}

// SaveText writes g as: first token n, then one "u v" pair per line for
// every undirected edge in ascending (u,v) order with u<v. Atomic write.
func SaveText(path string, g *engine.Graph) error {
	var buf []byte
	buf = append(buf, fmt.Sprintf("%d\n", g.N())...)
	for _, e := range g.Edges() {
		buf = append(buf, fmt.Sprintf("%d %d\n", e[0], e[1])...)
	}
	return fileutil.WriteFileAtomic(path, buf, 0o644)
}

// LoadText reads a graph in the format SaveText writes. The reader accepts
// edges in either order and builds the CSR structure by symmetrising.
func LoadText(path string) (*engine.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() {
		return nil, fmt.Errorf("graphio: empty text graph file")
	}
	var n int
	if _, err := fmt.Sscanf(scanner.Text(), "%d", &n); err != nil {
		return nil, fmt.Errorf("graphio: malformed vertex count header: %w", err)
	}

	var edges [][2]int
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var u, v int
		if _, err := fmt.Sscanf(line, "%d %d", &u, &v); err != nil {
			return nil, fmt.Errorf("graphio: malformed edge line %q: %w", line, err)
		}
		edges = append(edges, [2]int{u, v})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("graphio: reading text graph: %w", err)
	}

	return engine.NewGraph(n, edges)
}
