package graph

import (
	"github.com/2x3systems/gokn/gokn"
	"github.com/pkg/errors"
)

// graph6 offsets every header and data byte by 63 so that the encoding is printable ASCII.
const (
	g6Bias    = 63
	g6MaxByte = 126
)

func numPairBits(Nv int) int {
	return Nv * (Nv - 1) / 2
}

// AppendG6 appends the graph6 encoding of this graph to dst.
//
// Format:
//
//	N(n)   byte(n + 63)
//	R(x)   the strict upper triangle of the adjacency matrix in column-major order
//	       (for j in 1..n-1, for i in 0..j-1), padded with zero bits to a multiple of 6,
//	       six bits per byte (most significant bit first), each byte + 63.
//
// The encoding depends only on the edge set, not on the edge order.
func (X *Graph) AppendG6(dst []byte) ([]byte, error) {
	Nv := int(X.vtxCount)
	if Nv > gokn.MaxVerts {
		return dst, gokn.ErrTooManyVerts
	}

	var rowBuf [gokn.MaxVerts]uint64
	adj := X.AdjRows(rowBuf[:0])

	dst = append(dst, byte(Nv+g6Bias))

	val := byte(0)
	nbits := 0
	for j := 1; j < Nv; j++ {
		col := adj[j]
		for i := 0; i < j; i++ {
			val <<= 1
			if col&(uint64(1)<<i) != 0 {
				val |= 1
			}
			nbits++
			if nbits == 6 {
				dst = append(dst, val+g6Bias)
				val, nbits = 0, 0
			}
		}
	}
	if nbits > 0 {
		val <<= 6 - nbits
		dst = append(dst, val+g6Bias)
	}

	return dst, nil
}

// G6 returns the graph6 encoding of this graph.
func (X *Graph) G6() string {
	var buf [1 + (gokn.MaxVerts*(gokn.MaxVerts-1)/2+5)/6]byte
	g6, err := X.AppendG6(buf[:0])
	if err != nil {
		panic(err)
	}
	return string(g6)
}

// DecodeG6 returns a new graph decoded from the given graph6 string.
func DecodeG6(g6 string) (*Graph, error) {
	X := NewGraph(0)
	if err := X.InitFromG6(g6); err != nil {
		X.Reclaim()
		return nil, err
	}
	return X, nil
}

// InitFromG6 assigns this graph from a graph6 string generated by AppendG6() (or any graph6 source).
//
// Edges are reconstructed in column-major order: (0,1), (0,2), (1,2), (0,3), (1,3), (2,3), ...
// Padding bits beyond n(n-1)/2 are ignored.
func (X *Graph) InitFromG6(g6 string) error {
	X.Init(nil)

	if len(g6) == 0 {
		return errors.Wrap(gokn.ErrBadG6, "empty string")
	}

	hdr := g6[0]
	if hdr < g6Bias || hdr > g6MaxByte {
		return errors.Wrapf(gokn.ErrBadG6, "invalid header byte 0x%02x", hdr)
	}
	Nv := int(hdr - g6Bias)
	if Nv > gokn.MaxVerts {
		return errors.Wrapf(gokn.ErrTooManyVerts, "graph6 header denotes a long form vertex count")
	}

	numBits := numPairBits(Nv)
	numBytes := (numBits + 5) / 6
	data := g6[1:]
	if len(data) != numBytes {
		return errors.Wrapf(gokn.ErrBadG6, "%d vertices requires %d data bytes (got %d)", Nv, numBytes, len(data))
	}
	for i := 0; i < numBytes; i++ {
		if c := data[i]; c < g6Bias || c > g6MaxByte {
			return errors.Wrapf(gokn.ErrBadG6, "invalid data byte 0x%02x at offset %d", c, i+1)
		}
	}

	X.vtxCount = int32(Nv)

	k := 0
	for j := 1; j < Nv; j++ {
		for i := 0; i < j; i++ {
			val := data[k/6] - g6Bias
			if val&(0x20>>(k%6)) != 0 {
				X.edges = append(X.edges, Edge{VtxID(i), VtxID(j)})
			}
			k++
		}
	}

	return nil
}
