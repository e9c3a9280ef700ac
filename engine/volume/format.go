package volume

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// HeaderSize is the byte length of the volume header: three int32 dimensions and a float32 voxel size.
const HeaderSize = 16

// header mirrors the on-disk layout of the first HeaderSize bytes.
type header struct {
	Nx, Ny, Nz int32
	VoxelSize  float32
}

// ExpectedSize returns the minimum buffer length holding a volume of the given dimensions.
//
// Parameters:
//   - nx, ny, nz: the voxel counts along each axis
//
// Returns:
//   - int64: HeaderSize plus two bytes per voxel, saturating at math.MaxInt64
func ExpectedSize(nx, ny, nz int) int64 {
	count := int64(1)
	for _, n := range []int64{int64(nx), int64(ny), int64(nz)} {
		if n <= 0 {
			return HeaderSize
		}
		if count > (math.MaxInt64-HeaderSize)/2/n {
			return math.MaxInt64
		}
		count *= n
	}
	return HeaderSize + count*2
}

// Parse decodes a volume buffer into a Grid.
// The body holds Nx*Ny*Nz little-endian half floats with x varying fastest. Bytes past the
// body are ignored.
//
// Parameters:
//   - buf: the raw volume bytes
//
// Returns:
//   - *Grid: the decoded grid
//   - error: a *FormatError when the header or body is invalid
func Parse(buf []byte) (*Grid, error) {
	if len(buf) < HeaderSize {
		return nil, &FormatError{Reason: "buffer shorter than header", Size: len(buf)}
	}

	var h header
	if err := binary.Read(bytes.NewReader(buf[:HeaderSize]), binary.LittleEndian, &h); err != nil {
		return nil, &FormatError{Reason: "unreadable header", Size: len(buf), Err: err}
	}
	if h.Nx <= 0 || h.Ny <= 0 || h.Nz <= 0 {
		return nil, &FormatError{
			Reason: fmt.Sprintf("non-positive dimensions %dx%dx%d", h.Nx, h.Ny, h.Nz),
			Size:   len(buf),
		}
	}

	need := ExpectedSize(int(h.Nx), int(h.Ny), int(h.Nz))
	if int64(len(buf)) < need {
		return nil, &FormatError{
			Reason: fmt.Sprintf("body truncated: %dx%dx%d needs %d bytes", h.Nx, h.Ny, h.Nz, need),
			Size:   len(buf),
		}
	}
	if need-HeaderSize > math.MaxInt {
		return nil, &FormatError{Reason: "volume too large to address", Size: len(buf)}
	}

	count := int(h.Nx) * int(h.Ny) * int(h.Nz)
	data := make([]uint16, count)
	body := buf[HeaderSize:]
	for i := range data {
		data[i] = binary.LittleEndian.Uint16(body[i*2:])
	}

	return &Grid{
		Dims:      [3]int{int(h.Nx), int(h.Ny), int(h.Nz)},
		VoxelSize: h.VoxelSize,
		Data:      data,
	}, nil
}

// Encode serializes a Grid into the volume format.
//
// Parameters:
//   - g: the grid to encode
//
// Returns:
//   - []byte: the header followed by the half-float body
func Encode(g *Grid) []byte {
	out := make([]byte, HeaderSize+len(g.Data)*2)
	binary.LittleEndian.PutUint32(out[0:], uint32(int32(g.Dims[0])))
	binary.LittleEndian.PutUint32(out[4:], uint32(int32(g.Dims[1])))
	binary.LittleEndian.PutUint32(out[8:], uint32(int32(g.Dims[2])))
	binary.LittleEndian.PutUint32(out[12:], math.Float32bits(g.VoxelSize))
	copy(out[HeaderSize:], g.Bytes())
	return out
}
