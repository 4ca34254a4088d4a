// reader.go decodes MRC stacks into normalized float32 frames.
package mrc

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// ReadStack reads the MRC file at path. A 2D image (nz == 1) comes back as a
// one-frame stack. The whole file is read before returning; the descriptor
// is not retained.
func ReadStack(path string) (*Stack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mrc file: %w", err)
	}
	defer f.Close()

	stack, err := Decode(bufio.NewReaderSize(f, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return stack, nil
}

// Decode reads one MRC stack from r.
func Decode(r io.Reader) (*Stack, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	nx := int32(binary.LittleEndian.Uint32(header[offNX:]))
	ny := int32(binary.LittleEndian.Uint32(header[offNY:]))
	nz := int32(binary.LittleEndian.Uint32(header[offNZ:]))
	mode := int32(binary.LittleEndian.Uint32(header[offMode:]))
	nsymbt := int32(binary.LittleEndian.Uint32(header[offNSymBT:]))

	// Pre-2014 files may lack the MAP magic, so sane dimensions are the real
	// gate; the magic is only rejected when present and wrong.
	if magic := string(header[offMap : offMap+4]); magic != "MAP " && magic != "\x00\x00\x00\x00" {
		return nil, fmt.Errorf("bad magic %q, not an MRC file", magic)
	}
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%dx%d", nx, ny, nz)
	}
	voxelBytes, err := bytesPerVoxel(mode)
	if err != nil {
		return nil, err
	}
	if nsymbt < 0 {
		return nil, fmt.Errorf("negative extended header size %d", nsymbt)
	}
	if nsymbt > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(nsymbt)); err != nil {
			return nil, fmt.Errorf("skip extended header: %w", err)
		}
	}

	frameVoxels := int(nx) * int(ny)
	frameBytes := int64(frameVoxels) * int64(voxelBytes)
	// A corrupt header must fail cleanly, not drive a giant allocation. The
	// cap still admits a 16k x 16k float32 frame.
	if frameBytes > maxFrameBytes {
		return nil, fmt.Errorf("declared frame size %d bytes (%dx%d mode %d) exceeds the %d byte limit",
			frameBytes, nx, ny, mode, int64(maxFrameBytes))
	}
	raw := make([]byte, frameVoxels*voxelBytes)
	frames := make([]Frame, 0, nz)
	for z := int32(0); z < nz; z++ {
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("read frame %d of %d: %w", z+1, nz, err)
		}
		pixels := make([]float32, frameVoxels)
		switch mode {
		case ModeInt8:
			for i, b := range raw {
				pixels[i] = float32(int8(b))
			}
		case ModeInt16:
			for i := range pixels {
				pixels[i] = float32(int16(binary.LittleEndian.Uint16(raw[2*i:])))
			}
		case ModeUint16:
			for i := range pixels {
				pixels[i] = float32(binary.LittleEndian.Uint16(raw[2*i:]))
			}
		case ModeFloat32:
			for i := range pixels {
				pixels[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
			}
		}
		frames = append(frames, Frame{Width: int(nx), Height: int(ny), Pixels: pixels})
	}
	return &Stack{Frames: frames}, nil
}
