// mrc.go holds the shared types and header layout for the MRC2014 codec.

// Package mrc reads and writes MRC2014 image stacks. Reading accepts the
// modes cryo-EM pipelines emit (signed 8/16-bit integers, unsigned 16-bit
// integers, 32-bit floats) and normalizes every frame to float32; writing
// always emits mode 2 (float32), which is what Relion expects downstream.
package mrc

import "fmt"

// Frame is a single 2D image, row-major, normalized to float32.
type Frame struct {
	Width  int
	Height int
	Pixels []float32
}

// Stack is an ordered sequence of frames sharing one geometry.
type Stack struct {
	Frames []Frame
}

// Header layout per the MRC2014 standard. All integer and float fields are
// little-endian; the fixed header is 1024 bytes, optionally followed by
// nsymbt bytes of extended header before the voxel data.
const (
	headerSize = 1024

	offNX     = 0
	offNY     = 4
	offNZ     = 8
	offMode   = 12
	offMX     = 28
	offMY     = 32
	offMZ     = 36
	offCellA  = 40
	offCellB  = 52
	offMapC   = 64
	offMapR   = 68
	offMapS   = 72
	offDMin   = 76
	offDMax   = 80
	offDMean  = 84
	offISPG   = 88
	offNSymBT = 92
	offMap    = 208
	offMachSt = 212
	offRMS    = 216
	offNLabl  = 220
	offLabels = 224

	labelSize = 80

	// maxFrameBytes bounds what a single frame declared by a header may
	// allocate: 1 GiB covers a 16384x16384 float32 image.
	maxFrameBytes = 1 << 30
)

// Data modes used in practice. Compressed and complex modes are out of scope.
const (
	ModeInt8    = 0
	ModeInt16   = 1
	ModeFloat32 = 2
	ModeUint16  = 6
)

func bytesPerVoxel(mode int32) (int, error) {
	switch mode {
	case ModeInt8:
		return 1, nil
	case ModeInt16, ModeUint16:
		return 2, nil
	case ModeFloat32:
		return 4, nil
	default:
		return 0, fmt.Errorf("unsupported MRC data mode %d", mode)
	}
}
