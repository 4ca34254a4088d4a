// writer.go encodes float32 frames as a mode-2 MRC stack.
package mrc

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// WriteStack writes frames to path as a mode-2 (float32) MRC stack. All
// frames must share one geometry; callers are expected to have verified that
// before getting here.
func WriteStack(path string, frames []Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create mrc file: %w", err)
	}
	w := bufio.NewWriterSize(f, 1<<20)
	if err := Encode(w, frames); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Encode writes one MRC stack to w.
func Encode(w io.Writer, frames []Frame) error {
	if len(frames) == 0 {
		return errors.New("no frames to write")
	}
	nx, ny := frames[0].Width, frames[0].Height
	for i, fr := range frames {
		if fr.Width != nx || fr.Height != ny {
			return fmt.Errorf("frame %d is %dx%d, want %dx%d", i+1, fr.Width, fr.Height, nx, ny)
		}
		if len(fr.Pixels) != nx*ny {
			return fmt.Errorf("frame %d has %d pixels, want %d", i+1, len(fr.Pixels), nx*ny)
		}
	}

	if _, err := w.Write(buildHeader(nx, ny, frames)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	buf := make([]byte, nx*ny*4)
	for i, fr := range frames {
		for j, p := range fr.Pixels {
			binary.LittleEndian.PutUint32(buf[4*j:], math.Float32bits(p))
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write frame %d: %w", i+1, err)
		}
	}
	return nil
}

func buildHeader(nx, ny int, frames []Frame) []byte {
	dmin, dmax, dmean, rms := stats(frames)

	h := make([]byte, headerSize)
	putInt := func(off, v int) { binary.LittleEndian.PutUint32(h[off:], uint32(int32(v))) }
	putFloat := func(off int, v float32) { binary.LittleEndian.PutUint32(h[off:], math.Float32bits(v)) }

	putInt(offNX, nx)
	putInt(offNY, ny)
	putInt(offNZ, len(frames))
	putInt(offMode, ModeFloat32)
	putInt(offMX, nx)
	putInt(offMY, ny)
	putInt(offMZ, len(frames))
	// Cell size in angstroms at a nominal 1.0 A/px; cell angles are 90.
	putFloat(offCellA, float32(nx))
	putFloat(offCellA+4, float32(ny))
	putFloat(offCellA+8, float32(len(frames)))
	putFloat(offCellB, 90)
	putFloat(offCellB+4, 90)
	putFloat(offCellB+8, 90)
	putInt(offMapC, 1)
	putInt(offMapR, 2)
	putInt(offMapS, 3)
	putFloat(offDMin, dmin)
	putFloat(offDMax, dmax)
	putFloat(offDMean, dmean)
	putInt(offISPG, 0) // image stack, not a volume
	putInt(offNSymBT, 0)
	copy(h[offMap:], "MAP ")
	// Little-endian machine stamp.
	h[offMachSt] = 0x44
	h[offMachSt+1] = 0x44
	putFloat(offRMS, rms)
	putInt(offNLabl, 1)
	label := make([]byte, labelSize)
	for i := range label {
		label[i] = ' '
	}
	copy(label, "Combined particle stack written by mrcstack")
	copy(h[offLabels:], label)
	return h
}

func stats(frames []Frame) (dmin, dmax, dmean, rms float32) {
	min := math.Inf(1)
	max := math.Inf(-1)
	var sum, sumSq float64
	var n int
	for _, fr := range frames {
		for _, p := range fr.Pixels {
			v := float64(p)
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
			sum += v
			sumSq += v * v
			n++
		}
	}
	if n == 0 {
		return 0, 0, 0, 0
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return float32(min), float32(max), float32(mean), float32(math.Sqrt(variance))
}
