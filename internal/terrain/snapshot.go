package terrain

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	gomath "math"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Snapshot file layout: a raw header (magic, version, width, height as
// little-endian uint32) followed by a zstd stream of little-endian float32
// heights in row-major order. Normals are derived and never stored.
const (
	snapshotMagic   = "TEHF"
	snapshotVersion = 1

	// maxSnapshotDim matches the largest resolution the editor accepts.
	maxSnapshotDim = 1 << 14

	// Heights are read into a buffer that starts at this many texels and
	// grows with the data actually present, so a header alone cannot force
	// a large allocation.
	snapshotChunk = 1 << 16
)

// ErrBadSnapshot is returned for files that are not height snapshots.
var ErrBadSnapshot = errors.New("terrain: bad snapshot")

type snapshotHeader struct {
	Magic   [4]byte
	Version uint32
	Width   uint32
	Height  uint32
}

// WriteSnapshot encodes h to w.
func WriteSnapshot(w io.Writer, h *Heightfield) error {
	hdr := snapshotHeader{
		Version: snapshotVersion,
		Width:   uint32(h.width),
		Height:  uint32(h.height),
	}
	copy(hdr.Magic[:], snapshotMagic)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	var buf [4]byte
	for _, v := range h.data {
		binary.LittleEndian.PutUint32(buf[:], gomath.Float32bits(v))
		if _, err := bw.Write(buf[:]); err != nil {
			enc.Close()
			return fmt.Errorf("write heights: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return fmt.Errorf("flush heights: %w", err)
	}
	return enc.Close()
}

// ReadSnapshot decodes a heightfield written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Heightfield, error) {
	var hdr snapshotHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrBadSnapshot, err)
	}
	if string(hdr.Magic[:]) != snapshotMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadSnapshot, hdr.Magic[:])
	}
	if hdr.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, hdr.Version)
	}
	if hdr.Width == 0 || hdr.Height == 0 || hdr.Width > maxSnapshotDim || hdr.Height > maxSnapshotDim {
		return nil, fmt.Errorf("%w: size %dx%d", ErrBadSnapshot, hdr.Width, hdr.Height)
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	n := int(hdr.Width) * int(hdr.Height)
	data := make([]float32, 0, min(n, snapshotChunk))
	br := bufio.NewReaderSize(dec, 256*1024)
	var buf [4]byte
	for len(data) < n {
		if _, err := io.ReadFull(br, buf[:]); err != nil {
			return nil, fmt.Errorf("%w: heights: %d of %d texels: %v", ErrBadSnapshot, len(data), n, err)
		}
		data = append(data, gomath.Float32frombits(binary.LittleEndian.Uint32(buf[:])))
	}

	return &Heightfield{
		name:   "heights",
		width:  int(hdr.Width),
		height: int(hdr.Height),
		data:   data,
	}, nil
}

// SaveSnapshot writes h to path, creating parent directories. The data goes
// to a temporary file first and replaces path only once fully written.
func SaveSnapshot(path string, h *Heightfield) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := WriteSnapshot(f, h); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a heightfield from path.
func LoadSnapshot(path string) (*Heightfield, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSnapshot(f)
}
