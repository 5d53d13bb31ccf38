package offsets

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/roach88/colscan/internal/column"
)

// SidecarExt is the extension of cached offset tables.
const SidecarExt = ".idx"

var sidecarMagic = [4]byte{'C', 'S', 'X', '1'}

// ErrStaleSidecar is returned by LoadSidecar when the cached table no longer
// describes the column file.
var ErrStaleSidecar = errors.New("offset sidecar is stale")

// sidecarHeader identifies the column file a sidecar was built from.
type sidecarHeader struct {
	Magic   [4]byte
	Size    int64
	ModTime int64
	Count   uint64
}

// SidecarPath returns the sidecar path for a column file.
func SidecarPath(columnPath string) string {
	return strings.TrimSuffix(columnPath, filepath.Ext(columnPath)) + SidecarExt
}

// SaveSidecar writes t next to its column file. Offsets are stored as
// uvarint deltas inside a zstd stream.
func SaveSidecar(t *Table, columnPath string) error {
	info, err := os.Stat(columnPath)
	if err != nil {
		return fmt.Errorf("stat column file: %w", err)
	}

	tmp := SidecarPath(columnPath) + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create sidecar: %w", err)
	}
	defer os.Remove(tmp)

	if err := writeSidecar(f, t, info); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close sidecar: %w", err)
	}
	return os.Rename(tmp, SidecarPath(columnPath))
}

func writeSidecar(w io.Writer, t *Table, info os.FileInfo) error {
	hdr := sidecarHeader{
		Magic:   sidecarMagic,
		Size:    info.Size(),
		ModTime: info.ModTime().UnixNano(),
		Count:   uint64(len(t.offsets)),
	}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("write sidecar header: %w", err)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	bw := bufio.NewWriter(enc)
	var buf [binary.MaxVarintLen64]byte
	var prev int64
	for _, off := range t.offsets {
		n := binary.PutUvarint(buf[:], uint64(off-prev))
		if _, err := bw.Write(buf[:n]); err != nil {
			enc.Close()
			return fmt.Errorf("write sidecar body: %w", err)
		}
		prev = off
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return fmt.Errorf("flush sidecar body: %w", err)
	}
	return enc.Close()
}

// LoadSidecar reads a cached table for the column file. It returns
// ErrStaleSidecar when the column file changed since the sidecar was written
// or the sidecar content is inconsistent.
func LoadSidecar(col column.Name, columnPath string) (*Table, error) {
	info, err := os.Stat(columnPath)
	if err != nil {
		return nil, column.NewIOError(col, err)
	}

	f, err := os.Open(SidecarPath(columnPath))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var hdr sidecarHeader
	if err := binary.Read(f, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrStaleSidecar, err)
	}
	if hdr.Magic != sidecarMagic || hdr.Size != info.Size() || hdr.ModTime != info.ModTime().UnixNano() {
		return nil, ErrStaleSidecar
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	br := bufio.NewReader(dec)
	offsets := make([]int64, 0, hdr.Count)
	var pos int64
	for i := uint64(0); i < hdr.Count; i++ {
		delta, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrStaleSidecar, i, err)
		}
		if (i == 0 && delta != 0) || (i > 0 && delta == 0) {
			return nil, fmt.Errorf("%w: entry %d not increasing", ErrStaleSidecar, i)
		}
		pos += int64(delta)
		offsets = append(offsets, pos)
	}
	if len(offsets) > 0 && offsets[len(offsets)-1] >= info.Size() {
		return nil, fmt.Errorf("%w: offset past end of file", ErrStaleSidecar)
	}

	return &Table{column: col, offsets: offsets}, nil
}
