// Package snapshot persists catalog exports to object storage and restores them.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"
	"github.com/spaolacci/murmur3"

	serrors "github.com/arkilian/sindex/internal/errors"
	"github.com/arkilian/sindex/internal/manifest"
)

// Snapshot object layout:
//   - 4 bytes: magic "SIDX"
//   - 2 bytes: format version (uint16, little-endian)
//   - 2 bytes: reserved
//   - 4 bytes: murmur3 32-bit checksum of the body (uint32, little-endian)
//   - remaining: snappy-compressed JSON of manifest.Snapshot
const (
	magic         = "SIDX"
	formatVersion = 1
	headerSize    = 12
)

// Encode serializes a catalog snapshot into the object format.
func Encode(snap *manifest.Snapshot) ([]byte, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("snapshot: failed to marshal catalog: %w", err)
	}
	body := snappy.Encode(nil, payload)

	buf := make([]byte, headerSize+len(body))
	copy(buf[0:4], magic)
	binary.LittleEndian.PutUint16(buf[4:6], formatVersion)
	binary.LittleEndian.PutUint32(buf[8:12], murmur3.Sum32(body))
	copy(buf[headerSize:], body)
	return buf, nil
}

// Decode verifies and deserializes an object produced by Encode.
// Any structural or checksum failure is reported as SNAPSHOT_CORRUPT.
func Decode(data []byte) (*manifest.Snapshot, error) {
	if len(data) < headerSize || !bytes.Equal(data[0:4], []byte(magic)) {
		return nil, corrupt("missing snapshot header", nil)
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != formatVersion {
		return nil, corrupt(fmt.Sprintf("unsupported format version %d", v), nil)
	}

	body := data[headerSize:]
	want := binary.LittleEndian.Uint32(data[8:12])
	if got := murmur3.Sum32(body); got != want {
		return nil, corrupt(fmt.Sprintf("checksum mismatch: got %08x, want %08x", got, want), nil)
	}

	payload, err := snappy.Decode(nil, body)
	if err != nil {
		return nil, corrupt("failed to decompress body", err)
	}

	var snap manifest.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, corrupt("failed to unmarshal catalog", err)
	}
	return &snap, nil
}

func corrupt(message string, cause error) *serrors.Error {
	return serrors.Wrap(serrors.ErrCategoryStorage, serrors.CodeSnapshotCorrupt, message, cause)
}
