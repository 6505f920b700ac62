// SPDX-License-Identifier: MPL-2.0

package taskgraph

import (
	"encoding/hex"
	"errors"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/zeebo/blake3"
)

// Fingerprint is a 32-byte BLAKE3 digest of a step's inputs or outputs.
type Fingerprint [32]byte

type domainKey [32]byte

// Domain separation keys keep input and output digests of identical bytes
// distinct. Changing them invalidates every recorded history entry.
var (
	inputDomainKey = domainKey{
		't', 'y', 'p', 'e', 's', 'a', 'f', 'e', '.', 's', 't', 'e', 'p', '.',
		'i', 'n', 'p', 'u', 't', 's', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	outputDomainKey = domainKey{
		't', 'y', 'p', 'e', 's', 'a', 'f', 'e', '.', 's', 't', 'e', 'p', '.',
		'o', 'u', 't', 'p', 'u', 't', 's', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// String returns the hex form.
func (f Fingerprint) String() string { return hex.EncodeToString(f[:]) }

func newHasher(key domainKey) *blake3.Hasher {
	// NewKeyed only fails for a key that is not 32 bytes long.
	h, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("taskgraph: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return h
}

func sum(h *blake3.Hasher) Fingerprint {
	var f Fingerprint
	copy(f[:], h.Sum(nil))
	return f
}

// writeField writes a length-prefixed field so that concatenations of
// different fields can never collide.
func writeField(h *blake3.Hasher, data []byte) {
	h.Write([]byte(strconv.Itoa(len(data)) + ":")) //nolint:errcheck // hash writes never fail
	h.Write(data)                                  //nolint:errcheck // hash writes never fail
}

// inputFingerprint digests the step's input values and the content of its
// input files.
func inputFingerprint(s *Step) (Fingerprint, error) {
	h := newHasher(inputDomainKey)
	for _, key := range slices.Sorted(maps.Keys(s.inputValues)) {
		writeField(h, []byte("value"))
		writeField(h, []byte(key))
		writeField(h, s.inputValues[key])
	}
	if err := hashPaths(h, s.inputFiles); err != nil {
		return Fingerprint{}, err
	}
	return sum(h), nil
}

// outputFingerprint digests what is currently on disk at the step's outputs.
func outputFingerprint(s *Step) (Fingerprint, error) {
	h := newHasher(outputDomainKey)
	if err := hashPaths(h, s.outputs); err != nil {
		return Fingerprint{}, err
	}
	return sum(h), nil
}

// hashPaths digests every regular file under paths, in a stable order. A
// missing path contributes a marker so that deleting an output is a change.
func hashPaths(h *blake3.Hasher, paths []string) error {
	for _, root := range slices.Sorted(slices.Values(paths)) {
		writeField(h, []byte(filepath.ToSlash(root)))
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			writeField(h, []byte(filepath.ToSlash(rel)))
			writeField(h, data)
			return nil
		})
		if errors.Is(err, fs.ErrNotExist) {
			writeField(h, []byte("<missing>"))
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
