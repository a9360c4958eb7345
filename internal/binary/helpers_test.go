package binary

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"       //nolint:staticcheck
	"github.com/ProtonMail/go-crypto/openpgp/armor" //nolint:staticcheck
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// entry is one member of a test archive.
type entry struct {
	name     string
	content  string
	mode     int64
	typeflag byte
	linkname string
}

func file(name, content string) entry {
	return entry{name: name, content: content, mode: 0o644, typeflag: tar.TypeReg}
}

// llvmArchive mimics the layout of an LLVM release tarball.
func llvmArchive() []entry {
	const root = "clang+llvm-17.0.6-x86_64-linux-gnu/"
	return []entry{
		{name: root, mode: 0o755, typeflag: tar.TypeDir},
		{name: root + "bin/", mode: 0o755, typeflag: tar.TypeDir},
		{name: root + "bin/clang", content: "clang binary", mode: 0o755, typeflag: tar.TypeReg},
		{name: root + "bin/clang-format", content: "clang-format binary", mode: 0o644, typeflag: tar.TypeReg},
		{name: root + "bin/git-clang-format", content: "#!/usr/bin/env python3", mode: 0o640, typeflag: tar.TypeReg},
		{name: root + "bin/clang-tidy", content: "clang-tidy binary", mode: 0o755, typeflag: tar.TypeReg},
		{name: root + "bin/clang++", mode: 0o777, typeflag: tar.TypeSymlink, linkname: "clang"},
		{name: root + "lib/libclang.so", content: "library", mode: 0o644, typeflag: tar.TypeReg},
	}
}

// makeTar builds an uncompressed tar archive.
func makeTar(t *testing.T, entries []entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	tarWriter := tar.NewWriter(&buf)
	for _, e := range entries {
		header := &tar.Header{
			Name:     e.name,
			Mode:     e.mode,
			Size:     int64(len(e.content)),
			Typeflag: e.typeflag,
			Linkname: e.linkname,
		}
		if e.typeflag != tar.TypeReg {
			header.Size = 0
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			t.Fatalf("failed to write header for %s: %v", e.name, err)
		}
		if header.Size > 0 {
			if _, err := tarWriter.Write([]byte(e.content)); err != nil {
				t.Fatalf("failed to write content for %s: %v", e.name, err)
			}
		}
	}
	if err := tarWriter.Close(); err != nil {
		t.Fatalf("failed to close tar writer: %v", err)
	}
	return buf.Bytes()
}

// compress encodes data with the given compression.
func compress(t *testing.T, compression Compression, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch compression {
	case CompressionXZ:
		w, err = xz.NewWriter(&buf)
	case CompressionGzip:
		w = gzip.NewWriter(&buf)
	case CompressionZstd:
		w, err = zstd.NewWriter(&buf)
	case CompressionLZ4:
		w = lz4.NewWriter(&buf)
	case CompressionNone:
		return data
	default:
		t.Fatalf("unknown compression %s", compression)
	}
	if err != nil {
		t.Fatalf("failed to create %s writer: %v", compression, err)
	}

	if _, err := w.Write(data); err != nil {
		t.Fatalf("failed to compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close %s writer: %v", compression, err)
	}
	return buf.Bytes()
}

// makeTarXZ builds an xz compressed tar archive.
func makeTarXZ(t *testing.T, entries []entry) []byte {
	t.Helper()
	return compress(t, CompressionXZ, makeTar(t, entries))
}

// newSigner generates a fresh OpenPGP key pair.
func newSigner(t *testing.T) *openpgp.Entity {
	t.Helper()
	entity, err := openpgp.NewEntity("Release Signer", "test", "release@example.com", nil)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return entity
}

// detachSign returns a binary detached signature of data.
func detachSign(t *testing.T, signer *openpgp.Entity, data []byte) []byte {
	t.Helper()
	var sig bytes.Buffer
	if err := openpgp.DetachSign(&sig, signer, bytes.NewReader(data), nil); err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	return sig.Bytes()
}

// armoredPublicKey exports the public part of entity, armored.
func armoredPublicKey(t *testing.T, entity *openpgp.Entity) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("failed to create armor encoder: %v", err)
	}
	if err := entity.Serialize(w); err != nil {
		t.Fatalf("failed to serialize key: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close armor encoder: %v", err)
	}
	return buf.Bytes()
}

// armorSignature wraps a binary signature in ASCII armor.
func armorSignature(t *testing.T, sig []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.SignatureType, nil)
	if err != nil {
		t.Fatalf("failed to create armor encoder: %v", err)
	}
	if _, err := w.Write(sig); err != nil {
		t.Fatalf("failed to write signature: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close armor encoder: %v", err)
	}
	return buf.Bytes()
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// staticKeys is a KeyLookup returning a fixed keyring.
type staticKeys struct {
	keyring openpgp.EntityList
	calls   int
}

func (s *staticKeys) Lookup(_ context.Context, keyID uint64, fingerprint []byte) (openpgp.EntityList, error) {
	s.calls++
	return s.keyring, nil
}
