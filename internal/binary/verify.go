package binary

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"        //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/ProtonMail/go-crypto/openpgp/armor"  //nolint:staticcheck
	"github.com/ProtonMail/go-crypto/openpgp/packet" //nolint:staticcheck

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/fault"
)

// Verifier handles cryptographic verification of archives
type Verifier struct {
	keys       KeyLookup
	downloader *Downloader
	logger     *slog.Logger
}

// NewVerifier creates a new verifier
func NewVerifier(keys KeyLookup, downloader *Downloader, logger *slog.Logger) *Verifier {
	return &Verifier{
		keys:       keys,
		downloader: downloader,
		logger:     orDiscard(logger),
	}
}

// Verify checks archive against the companion object at companionURL.
// The method is chosen from the companion's suffix: .sig and .asc are
// OpenPGP detached signatures, .sha256 is a checksum file. The archive is
// read from its start; its name is used to find the line of a checksum
// file listing several files.
func (v *Verifier) Verify(ctx context.Context, archive io.ReadSeeker, name, companionURL string) (VerificationMethod, string, error) {
	companion, err := v.downloader.Fetch(ctx, companionURL)
	if err != nil {
		return VerificationNone, "", err
	}

	if _, err := archive.Seek(0, io.SeekStart); err != nil {
		return VerificationNone, "", fmt.Errorf("rewind archive: %w", err)
	}

	switch ext := path.Ext(urlPath(companionURL)); ext {
	case ".sig", ".asc":
		signer, err := v.verifyGPG(ctx, archive, companion)
		if err != nil {
			return VerificationGPG, "", err
		}
		v.logger.Info("Signature verified", "archive", name, "signer", signer)
		return VerificationGPG, signer, nil

	case ".sha256":
		if err := verifySHA256(archive, companion, name); err != nil {
			return VerificationSHA256, "", err
		}
		v.logger.Info("Checksum verified", "archive", name)
		return VerificationSHA256, "", nil

	default:
		return VerificationNone, "", fault.Verification.New("unsupported companion %q", path.Base(urlPath(companionURL)))
	}
}

// verifyGPG verifies signed against a detached signature, armored or
// binary, and returns the signer's fingerprint.
func (v *Verifier) verifyGPG(ctx context.Context, signed io.Reader, signature []byte) (string, error) {
	if bytes.HasPrefix(bytes.TrimSpace(signature), []byte("-----BEGIN")) {
		block, err := armor.Decode(bytes.NewReader(signature))
		if err != nil {
			return "", fault.Verification.Wrap(fmt.Errorf("decode armored signature: %w", err))
		}
		raw, err := io.ReadAll(block.Body)
		if err != nil {
			return "", fault.Verification.Wrap(fmt.Errorf("decode armored signature: %w", err))
		}
		signature = raw
	}

	sig, err := issuer(signature)
	if err != nil {
		return "", err
	}

	var keyID uint64
	if sig.IssuerKeyId != nil {
		keyID = *sig.IssuerKeyId
	}
	keyring, err := v.keys.Lookup(ctx, keyID, sig.IssuerFingerprint)
	if err != nil {
		return "", err
	}

	// key and signature expiry are checked as of signing time
	created := sig.CreationTime
	cfg := &packet.Config{Time: func() time.Time { return created }}
	entity, err := openpgp.CheckDetachedSignature(keyring, signed, bytes.NewReader(signature), cfg)
	if err != nil {
		return "", fault.Verification.Wrap(fmt.Errorf("verify signature: %w", err))
	}

	return fmt.Sprintf("%X", entity.PrimaryKey.Fingerprint), nil
}

// issuer reads a binary signature packet and checks that it names the
// key that made it.
func issuer(signature []byte) (*packet.Signature, error) {
	p, err := packet.Read(bytes.NewReader(signature))
	if err != nil {
		return nil, fault.Verification.Wrap(fmt.Errorf("read signature: %w", err))
	}

	sig, ok := p.(*packet.Signature)
	if !ok {
		return nil, fault.Verification.New("read signature: unexpected packet %T", p)
	}

	if (sig.IssuerKeyId == nil || *sig.IssuerKeyId == 0) && len(sig.IssuerFingerprint) == 0 {
		return nil, fault.Verification.New("signature does not name its issuer")
	}
	return sig, nil
}

// verifySHA256 compares the archive digest with a checksum file.
func verifySHA256(archive io.Reader, checksums []byte, name string) error {
	hasher := sha256.New()
	if _, err := io.Copy(hasher, archive); err != nil {
		return fmt.Errorf("calculate checksum: %w", err)
	}
	actualChecksum := hex.EncodeToString(hasher.Sum(nil))

	expectedChecksum, err := findChecksum(checksums, name)
	if err != nil {
		return fault.Verification.Wrap(err)
	}

	// Compare checksums (case-insensitive)
	if !strings.EqualFold(actualChecksum, expectedChecksum) {
		return fault.Verification.New("checksum mismatch for %s:\nactual:   %s\nexpected: %s",
			name, actualChecksum, expectedChecksum)
	}
	return nil
}

// findChecksum finds the checksum for a specific filename in a checksum file.
// Lines have the form "abc123def456  filename.tar.xz"; a file holding a
// single bare digest applies to any name.
func findChecksum(checksums []byte, filename string) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(checksums))
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		switch len(parts) {
		case 0:
			continue
		case 1:
			return parts[0], nil
		}

		// "*" marks binary mode in sha256sum output
		checksumFilename := strings.TrimPrefix(parts[1], "*")
		if checksumFilename == filename || path.Base(checksumFilename) == filename {
			return parts[0], nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}

	return "", fmt.Errorf("checksum not found for %s", filename)
}

// urlPath returns the path component of a URL, or raw when it does not parse.
func urlPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}
