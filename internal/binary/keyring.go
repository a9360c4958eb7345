package binary

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/fault"
)

// DefaultKeyServer is the VKS endpoint of keys.openpgp.org.
const DefaultKeyServer = "https://keys.openpgp.org/vks/v1"

// KeyLookup resolves the public key that issued a signature.
type KeyLookup interface {
	Lookup(ctx context.Context, keyID uint64, fingerprint []byte) (openpgp.EntityList, error)
}

// KeyServer looks keys up through the Verifying Key Service HTTP API.
type KeyServer struct {
	baseURL    string
	downloader *Downloader
}

// NewKeyServer creates a KeyServer rooted at baseURL,
// e.g. https://keys.openpgp.org/vks/v1.
func NewKeyServer(baseURL string, downloader *Downloader) *KeyServer {
	if baseURL == "" {
		baseURL = DefaultKeyServer
	}
	return &KeyServer{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		downloader: downloader,
	}
}

// Lookup fetches the key by fingerprint when the signature carries one,
// by key ID otherwise.
func (k *KeyServer) Lookup(ctx context.Context, keyID uint64, fingerprint []byte) (openpgp.EntityList, error) {
	var u string
	if len(fingerprint) > 0 {
		u = fmt.Sprintf("%s/by-fingerprint/%s", k.baseURL, url.PathEscape(fmt.Sprintf("%X", fingerprint)))
	} else {
		u = fmt.Sprintf("%s/by-keyid/%016X", k.baseURL, keyID)
	}

	data, err := k.downloader.Fetch(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("look up key %016X: %w", keyID, err)
	}

	keyring, err := readKeyring(data)
	if err != nil {
		return nil, fault.Verification.Wrap(fmt.Errorf("key %016X: %w", keyID, err))
	}
	return keyring, nil
}

// Keyring serves keys from a local keyring file, armored or binary.
type Keyring struct {
	Path string
}

// Lookup returns every key of the keyring; the signature check picks the
// issuer.
func (k Keyring) Lookup(ctx context.Context, keyID uint64, fingerprint []byte) (openpgp.EntityList, error) {
	data, err := os.ReadFile(k.Path)
	if err != nil {
		return nil, fault.Configuration.Wrap(fmt.Errorf("open keyring: %w", err))
	}

	keyring, err := readKeyring(data)
	if err != nil {
		return nil, fault.Verification.Wrap(fmt.Errorf("keyring %s: %w", k.Path, err))
	}
	return keyring, nil
}

// readKeyring parses an armored keyring, falling back to binary packets.
func readKeyring(data []byte) (openpgp.EntityList, error) {
	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}
