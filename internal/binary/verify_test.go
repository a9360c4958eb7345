package binary

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"        //nolint:staticcheck
	"github.com/ProtonMail/go-crypto/openpgp/packet" //nolint:staticcheck

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/fault"
)

// companionServer serves fixed bodies by path.
func companionServer(t *testing.T, bodies map[string][]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifier_GPG(t *testing.T) {
	signer := newSigner(t)
	other := newSigner(t)
	archive := []byte("archive bytes")
	sig := detachSign(t, signer, archive)

	srv := companionServer(t, map[string][]byte{
		"/a.tar.xz.sig":        sig,
		"/a.tar.xz.asc":        armorSignature(t, sig),
		"/tampered.tar.xz.sig": sig,
		"/garbage.tar.xz.sig":  []byte("not a signature"),
	})

	tests := []struct {
		name    string
		archive []byte
		keyring openpgp.EntityList
		url     string
		wantErr bool
	}{
		{"binary_signature", archive, openpgp.EntityList{signer}, "/a.tar.xz.sig", false},
		{"armored_signature", archive, openpgp.EntityList{signer}, "/a.tar.xz.asc", false},
		{"tampered_archive", []byte("archive bytes!"), openpgp.EntityList{signer}, "/tampered.tar.xz.sig", true},
		{"wrong_key", archive, openpgp.EntityList{other}, "/a.tar.xz.sig", true},
		{"garbage_signature", archive, openpgp.EntityList{signer}, "/garbage.tar.xz.sig", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := &staticKeys{keyring: tt.keyring}
			verifier := NewVerifier(keys, NewDownloader(nil, nil), nil)

			method, signer, err := verifier.Verify(context.Background(), bytes.NewReader(tt.archive), "a.tar.xz", srv.URL+tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Verify() error = nil, want verification error")
				}
				if !fault.Verification.Has(err) {
					t.Errorf("error %v is not a verification error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if method != VerificationGPG {
				t.Errorf("method = %v, want GPG", method)
			}
			if signer == "" {
				t.Error("signer fingerprint should be reported")
			}
			if keys.calls != 1 {
				t.Errorf("key lookups = %d, want 1", keys.calls)
			}
		})
	}
}

func TestVerifier_GPG_ExpiredKey(t *testing.T) {
	created := time.Now().Add(-2 * 365 * 24 * time.Hour)
	keyConfig := &packet.Config{
		Time:            func() time.Time { return created },
		KeyLifetimeSecs: 365 * 24 * 60 * 60,
	}
	signer, err := openpgp.NewEntity("Release Signer", "expired", "release@example.com", keyConfig)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	archive := []byte("llvm 15 archive")
	signedAt := created.Add(24 * time.Hour)
	var sig bytes.Buffer
	signConfig := &packet.Config{Time: func() time.Time { return signedAt }}
	if err := openpgp.DetachSign(&sig, signer, bytes.NewReader(archive), signConfig); err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	verifier := NewVerifier(&staticKeys{keyring: openpgp.EntityList{signer}}, NewDownloader(nil, nil), nil)
	fingerprint, err := verifier.verifyGPG(context.Background(), bytes.NewReader(archive), sig.Bytes())
	if err != nil {
		t.Fatalf("verifyGPG() error = %v, want a signature made while the key was valid to verify", err)
	}
	if fingerprint == "" {
		t.Error("signer fingerprint should be reported")
	}
}

func TestVerifier_SHA256(t *testing.T) {
	archive := []byte("archive bytes")
	sum := sha256Hex(archive)

	srv := companionServer(t, map[string][]byte{
		"/bare.sha256":     []byte(sum + "\n"),
		"/listed.sha256":   []byte("0000  other.tar.xz\n" + strings.ToUpper(sum) + "  a.tar.xz\n"),
		"/binmode.sha256":  []byte(sum + " *a.tar.xz\n"),
		"/mismatch.sha256": []byte(sha256Hex([]byte("other")) + "  a.tar.xz\n"),
		"/absent.sha256":   []byte(sum + "  b.tar.xz\n"),
	})

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"bare_digest", "/bare.sha256", false},
		{"listed_uppercase", "/listed.sha256", false},
		{"binary_mode_marker", "/binmode.sha256", false},
		{"mismatch", "/mismatch.sha256", true},
		{"not_listed", "/absent.sha256", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := NewVerifier(nil, NewDownloader(nil, nil), nil)
			method, _, err := verifier.Verify(context.Background(), bytes.NewReader(archive), "a.tar.xz", srv.URL+tt.url)
			if tt.wantErr {
				if !fault.Verification.Has(err) {
					t.Errorf("Verify() error = %v, want verification error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if method != VerificationSHA256 {
				t.Errorf("method = %v, want SHA256", method)
			}
		})
	}
}

func TestVerifier_CompanionErrors(t *testing.T) {
	srv := companionServer(t, map[string][]byte{"/a.tar.xz.txt": []byte("x")})
	verifier := NewVerifier(nil, NewDownloader(nil, nil), nil)

	_, _, err := verifier.Verify(context.Background(), bytes.NewReader(nil), "a.tar.xz", srv.URL+"/missing.sig")
	if !fault.Network.Has(err) {
		t.Errorf("missing companion: error = %v, want network error", err)
	}

	_, _, err = verifier.Verify(context.Background(), bytes.NewReader(nil), "a.tar.xz", srv.URL+"/a.tar.xz.txt")
	if !fault.Verification.Has(err) {
		t.Errorf("unknown companion: error = %v, want verification error", err)
	}
}

func TestVerificationMethod_String(t *testing.T) {
	tests := []struct {
		method VerificationMethod
		want   string
	}{
		{VerificationNone, "None"},
		{VerificationGPG, "GPG"},
		{VerificationSHA256, "SHA256"},
		{VerificationMethod(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.method.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
