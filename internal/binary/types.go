package binary

import (
	"fmt"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/fault"
)

// Mode selects how the archive is buffered during extraction.
type Mode int

const (
	// ModeTempFile downloads the archive to a temporary file.
	ModeTempFile Mode = iota
	// ModeRAMFile downloads the archive into memory.
	ModeRAMFile
	// ModeStream extracts straight from the download, without verification.
	ModeStream
)

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case ModeTempFile:
		return "tempfile"
	case ModeRAMFile:
		return "ramfile"
	case ModeStream:
		return "stream"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Buffered reports whether the mode keeps the whole archive, which is
// required for verification.
func (m Mode) Buffered() bool {
	return m == ModeTempFile || m == ModeRAMFile
}

// Modes lists the valid mode names.
var Modes = []string{ModeTempFile.String(), ModeRAMFile.String(), ModeStream.String()}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tempfile":
		return ModeTempFile, nil
	case "ramfile":
		return ModeRAMFile, nil
	case "stream":
		return ModeStream, nil
	default:
		return 0, fault.Configuration.New("unknown extraction mode %q (want one of %s)", s, strings.Join(Modes, ", "))
	}
}

// VerificationMethod indicates how an archive was verified
type VerificationMethod int

const (
	// VerificationNone indicates verification was disabled
	VerificationNone VerificationMethod = iota
	// VerificationGPG indicates OpenPGP signature verification was used
	VerificationGPG
	// VerificationSHA256 indicates SHA256 checksum verification was used
	VerificationSHA256
)

// String returns the string representation of the verification method
func (v VerificationMethod) String() string {
	switch v {
	case VerificationGPG:
		return "GPG"
	case VerificationSHA256:
		return "SHA256"
	case VerificationNone:
		return "None"
	default:
		return "Unknown"
	}
}

// Result describes a completed retrieval.
type Result struct {
	Files    []string // absolute paths of the extracted tools
	Verified VerificationMethod
	Signer   string // key fingerprint, set for VerificationGPG
	Duration time.Duration
}
