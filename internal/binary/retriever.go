package binary

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/fault"
)

// Options describes one retrieval.
type Options struct {
	Mode   Mode
	Verify bool

	ArchiveURL   string
	CompanionURL string // signature or checksum, may be empty when Verify is false

	// Paths inside the archive, relative to its top level directory.
	Paths     []string
	OutputDir string
}

// Validate checks the options before any download starts.
func (o Options) Validate() error {
	if o.Verify && !o.Mode.Buffered() {
		return fault.Configuration.New("%s mode cannot verify signatures; use --unsigned or another extraction mode", o.Mode)
	}
	if o.Verify && o.CompanionURL == "" {
		return fault.Verification.New("no signature or checksum published for %s", path.Base(urlPath(o.ArchiveURL)))
	}
	if o.ArchiveURL == "" {
		return fault.Configuration.New("archive url is required")
	}
	if len(o.Paths) == 0 {
		return fault.Configuration.New("no archive paths requested")
	}

	info, err := os.Stat(o.OutputDir)
	if err != nil {
		return fault.Configuration.Wrap(fmt.Errorf("output directory: %w", err))
	}
	if !info.IsDir() {
		return fault.Configuration.New("output directory %s is not a directory", o.OutputDir)
	}
	return nil
}

// Retriever orchestrates download, verification, extraction and
// permission fixup of a release archive.
type Retriever struct {
	downloader *Downloader
	verifier   *Verifier
	extractor  *Extractor
	logger     *slog.Logger
}

// NewRetriever creates a retriever. keys may be nil when verification is
// never requested.
func NewRetriever(downloader *Downloader, keys KeyLookup, logger *slog.Logger) *Retriever {
	logger = orDiscard(logger)
	return &Retriever{
		downloader: downloader,
		verifier:   NewVerifier(keys, downloader, logger),
		extractor:  NewExtractor(logger),
		logger:     logger,
	}
}

// Retrieve downloads the archive, verifies it when requested and extracts
// the requested paths into the output directory. No extraction happens
// when verification fails. Transient storage is released on every path.
func (r *Retriever) Retrieve(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Verify && r.verifier.keys == nil {
		return nil, fault.Configuration.New("verification requested without a key source")
	}

	outputDir, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return nil, fault.Configuration.Wrap(fmt.Errorf("output directory: %w", err))
	}
	opts.OutputDir = outputDir

	start := time.Now()
	name := path.Base(urlPath(opts.ArchiveURL))
	r.logger.Info("Retrieving archive", "archive", name, "mode", opts.Mode.String())

	var result *Result
	switch opts.Mode {
	case ModeTempFile:
		result, err = r.viaTempFile(ctx, name, opts)
	case ModeRAMFile:
		result, err = r.viaMemory(ctx, name, opts)
	case ModeStream:
		result, err = r.viaStream(ctx, name, opts)
	default:
		err = fault.Configuration.New("unknown extraction mode %s", opts.Mode)
	}
	if err != nil {
		return nil, err
	}

	for _, f := range result.Files {
		if err := SetExecutable(f); err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (r *Retriever) viaTempFile(ctx context.Context, name string, opts Options) (*Result, error) {
	tmpFile, err := os.CreateTemp("", "clang-toolbox-*.tar")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	if _, err := r.downloader.CopyTo(ctx, opts.ArchiveURL, tmpFile); err != nil {
		return nil, err
	}
	return r.verifyAndExtract(ctx, tmpFile, name, opts)
}

func (r *Retriever) viaMemory(ctx context.Context, name string, opts Options) (*Result, error) {
	var buf bytes.Buffer
	if _, err := r.downloader.CopyTo(ctx, opts.ArchiveURL, &buf); err != nil {
		return nil, err
	}
	return r.verifyAndExtract(ctx, bytes.NewReader(buf.Bytes()), name, opts)
}

func (r *Retriever) viaStream(ctx context.Context, name string, opts Options) (*Result, error) {
	body, size, err := r.downloader.Open(ctx, opts.ArchiveURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	stream, done := r.downloader.progress(body, size, name)
	defer done()

	files, err := r.extractor.Extract(stream, opts.Paths, opts.OutputDir)
	if err != nil {
		return nil, err
	}
	return &Result{Files: files, Verified: VerificationNone}, nil
}

// verifyAndExtract runs on a fully downloaded archive.
func (r *Retriever) verifyAndExtract(ctx context.Context, archive io.ReadSeeker, name string, opts Options) (*Result, error) {
	result := &Result{Verified: VerificationNone}

	if opts.Verify {
		method, signer, err := r.verifier.Verify(ctx, archive, name, opts.CompanionURL)
		if err != nil {
			return nil, err
		}
		result.Verified = method
		result.Signer = signer
	} else {
		r.logger.Warn("Skipping verification", "archive", name)
	}

	if _, err := archive.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind archive: %w", err)
	}

	files, err := r.extractor.Extract(archive, opts.Paths, opts.OutputDir)
	if err != nil {
		return nil, err
	}
	result.Files = files
	return result, nil
}
