// Package service provides the high-level operations of clang-toolbox.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/binary"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/chooser"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/fault"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/platform"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/release"
)

// ReleaseSource lists the releases of the feed, newest first.
type ReleaseSource interface {
	Fetch(ctx context.Context) ([]release.Release, error)
}

// ArchiveRetriever downloads an archive and extracts entries from it.
type ArchiveRetriever interface {
	Retrieve(ctx context.Context, opts binary.Options) (*binary.Result, error)
}

// InstallService orchestrates the install operation: fetch the release
// list, select and choose a build, then retrieve the requested tools.
type InstallService struct {
	source    ReleaseSource
	detector  platform.Detector
	chooser   chooser.Chooser
	retriever ArchiveRetriever
	clock     Clock
	logger    *slog.Logger

	// TagPrefix and ProductPrefix override the selector defaults when set.
	TagPrefix     string
	ProductPrefix string
}

// NewInstallService creates a new install service with dependency injection.
func NewInstallService(
	source ReleaseSource,
	detector platform.Detector,
	choose chooser.Chooser,
	retriever ArchiveRetriever,
	clock Clock,
	logger *slog.Logger,
) *InstallService {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &InstallService{
		source:    source,
		detector:  detector,
		chooser:   choose,
		retriever: retriever,
		clock:     clock,
		logger:    logger,
	}
}

// InstallRequest contains the parameters of an install.
type InstallRequest struct {
	// Target is the minimum release version, nil for the newest major.
	Target *semver.Version
	// Paths are the in-archive paths to extract.
	Paths     []string
	Mode      binary.Mode
	Verify    bool
	OutputDir string
	// ResolveOnly stops after the build is chosen.
	ResolveOnly bool
}

// Resolution is the build an install settled on.
type Resolution struct {
	Platform  *platform.Info
	Target    *semver.Version
	Candidate release.Candidate
}

// InstallResult contains the results of the install operation.
type InstallResult struct {
	Resolution
	// Retrieved is nil when the request only resolved the build.
	Retrieved *binary.Result
	Elapsed   time.Duration
}

// Install runs the whole pipeline. Every failure aborts the run.
func (s *InstallService) Install(ctx context.Context, req InstallRequest) (*InstallResult, error) {
	start := s.clock.Now()

	if req.Verify && !req.Mode.Buffered() {
		return nil, fault.Configuration.New("%s mode cannot verify signatures", req.Mode)
	}

	res, err := s.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &InstallResult{Resolution: *res}
	if req.ResolveOnly {
		result.Elapsed = s.clock.Now().Sub(start)
		return result, nil
	}

	// Check context before downloading
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := binary.Options{
		Mode:       req.Mode,
		Verify:     req.Verify,
		ArchiveURL: res.Candidate.Archive.URL,
		Paths:      req.Paths,
		OutputDir:  req.OutputDir,
	}
	if res.Candidate.Companion != nil {
		opts.CompanionURL = res.Candidate.Companion.URL
	}

	retrieved, err := s.retriever.Retrieve(ctx, opts)
	if err != nil {
		return nil, err
	}

	result.Retrieved = retrieved
	result.Elapsed = s.clock.Now().Sub(start)
	return result, nil
}

// Resolve fetches the release list and chooses a build without
// downloading it.
func (s *InstallService) Resolve(ctx context.Context, req InstallRequest) (*Resolution, error) {
	info := s.detectPlatform(ctx)

	releases, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Fetched release list", "releases", len(releases))

	selector := release.NewSelector(info, s.logger)
	if s.TagPrefix != "" {
		selector.TagPrefix = s.TagPrefix
	}
	if s.ProductPrefix != "" {
		selector.ProductPrefix = s.ProductPrefix
	}

	sel, err := selector.Select(releases, req.Target)
	if err != nil {
		return nil, err
	}
	if sel.Empty() {
		return nil, chooser.ErrNoBuild
	}
	s.logger.Info("Found candidate builds", "target", sel.Target, "candidates", len(sel.Candidates))

	choice, err := s.chooser.Choose(ctx, sel)
	if err != nil {
		return nil, err
	}
	candidate, ok := choice.Candidate()
	if !ok {
		return nil, fault.Selection.New("build selection cancelled")
	}

	if req.Verify && candidate.Companion == nil {
		return nil, fault.Verification.New("no signature or checksum published for %s; use --unsigned to skip verification", candidate.Name())
	}
	s.logger.Debug("Chose build", "archive", candidate.Name(), "version", candidate.Version)

	return &Resolution{
		Platform:  info,
		Target:    sel.Target,
		Candidate: candidate,
	}, nil
}

// detectPlatform never fails: without a platform every candidate simply
// ranks the same.
func (s *InstallService) detectPlatform(ctx context.Context) *platform.Info {
	if s.detector == nil {
		return &platform.Info{}
	}
	info, err := s.detector.Detect(ctx)
	if err != nil || info == nil {
		s.logger.Warn("Platform detection failed, candidates will not be ranked", "error", err)
		return &platform.Info{}
	}
	s.logger.Debug("Detected platform", "os", info.OS, "arch", info.Arch, "distro", info.Platform)
	return info
}

// String describes the resolution for display.
func (r *Resolution) String() string {
	return fmt.Sprintf("%s (%s)", r.Candidate.Name(), r.Candidate.Version)
}
