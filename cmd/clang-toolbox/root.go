package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/binary"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/chooser"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/config"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/fault"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/platform"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/release"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/service"
)

// rootOptions holds the flags of the install command.
type rootOptions struct {
	configPath    string
	unsigned      bool
	mode          string
	outputDir     string
	targetVersion string
	build         string
	auto          bool
	printURLs     bool
	maxPages      int
	apiURL        string
	keyServer     string
	keyring       string
}

func newRootCommand(a *app) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "clang-toolbox [flags] TOOL...",
		Short: "Fetch clang-format, clang-tidy and friends from the LLVM releases",
		Long: `clang-toolbox downloads a prebuilt LLVM release archive for this platform,
verifies its signature and extracts the requested tools into a directory.

Run 'clang-toolbox tools' to list the tool names.`,
		Example: `  clang-toolbox clang-format
  clang-toolbox -V 17.0.0 -o ~/.local/bin clang-format clang-tidy
  clang-toolbox --unsigned -X stream --auto ClangTidy`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, a, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "configuration file (.lua, .yaml or .yml)")
	flags.BoolVarP(&opts.unsigned, "unsigned", "u", false, "skip signature and checksum verification")
	flags.StringVarP(&opts.mode, "extraction-mode", "X", binary.ModeTempFile.String(), "how the archive is buffered: "+strings.Join(binary.Modes, ", "))
	flags.StringVarP(&opts.outputDir, "output-dir", "o", "", "directory receiving the tools (default: working directory)")
	flags.StringVarP(&opts.targetVersion, "target-version", "V", "", "minimum release version (default: newest major)")
	flags.StringVar(&opts.build, "build", "", "archive name to install instead of asking")
	flags.BoolVar(&opts.auto, "auto", false, "install the best match for this platform instead of asking")
	flags.BoolVar(&opts.printURLs, "print-urls", false, "print the archive and signature URLs and exit")
	flags.IntVar(&opts.maxPages, "max-pages", config.DefaultMaxPages, "pages of 100 releases to read")
	flags.StringVar(&opts.apiURL, "api-url", config.DefaultAPIURL, "GitHub API endpoint")
	flags.StringVar(&opts.keyServer, "key-server", binary.DefaultKeyServer, "OpenPGP key server (VKS API)")
	flags.StringVar(&opts.keyring, "keyring", "", "local OpenPGP keyring used instead of the key server")

	persistent := cmd.PersistentFlags()
	persistent.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output")
	persistent.BoolVarP(&a.quiet, "quiet", "q", false, "log warnings and errors only")

	cmd.AddCommand(
		newToolsCommand(a),
		newVersionCommand(a),
		newConfigCommand(a),
	)
	return cmd
}

// loadConfig layers defaults, the configuration file and flags.
func loadConfig(cmd *cobra.Command, opts *rootOptions, logger *slog.Logger) (*config.Config, error) {
	cfg := config.Defaults()

	path := opts.configPath
	if path == "" {
		found, err := config.FindDefault()
		if err != nil {
			logger.Debug("No configuration directory", "error", err)
		}
		path = found
	}
	if path != "" {
		parser := config.NewParser(platform.NewDetector(), logger)
		file, err := parser.LoadFile(cmd.Context(), path)
		if err != nil {
			return nil, err
		}
		if err := cfg.Apply(file); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("unsigned") {
		cfg.Unsigned = opts.unsigned
	}
	if flags.Changed("extraction-mode") {
		mode, err := binary.ParseMode(opts.mode)
		if err != nil {
			return nil, err
		}
		cfg.Mode = mode
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = opts.outputDir
	}
	if flags.Changed("target-version") {
		cfg.TargetVersion = opts.targetVersion
	}
	if flags.Changed("build") {
		cfg.Build = opts.build
	}
	if flags.Changed("max-pages") {
		cfg.MaxPages = opts.maxPages
	}
	if flags.Changed("api-url") {
		cfg.APIURL = opts.apiURL
	}
	if flags.Changed("key-server") {
		cfg.KeyServerURL = opts.keyServer
	}
	if flags.Changed("keyring") {
		cfg.Keyring = opts.keyring
	}
	cfg.Auto = opts.auto
	cfg.PrintURLs = opts.printURLs

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runInstall(cmd *cobra.Command, a *app, opts *rootOptions, args []string) error {
	logger := a.logger()

	cfg, err := loadConfig(cmd, opts, logger)
	if err != nil {
		return err
	}

	var paths []string
	if !cfg.PrintURLs || len(args) > 0 {
		if len(args) == 0 {
			return fault.Configuration.New("no tool named; run 'clang-toolbox tools' to list them")
		}
		paths, err = binary.ResolveTargets(cfg.Targets, args)
		if err != nil {
			return err
		}
	}

	target, err := cfg.Target()
	if err != nil {
		return err
	}

	choose, err := a.pickChooser(cfg)
	if err != nil {
		return err
	}

	svc, err := newInstallService(cfg, a, choose, logger)
	if err != nil {
		return err
	}

	result, err := svc.Install(cmd.Context(), service.InstallRequest{
		Target:      target,
		Paths:       paths,
		Mode:        cfg.Mode,
		Verify:      cfg.Verify(),
		OutputDir:   cfg.OutputDir,
		ResolveOnly: cfg.PrintURLs,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cfg.PrintURLs {
		fmt.Fprintln(out, result.Candidate.Archive.URL)
		if result.Candidate.Companion != nil {
			fmt.Fprintln(out, result.Candidate.Companion.URL)
		}
		return nil
	}

	retrieved := result.Retrieved
	logger.Info("Installed tools",
		"build", result.String(),
		"verification", retrieved.Verified.String(),
		"signer", retrieved.Signer,
		"took", retrieved.Duration.Round(time.Millisecond))
	for _, file := range retrieved.Files {
		fmt.Fprintln(out, file)
	}
	return nil
}

// pickChooser picks the selection strategy: an explicit build, the best
// platform match, or the interactive menu when stdin is a terminal.
func (a *app) pickChooser(cfg *config.Config) (chooser.Chooser, error) {
	switch {
	case cfg.Build != "":
		return chooser.ByName{Name: cfg.Build}, nil
	case cfg.Auto:
		return chooser.Best{}, nil
	case isTerminal(a.stdin):
		return chooser.Terminal{In: a.stdin, Out: a.stderr}, nil
	default:
		return nil, fault.Configuration.New("stdin is not a terminal; choose a build with --build NAME or --auto")
	}
}

// newInstallService wires the release feed, key lookup and retriever.
func newInstallService(cfg *config.Config, a *app, choose chooser.Chooser, logger *slog.Logger) (*service.InstallService, error) {
	client := &http.Client{Timeout: binary.DefaultTimeout}

	fetcher, err := release.NewFetcher(release.FetcherConfig{
		APIURL:     cfg.APIURL,
		Owner:      cfg.Owner,
		Repo:       cfg.Repo,
		Token:      cfg.GitHubToken,
		MaxPages:   cfg.MaxPages,
		HTTPClient: client,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	downloader := binary.NewDownloader(client, logger)
	if isTerminal(a.stderr) && !a.quiet {
		downloader.Progress = a.stderr
	}

	var keys binary.KeyLookup
	if cfg.Keyring != "" {
		keys = binary.Keyring{Path: cfg.Keyring}
	} else {
		keys = binary.NewKeyServer(cfg.KeyServerURL, downloader)
	}

	svc := service.NewInstallService(
		fetcher,
		platform.NewDetector(),
		choose,
		binary.NewRetriever(downloader, keys, logger),
		service.RealClock{},
		logger,
	)
	svc.TagPrefix = cfg.TagPrefix
	svc.ProductPrefix = cfg.ProductPrefix
	return svc, nil
}
