package release

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/fault"
)

// DefaultPerPage is the page size requested from the release API.
const DefaultPerPage = 100

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	APIURL     string // GitHub API root, e.g. https://api.github.com
	Owner      string
	Repo       string
	Token      string // optional, raises the anonymous rate limit
	MaxPages   int    // pages of DefaultPerPage releases to read, minimum 1
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Fetcher retrieves the release list from the GitHub REST API.
type Fetcher struct {
	client   *github.Client
	owner    string
	repo     string
	maxPages int
	logger   *slog.Logger
}

// NewFetcher creates a Fetcher for the configured repository.
func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	client := github.NewClient(cfg.HTTPClient)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}

	if cfg.APIURL != "" {
		base := cfg.APIURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fault.Configuration.New("api url %q: %v", cfg.APIURL, err)
		}
		client.BaseURL = u
	}

	maxPages := cfg.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Fetcher{
		client:   client,
		owner:    cfg.Owner,
		repo:     cfg.Repo,
		maxPages: maxPages,
		logger:   logger,
	}, nil
}

// Fetch returns releases in the order the API publishes them (newest first).
// Pages are followed until the API reports no further page or the
// configured page limit is reached.
func (f *Fetcher) Fetch(ctx context.Context) ([]Release, error) {
	var releases []Release
	opts := &github.ListOptions{PerPage: DefaultPerPage, Page: 1}

	for page := 0; page < f.maxPages; page++ {
		f.logger.Debug("Fetching releases", "owner", f.owner, "repo", f.repo, "page", opts.Page)

		batch, resp, err := f.client.Repositories.ListReleases(ctx, f.owner, f.repo, opts)
		if err != nil {
			return nil, fault.Network.Wrap(fmt.Errorf("list releases of %s/%s: %w", f.owner, f.repo, err))
		}

		for _, r := range batch {
			rel := Release{Tag: r.GetTagName()}
			for _, a := range r.Assets {
				rel.Assets = append(rel.Assets, Asset{
					Name: a.GetName(),
					URL:  a.GetBrowserDownloadURL(),
				})
			}
			releases = append(releases, rel)
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	f.logger.Debug("Fetched releases", "count", len(releases))
	return releases, nil
}
