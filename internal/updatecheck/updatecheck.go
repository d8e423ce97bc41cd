// Package updatecheck assembles the pending-updates report shown to
// operators, filtering out modules the administrator has excluded.
package updatecheck

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/opsdash/forget-me-not/internal/config"
	"github.com/opsdash/forget-me-not/internal/modules"
	"github.com/opsdash/forget-me-not/internal/pkg/logger"
	"github.com/opsdash/forget-me-not/internal/service/exclusions"
)

// Project describes one module with a pending update, keyed by module name
// in the provider's result.
type Project struct {
	Name             string `json:"name"`
	InstalledVersion string `json:"installed_version"`
	LatestVersion    string `json:"latest_version"`
	SecurityUpdate   bool   `json:"security_update"`
}

// Provider supplies the raw pending-update set before exclusion filtering.
type Provider interface {
	// PendingUpdates returns pending updates keyed by module name.
	PendingUpdates(ctx context.Context) (map[string]Project, error)
}

// Checker produces the operator-facing update report. It consults the
// exclusions service so skipped modules never reach the report.
type Checker struct {
	provider   Provider
	exclusions *exclusions.Service
	log        *logger.Logger
}

// NewChecker creates a checker over the given provider and exclusion service.
func NewChecker(provider Provider, svc *exclusions.Service) *Checker {
	return &Checker{
		provider:   provider,
		exclusions: svc,
		log:        logger.With("updatecheck"),
	}
}

// Report returns the pending updates with excluded modules removed.
func (c *Checker) Report(ctx context.Context) (map[string]Project, error) {
	pending, err := c.provider.PendingUpdates(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching pending updates: %w", err)
	}

	excluded, err := c.exclusions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading excluded modules: %w", err)
	}

	filtered := exclusions.Apply(excluded, pending)
	if skipped := len(pending) - len(filtered); skipped > 0 {
		c.log.Debug("skipped excluded modules in update report", "skipped", skipped)
	}
	return filtered, nil
}

// FeedProvider derives pending updates from a release-history feed. Each
// feed item announces one module release with a "<name> <version>" title;
// a "security" category marks security releases. Installed versions come
// from the module registry, so only modules whose latest release differs
// from the installed version end up in the result.
type FeedProvider struct {
	feedURL string
	modules modules.Lister
	parser  *gofeed.Parser
}

// NewFeedProvider creates a feed-backed provider from config.
func NewFeedProvider(cfg config.UpdateCheckConfig, lister modules.Lister) *FeedProvider {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: cfg.Timeout()}
	return &FeedProvider{
		feedURL: cfg.FeedURL,
		modules: lister,
		parser:  parser,
	}
}

type release struct {
	version  string
	security bool
}

// PendingUpdates fetches the release feed and reports every enabled module
// with a newer release than the installed version.
func (p *FeedProvider) PendingUpdates(ctx context.Context) (map[string]Project, error) {
	feed, err := p.parser.ParseURLWithContext(p.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching release feed: %w", err)
	}

	// Feeds list newest releases first; keep the first entry per module.
	latest := make(map[string]release, len(feed.Items))
	for _, item := range feed.Items {
		fields := strings.Fields(item.Title)
		if len(fields) != 2 {
			continue
		}
		name := fields[0]
		if _, ok := latest[name]; ok {
			continue
		}
		rel := release{version: fields[1]}
		for _, cat := range item.Categories {
			if strings.EqualFold(cat, "security") {
				rel.security = true
				break
			}
		}
		latest[name] = rel
	}

	enabled, err := p.modules.Enabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing enabled modules: %w", err)
	}

	pending := make(map[string]Project)
	for _, m := range enabled {
		rel, ok := latest[m.Name]
		if !ok || rel.version == m.Version {
			continue
		}
		pending[m.Name] = Project{
			Name:             m.Name,
			InstalledVersion: m.Version,
			LatestVersion:    rel.version,
			SecurityUpdate:   rel.security,
		}
	}
	return pending, nil
}
