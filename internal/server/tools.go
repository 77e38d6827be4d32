package server

import (
	"fmt"

	"github.com/sammcj/mcp-searxng/internal/config"
	"github.com/sammcj/mcp-searxng/internal/registry"
	"github.com/sammcj/mcp-searxng/internal/searxng"
	"github.com/sammcj/mcp-searxng/internal/tools/search"
	"github.com/sammcj/mcp-searxng/internal/tools/toolhelp"
	"github.com/sammcj/mcp-searxng/internal/utils/httpclient"
	"github.com/sirupsen/logrus"
)

// RegisterTools builds the SearXNG client from cfg and registers every tool.
// registry.Init must have been called first so DISABLED_TOOLS is honoured.
func RegisterTools(cfg *config.Config, logger *logrus.Logger) error {
	httpClient := httpclient.New(httpclient.Options{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		Logger:    logger,
	})

	client, err := searxng.NewClient(cfg.SearXNGURL,
		searxng.WithHTTPClient(httpClient),
		searxng.WithUserAgent(cfg.UserAgent),
		searxng.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create SearXNG client: %w", err)
	}

	registry.Register(search.New(client))
	registry.Register(toolhelp.New())

	logger.WithFields(logrus.Fields{
		"searxng_url": client.BaseURL(),
		"tools":       registry.GetEnabledToolNames(),
	}).Debug("Tools registered")
	return nil
}
