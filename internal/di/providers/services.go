package providers

import (
	"github.com/samber/do/v2"

	"github.com/serousbot/serousbot/internal/bot"
	"github.com/serousbot/serousbot/internal/config"
	"github.com/serousbot/serousbot/internal/logger"
	"github.com/serousbot/serousbot/internal/paste"
	"github.com/serousbot/serousbot/internal/ratelimit"
	"github.com/serousbot/serousbot/internal/service"
	"github.com/serousbot/serousbot/internal/store"
	"github.com/serousbot/serousbot/internal/validation"
)

// ProvideValidator provides the shared input validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideTagService provides the tag mutation service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	tagStore := do.MustInvoke[*store.Store](i)
	directory := do.MustInvoke[*bot.StateDirectory](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(tagStore, directory, validator, log.Component("tags").Logger), nil
}

// ProvideResolver provides the tag resolution engine.
func ProvideResolver(i do.Injector) (*service.Resolver, error) {
	tagStore := do.MustInvoke[*store.Store](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewResolver(tagStore, log.Component("resolver").Logger), nil
}

// PasteLimiterHandle wraps the per-user paste upload limiter.
type PasteLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// ProvidePasteLimiter provides the paste upload limiter.
func ProvidePasteLimiter(i do.Injector) (*PasteLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &PasteLimiterHandle{KeyedRateLimiter: ratelimit.PerMinute(cfg.Paste.RatePerMinute)}, nil
}

// ProvidePasteClient provides the hastebin client.
func ProvidePasteClient(i do.Injector) (*paste.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	limiter := do.MustInvoke[*PasteLimiterHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := paste.NewClient(paste.Config{
		BaseURL:           cfg.Paste.BaseURL,
		MaxAttachmentSize: cfg.Paste.MaxAttachmentSize,
	}, limiter.KeyedRateLimiter, log.Component("paste").Logger)

	log.Info("Paste client configured", "base_url", cfg.Paste.BaseURL, "rate_per_minute", cfg.Paste.RatePerMinute)
	return client, nil
}
