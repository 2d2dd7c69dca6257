package factory

import (
	"github.com/rs/zerolog"

	"github.com/vitte-ai/vitte-chat/internal/cache"
	"github.com/vitte-ai/vitte-chat/internal/config"
	"github.com/vitte-ai/vitte-chat/internal/imagegen"
)

// NewImageSideChannel builds the lag-by-one image pipeline around the HTTP
// generator queue. The generator is returned separately so the bootstrap can
// attach a health probe to it.
func NewImageSideChannel(cfg *config.Config, c cache.Cache, log zerolog.Logger) (*imagegen.SideChannel, *imagegen.HTTPGenerator) {
	gen := imagegen.NewHTTPGenerator(cfg.ImageGenURL, cfg.ImageGenTimeout)
	sc := imagegen.NewSideChannel(gen, c,
		cfg.ImagePickupWait, cfg.ImageTicketTTL,
		cfg.ImageCadenceMin, cfg.ImageCadenceMax, log)
	return sc, gen
}
