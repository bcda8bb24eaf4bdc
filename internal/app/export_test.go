package app

import (
	"context"

	"github.com/cxuy/cxkit/internal/config"
	"github.com/cxuy/cxkit/internal/framework"
)

// NewForTest builds an app on the file backend without a database.
func NewForTest(ctx context.Context, cfg *config.Config, fctx *framework.Context) (*App, error) {
	return New(ctx, cfg, fctx, newProvider(cfg, nil))
}
