package app

import (
	"fmt"

	"github.com/ferdiebergado/goexpress"

	"github.com/cxuy/cxkit/internal/auth"
	"github.com/cxuy/cxkit/internal/handler"
	"github.com/cxuy/cxkit/internal/middleware"
	"github.com/cxuy/cxkit/internal/platform/router"
	"github.com/cxuy/cxkit/internal/server"
)

// middlewares run on every request, in order.
var middlewares = []router.Middleware{
	middleware.InjectWriter,
	goexpress.RecoverFromPanic,
	middleware.RequestID,
	middleware.LogRequest,
	middleware.ContextGuard,
	middleware.CORS,
}

func mountRoutes(srv *server.Server, deps handler.Deps, accounts auth.AccountService) error {
	handlers, err := handler.Routes(deps)
	if err != nil {
		return fmt.Errorf("build demo routes: %w", err)
	}

	authRoutes, err := auth.NewHandler(accounts).Routes()
	if err != nil {
		return fmt.Errorf("build auth routes: %w", err)
	}
	handlers = append(handlers, authRoutes)

	if err := srv.Register(handlers...); err != nil {
		return fmt.Errorf("register routes: %w", err)
	}
	return nil
}
