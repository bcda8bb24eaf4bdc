package app

import (
	"database/sql"

	"github.com/cxuy/cxkit/internal/config"
	"github.com/cxuy/cxkit/internal/platform/db"
	"github.com/cxuy/cxkit/internal/platform/hash"
	"github.com/cxuy/cxkit/internal/platform/jwt"
	"github.com/cxuy/cxkit/internal/platform/router"
	"github.com/cxuy/cxkit/internal/platform/validation"
)

type Provider struct {
	// DB is nil unless the database is enabled.
	DB        *sql.DB
	TxMgr     db.TxManager
	Signer    jwt.Signer
	Hasher    hash.Hasher
	Validator validation.Validator
	Router    router.Router
}

func newProvider(cfg *config.Config, dbConn *sql.DB) *Provider {
	p := &Provider{
		DB:        dbConn,
		Signer:    jwt.NewGolangJWTSigner(cfg.JWT, cfg.Key),
		Hasher:    hash.NewArgon2Hasher(cfg.Argon2, cfg.Key),
		Validator: validation.NewGoPlaygroundValidator(),
		Router:    router.NewGoexpressRouter(),
	}
	if dbConn != nil {
		p.TxMgr = db.NewSQLTxManager(dbConn)
	}
	return p
}
