package main

import (
	"github.com/metalagman/contentgen/internal/completion"
	"github.com/metalagman/contentgen/internal/config"
	"github.com/metalagman/contentgen/internal/content"
	"github.com/metalagman/contentgen/internal/db"
	"github.com/metalagman/contentgen/internal/keycheck"
	"github.com/metalagman/contentgen/internal/nonce"
	"github.com/metalagman/contentgen/internal/settings"
)

func openSettings(cfg config.Config) (*settings.Settings, func(), error) {
	storeDB, err := db.Open(cfg.Storage.Path)
	if err != nil {
		return nil, func() {}, err
	}
	store := db.NewStore(storeDB)
	return newSettings(store, newNonceManager(store, cfg)), func() { _ = storeDB.Close() }, nil
}

func newNonceManager(store *db.Store, cfg config.Config) *nonce.Manager {
	return nonce.NewManager(store, cfg.Security.NonceTTL)
}

func newSettings(store *db.Store, nonces *nonce.Manager) *settings.Settings {
	return settings.New(store, nonces)
}

func (c *cli) newContentService(keys *settings.Settings, cfg config.Config) *content.Service {
	opts := append([]completion.Option{completion.WithTimeout(cfg.Completion.Timeout)}, c.completionOpts...)
	return content.NewService(keys, opts...)
}

func (c *cli) newKeyChecker(cfg config.Config) *keycheck.Checker {
	return keycheck.NewChecker(c.modelsBaseURL, cfg.Completion.Timeout, nil)
}
