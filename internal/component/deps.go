package component

import (
	"go.uber.org/zap"

	"github.com/yanizio/newsletter/internal/analytics"
	"github.com/yanizio/newsletter/internal/config"
	"github.com/yanizio/newsletter/internal/form"
	"github.com/yanizio/newsletter/internal/newsletter"
	"github.com/yanizio/newsletter/internal/session"
)

// Deps exposes shared resources to Components during Init.
type Deps struct {
	Config      *config.Config
	Log         *zap.SugaredLogger
	Documents   newsletter.DocumentCreator
	Sink        analytics.Sink
	Definitions *form.Registry
	CSRF        *form.CSRF
	Sessions    *session.Manager
}

func (d Deps) logger() *zap.SugaredLogger {
	if d.Log == nil {
		return zap.NewNop().Sugar()
	}
	return d.Log
}
