// Package backend constructs the campus data source: a REST client for
// real servers or an in-process demo source for trying the app without one.
package backend

import (
	"errors"
	"log/slog"

	"github.com/kwhalen/slate/internal/backend/rest"
	"github.com/kwhalen/slate/internal/domain"
)

// Campus bundles every server-side port the engine consumes
type Campus interface {
	domain.CampusRepository
	domain.GradeWriter
	domain.MessageWriter
	domain.Identity
}

// Monitor is a link monitor whose readings come from a sensor the
// caller starts and stops
type Monitor interface {
	domain.NetworkMonitor
	Start()
	Stop()
}

// New wires the campus backend. Demo mode serves bundled sample data
// and always reports a healthy link; otherwise a REST client and a
// health probe are built for the given server.
func New(serverURL, token string, demo bool, logger *slog.Logger) (Campus, Monitor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if demo {
		logger.Info("using bundled demo data")
		return NewDemoClient(logger), StaticMonitor{Reading: domain.NetworkQuality{Connected: true}}, nil
	}
	if serverURL == "" {
		return nil, nil, errors.New("backend: server URL is required")
	}
	if token == "" {
		return nil, nil, errors.New("backend: access token is required")
	}
	client := rest.NewClient(serverURL, token, logger)
	probe := rest.NewProbe(serverURL, logger)
	return client, probe, nil
}

// StaticMonitor reports a fixed reading and never polls anything
type StaticMonitor struct {
	Reading domain.NetworkQuality
}

func (m StaticMonitor) Quality() domain.NetworkQuality { return m.Reading }
func (m StaticMonitor) Start()                         {}
func (m StaticMonitor) Stop()                          {}
