package dokit

import (
	"errors"

	"github.com/helixml/dokit/application/service"
)

// ErrNoDatabase is returned by New when no database option was given.
var ErrNoDatabase = errors.New("dokit: no database configured, use WithSQLite or WithPostgres")

// ErrClientClosed is returned by operations on a closed Client.
// Aliased from the service layer so errors.Is works across both.
var ErrClientClosed = service.ErrClientClosed
