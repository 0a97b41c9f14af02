package usecase

import (
	"errors"

	"github.com/gighall/calsync/pkg/repository/firestore"
	"github.com/gighall/calsync/pkg/repository/memory"
	"github.com/gighall/calsync/pkg/service/graph"
	"github.com/m-mizutani/goerr/v2"
)

// Sentinel errors for use case layer
var (
	ErrNotConnected       = goerr.New("account is not connected to Microsoft")
	ErrTokenRefreshFailed = goerr.New("failed to refresh Microsoft token")
	ErrMappingMissing     = goerr.New("no calendar link exists for the event and role")
)

// isNotFound reports whether err is a repository not-found error from
// either backend.
func isNotFound(err error) bool {
	return errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound)
}

// isRemoteNotFound reports whether err means the remote object is gone
func isRemoteNotFound(err error) bool {
	return errors.Is(err, graph.ErrNotFound)
}
