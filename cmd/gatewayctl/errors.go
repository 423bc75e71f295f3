package main

import "github.com/driftgate/gateway/internal/gwerrors"

// exitCodeFor maps the closed gwerrors taxonomy onto process exit codes per
// SPEC_FULL.md §7: 0 success, 1 provider/candidate exhaustion, 2 bad input,
// 3 operational failures. Any error that isn't a *gwerrors.Error (a cobra
// usage error, a config load failure) also exits 2, since those are bad
// input from the operator's perspective too.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	gwErr, ok := gwerrors.As(err)
	if !ok {
		return 2
	}
	switch gwErr.Kind {
	case gwerrors.KindAllProvidersFailed, gwerrors.KindNoAvailableProvider:
		return 1
	case gwerrors.KindInvalidRequest, gwerrors.KindProviderNotConfigured:
		return 2
	case gwerrors.KindPersistenceError, gwerrors.KindCredentialCorrupt,
		gwerrors.KindSuggestionParseError, gwerrors.KindDeadlineExceeded:
		return 3
	default:
		return 3
	}
}
