package roonadapter

import "github.com/muness/unified-hifi-control/internal/apperr"

func errUnreachable(cause error, format string, args ...any) *apperr.Error {
	return apperr.Wrap(apperr.NotConnected, cause, format, args...)
}

func errMalformed(format string, args ...any) *apperr.Error {
	return apperr.New(apperr.ProtocolMalformed, format, args...)
}

func errNoSuchZone(zoneID string) *apperr.Error {
	return apperr.New(apperr.NotFound, "roon: no such zone %q", zoneID)
}
