package hqp

import "github.com/muness/unified-hifi-control/internal/apperr"

func errTimeout(format string, args ...any) *apperr.Error {
	return apperr.New(apperr.Timeout, format, args...)
}

func errDisconnected(format string, args ...any) *apperr.Error {
	return apperr.New(apperr.NotConnected, format, args...)
}

func errMalformed(format string, args ...any) *apperr.Error {
	return apperr.New(apperr.ProtocolMalformed, format, args...)
}

func errUnsupportedKind(format string, args ...any) *apperr.Error {
	return apperr.New(apperr.Unsupported, format, args...)
}
