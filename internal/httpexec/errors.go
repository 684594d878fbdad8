package httpexec

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/url"

	"github.com/wesleyorama2/sisyphus/internal/errs"
)

// classifySendError maps a failed client.Do into the engine's step-level
// error taxonomy: timeout, connection, or TLS verification (§4.8).
func classifySendError(err error) *errs.StepError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &errs.StepError{Kind: errs.RequestTimeout, Message: err.Error()}
	}

	var tlsErr tls.RecordHeaderError
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &tlsErr) || errors.As(err, &certErr) {
		return &errs.StepError{Kind: errs.RequestSSLError, Message: err.Error()}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return &errs.StepError{Kind: errs.RequestTimeout, Message: err.Error()}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &errs.StepError{Kind: errs.RequestTimeout, Message: err.Error()}
	}

	return &errs.StepError{Kind: errs.RequestConnectionError, Message: err.Error()}
}
