package api

import (
	"github.com/okian/icaoscore/internal/domain/access"
	"github.com/okian/icaoscore/pkg/logger"
	"golang.org/x/time/rate"
)

// Option configures a Server.
type Option func(*Server)

// WithCredentialChecker sets how the "key" query parameter is checked for
// the trainer role. Without it nobody is a trainer.
func WithCredentialChecker(c access.CredentialChecker) Option {
	return func(s *Server) {
		s.sessions.resolver = access.NewResolver(c)
	}
}

// WithSubmitRate limits submissions per user to perSec with burst.
// A non-positive perSec disables limiting.
func WithSubmitRate(perSec float64, burst int) Option {
	return func(s *Server) {
		s.limiter = newSubmitLimiter(rate.Limit(perSec), burst)
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSecureCookies marks the session cookie Secure.
func WithSecureCookies(secure bool) Option {
	return func(s *Server) {
		s.sessions.secure = secure
	}
}
