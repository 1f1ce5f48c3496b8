package httputil

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/docintake/docintake-backend/pkg/errors"
	"github.com/docintake/docintake-backend/pkg/logger"
)

// Claims are the access token claims issued by the identity provider
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Authenticate validates HS256 bearer tokens and puts the subject into the
// request context. An empty issuer disables the issuer check.
func Authenticate(secret, issuer string, log *logger.Logger) func(http.Handler) http.Handler {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				Error(w, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				Error(w, errors.Unauthorized("invalid authorization header format"))
				return
			}

			claims := &Claims{}
			_, err := parser.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil {
				log.Debug().Err(err).Msg("token validation failed")
				if stderrors.Is(err, jwt.ErrTokenExpired) {
					Error(w, errors.TokenExpired())
				} else {
					Error(w, errors.TokenInvalid())
				}
				return
			}

			if claims.Subject == "" {
				Error(w, errors.TokenInvalid())
				return
			}

			if rw, ok := w.(*responseWriter); ok {
				rw.userID = claims.Subject
			}

			ctx := WithUserContext(r.Context(), claims.Subject, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
