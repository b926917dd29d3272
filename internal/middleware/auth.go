package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"health-reminder-api/internal/auth"
)

const CredentialsError = "Could not validate credentials"

const userIDKey = "uid"

// bearerToken pulls the token out of an "Authorization: Bearer <jwt>" value.
func bearerToken(h string) string {
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireAuth rejects requests without a valid access token and stores the
// token subject for UserID.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			unauthorized(c)
			return
		}
		claims, err := auth.ParseToken(raw, secret)
		if err != nil {
			unauthorized(c)
			return
		}
		c.Set(userIDKey, claims.UserID())
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": CredentialsError})
}

// UserID is the authenticated user, set by RequireAuth.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// gRPC

type ctxKey string

const UserIDKey ctxKey = "uid"

const (
	opsRunReminders = "/healthreminder.ops.v1.ReminderOps/RunReminders"
	healthCheck     = "/grpc.health.v1.Health/Check"
)

// UserIDFromContext returns the subject set by the gRPC Auth interceptor.
func UserIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(UserIDKey).(string)
	return uid, ok && uid != ""
}

// Auth guards the ops service. RunReminders needs the operator key in
// x-ops-key; every other method needs a bearer JWT. Health checks are open.
func Auth(secret, opsKey string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if info.FullMethod == healthCheck {
			return next(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		if info.FullMethod == opsRunReminders {
			if !validOpsKey(first(md, "x-ops-key"), opsKey) {
				return nil, status.Error(codes.Unauthenticated, "invalid ops key")
			}
			return next(ctx, req)
		}

		raw := bearerToken(first(md, "authorization"))
		if raw == "" {
			return nil, status.Error(codes.Unauthenticated, CredentialsError)
		}
		claims, err := auth.ParseToken(raw, secret)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, CredentialsError)
		}

		ctx = context.WithValue(ctx, UserIDKey, claims.UserID())
		return next(ctx, req)
	}
}

// an unset key locks the method out entirely
func validOpsKey(got, want string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func first(md metadata.MD, key string) string {
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}
