package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/response"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/logger"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayedHeader marks a response served from the store.
	IdempotencyReplayedHeader = "X-Idempotency-Replayed"
	// DefaultIdempotencyTTL is how long keys are valid when not configured.
	DefaultIdempotencyTTL = 24 * time.Hour

	maxIdempotencyKeyLength = 255
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository
	TTL  time.Duration
	Log  *logger.Logger
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyRequired rejects POSTs without an Idempotency-Key and replays the
// stored response when a key is reused. Keys are scoped to the user and the
// request path, so the same client key may be used on different orders.
// Only successful responses are stored; a failed attempt can be retried with
// the same key.
func IdempotencyRequired(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultIdempotencyTTL
	}
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		clientKey := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if clientKey == "" {
			response.BadRequest(c, "Idempotency-Key header is required for this request")
			c.Abort()
			return
		}
		if len(clientKey) > maxIdempotencyKeyLength {
			response.BadRequest(c, "Idempotency-Key header is too long")
			c.Abort()
			return
		}

		userIDValue, exists := c.Get(ContextUserID)
		userID, ok := userIDValue.(uuid.UUID)
		if !exists || !ok || userID == uuid.Nil {
			response.Unauthorized(c, "User not authenticated")
			c.Abort()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.BadRequest(c, "Unable to read request body")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		ctx := c.Request.Context()
		key := ScopedIdempotencyKey(c.Request.Method, c.Request.URL.Path, clientKey)
		requestHash := hashBody(body)

		existing, err := cfg.Repo.GetByKey(ctx, key, userID)
		if err != nil {
			response.Error(c, apperror.NewGatewayError("failed to check idempotency key", err))
			c.Abort()
			return
		}
		if existing != nil {
			if existing.RequestHash != "" && existing.RequestHash != requestHash {
				response.Error(c, apperror.NewConflictError("Idempotency-Key was already used with a different request body"))
				c.Abort()
				return
			}
			c.Header(IdempotencyReplayedHeader, "true")
			c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
			c.Abort()
			return
		}

		blw := &responseWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		ikey := &entity.IdempotencyKey{
			Key:          key,
			UserID:       userID,
			Endpoint:     c.Request.Method + " " + c.FullPath(),
			RequestHash:  requestHash,
			ResponseCode: status,
			ResponseBody: blw.body.String(),
			ExpiresAt:    time.Now().Add(cfg.TTL),
		}
		if err := cfg.Repo.Create(ctx, ikey); err != nil {
			cfg.Log.Warn(ctx, "failed to store idempotency key", err)
		}
	}
}

// ScopedIdempotencyKey binds a client key to the request it was sent with.
func ScopedIdempotencyKey(method, path, clientKey string) string {
	sum := sha256.Sum256([]byte(method + " " + path + "|" + clientKey))
	return hex.EncodeToString(sum[:])
}

func hashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
