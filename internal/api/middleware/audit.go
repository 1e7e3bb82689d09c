package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Prasadchowdar/100CroresClub/internal/model"
	"github.com/Prasadchowdar/100CroresClub/internal/repository"
)

var (
	auditRepoMu sync.RWMutex
	auditRepo   repository.AuditRepository
)

func SetAuditRepository(repo repository.AuditRepository) {
	auditRepoMu.Lock()
	defer auditRepoMu.Unlock()
	auditRepo = repo
}

// AuditLog records successful requests on the tagged route. Failed requests
// are skipped so the trail only carries applied changes; the write itself
// runs off the request goroutine.
func AuditLog(action, resourceType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		repo := getAuditRepository()
		if repo == nil {
			c.Next()
			return
		}

		var body []byte
		if c.Request != nil && c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		claims, _ := GetClaims(c)
		actorID := parseActorID(claims)
		actorType := resolveActorType(claims)
		resourceID := resolveResourceID(c)
		ipAddress := strPtr(c.ClientIP())
		userAgent := strPtr(c.Request.UserAgent())
		newValue := extractAuditValue(body)

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			log := &model.AuditLog{
				ActorID:      actorID,
				ActorType:    actorType,
				Action:       action,
				ResourceType: strPtr(resourceType),
				ResourceID:   resourceID,
				NewValue:     newValue,
				IPAddress:    ipAddress,
				UserAgent:    userAgent,
				CreatedAt:    time.Now().UTC(),
			}

			_ = repo.Create(ctx, log)
		}()
	}
}

func getAuditRepository() repository.AuditRepository {
	auditRepoMu.RLock()
	defer auditRepoMu.RUnlock()
	return auditRepo
}

func parseActorID(claims *Claims) *uuid.UUID {
	if claims == nil || claims.UserID == "" {
		return nil
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil
	}
	return &id
}

func resolveActorType(claims *Claims) model.ActorType {
	if claims == nil {
		return model.ActorTypeSystem
	}
	if strings.EqualFold(claims.Role, string(model.UserRoleAdmin)) {
		return model.ActorTypeAdmin
	}
	return model.ActorTypeUser
}

func resolveResourceID(c *gin.Context) *string {
	if id := c.Param("id"); id != "" {
		return &id
	}
	if id := c.Query("id"); id != "" {
		return &id
	}
	return nil
}

// extractAuditValue keeps only non-sensitive top-level request fields.
func extractAuditValue(body []byte) map[string]interface{} {
	if len(body) == 0 {
		return nil
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}

	for key := range payload {
		normalized := strings.ToLower(key)
		if strings.Contains(normalized, "password") || strings.Contains(normalized, "otp") {
			delete(payload, key)
		}
	}
	if len(payload) == 0 {
		return nil
	}
	return payload
}

func strPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
