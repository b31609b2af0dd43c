package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"study-cache/internal/cache"
	"study-cache/internal/devicestore"
	"study-cache/internal/models"
	"study-cache/internal/remote"
	"study-cache/internal/telemetry"
)

// identityStore is the writable identity cache the account flow maintains.
type identityStore interface {
	identitySource
	SaveProfile(ctx context.Context, profile models.UserProfile) error
	Groups(ctx context.Context) []models.Group
	SaveGroups(ctx context.Context, groups []models.Group) error
	ClearAll(ctx context.Context) error
}

// clearable is anything that wipes its keys on logout.
type clearable interface {
	ClearAll(ctx context.Context) error
}

// AccountHandler manages the credential, the cached identity and the
// logout wipe.
type AccountHandler struct {
	store    devicestore.Store
	identity identityStore
	api      remote.API
	caches   []clearable
	audit    *telemetry.AuditEmitter
}

// NewAccountHandler constructs an AccountHandler. caches lists every cache
// component to wipe on logout.
func NewAccountHandler(store devicestore.Store, identity identityStore, api remote.API, audit *telemetry.AuditEmitter, caches ...clearable) *AccountHandler {
	return &AccountHandler{store: store, identity: identity, api: api, caches: caches, audit: audit}
}

// PutSession handles PUT /session: the app shell hands over the bearer
// token and profile after a successful login.
func (h *AccountHandler) PutSession(c *gin.Context) {
	var req struct {
		Token   string             `json:"token" binding:"required"`
		Profile models.UserProfile `json:"profile" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Profile.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile id required"})
		return
	}

	if err := remote.SaveToken(c.Request.Context(), h.store, req.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store token"})
		return
	}
	if err := h.identity.SaveProfile(c.Request.Context(), req.Profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store profile"})
		return
	}

	h.emitAudit(c, "INFO", "Session stored", req.Profile.ID)
	c.Status(http.StatusNoContent)
}

// ListGroups handles GET /groups. With ?refresh=1 the membership list is
// re-fetched and cached; otherwise, or when the fetch fails, the cached
// list is served.
func (h *AccountHandler) ListGroups(c *gin.Context) {
	if c.Query("refresh") == "1" {
		groups, err := h.api.ListGroups(c.Request.Context())
		if err == nil {
			if err := h.identity.SaveGroups(c.Request.Context(), groups); err != nil {
				log.Printf("group cache persist failed: %v", err)
			}
			c.JSON(http.StatusOK, gin.H{"groups": groups})
			return
		}
		log.Printf("group list refresh failed, serving cached: %v", err)
	}

	groups := h.identity.Groups(c.Request.Context())
	if groups == nil {
		groups = []models.Group{}
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// Logout handles POST /logout: drops the credential and wipes every cache
// component's keys.
func (h *AccountHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	if err := remote.ClearToken(ctx, h.store); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear token"})
		return
	}
	if err := h.identity.ClearAll(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear identity"})
		return
	}
	for _, cacheComponent := range h.caches {
		if err := cacheComponent.ClearAll(ctx); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear cache"})
			return
		}
	}

	h.emitAudit(c, "INFO", "Logged out", "")
	c.Status(http.StatusNoContent)
}

func (h *AccountHandler) emitAudit(c *gin.Context, level, text, userID string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDPointer(userID))
}

var _ identityStore = (*cache.Identity)(nil)
