package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/cipherroom/internal/middleware"
	"github.com/lalith-99/cipherroom/internal/service"
	"go.uber.org/zap"
)

type MembershipHandler struct {
	memberships *service.MembershipService
	logger      *zap.Logger
}

func NewMembershipHandler(memberships *service.MembershipService, logger *zap.Logger) *MembershipHandler {
	return &MembershipHandler{memberships: memberships, logger: logger}
}

type joinRoomRequest struct {
	RoomCode  string `json:"room_code" binding:"required"`
	PublicKey string `json:"public_key" binding:"required"`
}

// Join handles POST /v1/rooms/join
func (h *MembershipHandler) Join(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)

	room, err := h.memberships.Join(c.Request.Context(), req.RoomCode, userID, req.PublicKey)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "joined room",
		"room":    room,
	})
}

// Leave handles POST /v1/rooms/:id/leave
func (h *MembershipHandler) Leave(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	userID := middleware.GetUserID(c)

	if err := h.memberships.Leave(c.Request.Context(), roomID, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListMembers handles GET /v1/rooms/:id/members. Non-members receive an
// empty list with 200, not an error.
func (h *MembershipHandler) ListMembers(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	userID := middleware.GetUserID(c)

	members, err := h.memberships.ListMembers(c.Request.Context(), roomID, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, members)
}

type createInviteRequest struct {
	ExpiresAt *time.Time `json:"expires_at"`
	Uses      int        `json:"uses"`
}

// CreateInvite handles POST /v1/rooms/:id/invites
func (h *MembershipHandler) CreateInvite(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	// Body is optional: the zero request means single-use, no expiry.
	var req createInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = createInviteRequest{}
	}

	userID := middleware.GetUserID(c)

	inv, err := h.memberships.CreateInvite(c.Request.Context(), roomID, userID, req.ExpiresAt, req.Uses)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, inv)
}

// ListInvites handles GET /v1/rooms/:id/invites
func (h *MembershipHandler) ListInvites(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	userID := middleware.GetUserID(c)

	invites, err := h.memberships.ListInvites(c.Request.Context(), roomID, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, invites)
}

type redeemInviteRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
	PublicKey  string `json:"public_key" binding:"required"`
}

// RedeemInvite handles POST /v1/invites/redeem
func (h *MembershipHandler) RedeemInvite(c *gin.Context) {
	var req redeemInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)

	room, err := h.memberships.RedeemInvite(c.Request.Context(), req.InviteCode, userID, req.PublicKey)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "joined room",
		"room":    room,
	})
}
