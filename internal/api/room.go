package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/cipherroom/internal/middleware"
	"github.com/lalith-99/cipherroom/internal/service"
	"go.uber.org/zap"
)

type RoomHandler struct {
	rooms  *service.RoomService
	logger *zap.Logger
}

func NewRoomHandler(rooms *service.RoomService, logger *zap.Logger) *RoomHandler {
	return &RoomHandler{rooms: rooms, logger: logger}
}

// createRoomRequest is the body for POST /v1/rooms. The public key is the
// creator's own key-exchange key — stored on their membership, never
// inspected. max_members is a pointer so an explicit zero can be told
// apart from an omitted field.
type createRoomRequest struct {
	Name       string `json:"name" binding:"required"`
	MaxMembers *int   `json:"max_members"`
	PublicKey  string `json:"public_key" binding:"required"`
}

// Create handles POST /v1/rooms
func (h *RoomHandler) Create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	maxMembers := 0
	if req.MaxMembers != nil {
		if *req.MaxMembers < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_members must be at least 1"})
			return
		}
		maxMembers = *req.MaxMembers
	}

	userID := middleware.GetUserID(c)

	room, err := h.rooms.CreateRoom(c.Request.Context(), req.Name, maxMembers, userID, req.PublicKey)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, room)
}

// List handles GET /v1/rooms
func (h *RoomHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	rooms, err := h.rooms.ListRooms(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, rooms)
}

// GetByCode handles GET /v1/rooms/by-code/:code — the landing query for
// invite links, so it tolerates any casing.
func (h *RoomHandler) GetByCode(c *gin.Context) {
	room, err := h.rooms.GetRoomByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

// GetByID handles GET /v1/rooms/:id
func (h *RoomHandler) GetByID(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	userID := middleware.GetUserID(c)

	room, err := h.rooms.GetRoom(c.Request.Context(), roomID, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

type updateRoomRequest struct {
	Name       *string `json:"name"`
	MaxMembers *int    `json:"max_members"`
}

// Update handles PATCH /v1/rooms/:id
func (h *RoomHandler) Update(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	var req updateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)

	room, err := h.rooms.UpdateRoom(c.Request.Context(), roomID, service.RoomChanges{
		Name:       req.Name,
		MaxMembers: req.MaxMembers,
	}, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

// Delete handles DELETE /v1/rooms/:id
func (h *RoomHandler) Delete(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	userID := middleware.GetUserID(c)

	if err := h.rooms.DeleteRoom(c.Request.Context(), roomID, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}
