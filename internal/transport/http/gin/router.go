package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"campusport/internal/domain"
	redisrepo "campusport/internal/repository/redis"
	"campusport/internal/service"
	"campusport/internal/service/approval"
	"campusport/internal/service/catalog"
	"campusport/internal/service/identity"
	"campusport/internal/service/reservation"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	authSecret string,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("", AuthMiddleware(authSecret))

	api.GET("/halls", handleListHalls(svcs))
	api.GET("/slots", handleListSlots(svcs))

	api.GET("/bookings", handleListBookings(svcs))
	api.GET("/bookings/mine", handleOwnBookings(svcs))
	api.POST("/bookings", handleReserve(svcs, idem))
	api.PATCH("/bookings/:id", handleUpdatePurpose(svcs))
	api.PATCH("/bookings/:id/status", handleSetStatus(svcs))
	api.DELETE("/bookings/:id", handleDeleteBooking(svcs))

	api.GET("/bookings/feed", handleAllBookingsFeed(svcs))
	api.GET("/bookings/mine/feed", handleOwnBookingsFeed(svcs))

	api.GET("/faculty", handleFaculty(svcs))

	api.GET("/me", handleGetMe(svcs))
	api.PUT("/me", handleSaveMe(svcs))

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  List halls (seeds the catalog on first call)
// @Success  200  {array}   domain.Hall
// @Failure  503  {object}  ErrorResponse
// @Router   /halls [get]
func handleListHalls(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		halls, err := svcs.Catalog.ListHalls(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 60s
		writeJSONWithCache(c, http.StatusOK, halls, "private, max-age=60", true)
	}
}

// @Summary  List the fixed daily time slots
// @Success  200  {object}  SlotsResponse
// @Router   /slots [get]
func handleListSlots(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		writeJSONWithCache(
			c,
			http.StatusOK,
			SlotsResponse{Slots: svcs.Catalog.TimeSlots()},
			"private, max-age=3600",
			true,
		)
	}
}

// @Summary  List bookings, all or for one day
// @Param    date  query  string  false  "day key YYYY-MM-DD"
// @Success  200  {array}  domain.Booking
// @Router   /bookings [get]
func handleListBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if dateStr := c.Query("date"); dateStr != "" {
			day, err := parseDay(dateStr)
			if err != nil {
				badRequest(c, "invalid date (YYYY-MM-DD)")
				return
			}

			grid, err := svcs.Query.DayGrid(c.Request.Context(), day)
			if err != nil {
				respondErr(c, err)
				return
			}
			// ETag + Cache-Control 15s (kept short; the feed carries live state)
			writeJSONWithCache(c, http.StatusOK, grid, "private, max-age=15", true)
			return
		}

		bookings, err := svcs.Query.AllBookings(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, bookings)
	}
}

// @Summary  List the requester's bookings, date ascending
// @Success  200  {array}  domain.Booking
// @Router   /bookings/mine [get]
func handleOwnBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		bookings, err := svcs.Query.OwnBookings(c.Request.Context(), actor.UserID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, bookings)
	}
}

// @Summary  Reserve a slot (idempotent)
// @Param    req body  ReserveRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} ReserveResponse
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse "hall not found"
// @Failure  409 {object} ReserveResponse "slot already taken / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /bookings [post]
func handleReserve(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		var req ReserveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		day, err := parseDay(req.Date)
		if err != nil {
			badRequest(c, "invalid date (YYYY-MM-DD)")
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemReserve(req.HallID, req.Slot, domain.DayKey(day), idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		releaseIdem := func() {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
		}

		rlKey := "ip:" + c.ClientIP()

		result, err := svcs.Reservation.Reserve(c.Request.Context(), reservation.Request{
			HallID:    req.HallID,
			Slot:      req.Slot,
			Date:      day,
			Requester: actor,
			Purpose:   req.Purpose,
		}, rlKey)
		if err != nil {
			releaseIdem()
			if errors.Is(err, reservation.ErrRateLimited) {
				c.Header("Retry-After", "60")
				c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many reservation attempts"})
				return
			}
			respondErr(c, err)
			return
		}

		if !result.Accepted {
			// Expected business outcome; the key stays replayable so the
			// client can retry once the slot frees up.
			releaseIdem()
			c.JSON(http.StatusConflict, ReserveResponse{
				Accepted: false,
				Message:  result.Message,
			})
			return
		}

		resp := ReserveResponse{
			Accepted: true,
			ID:       result.ID.String(),
			Status:   string(result.Status),
			Message:  result.Message,
		}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Edit the purpose of an own booking
// @Param    id   path  string  true  "Booking ID (uuid)"
// @Param    req  body  UpdatePurposeRequest  true  "payload"
// @Success  204
// @Failure  403  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /bookings/{id} [patch]
func handleUpdatePurpose(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		var req UpdatePurposeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if err := svcs.Approval.UpdatePurpose(c.Request.Context(), actor, id, req.Purpose); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Approve or reject a booking (elevated roles only)
// @Param    id   path  string  true  "Booking ID (uuid)"
// @Param    req  body  SetStatusRequest  true  "payload"
// @Success  204
// @Failure  403  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /bookings/{id}/status [patch]
func handleSetStatus(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		var req SetStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		err := svcs.Approval.SetStatus(c.Request.Context(), actor, id, domain.BookingStatus(req.Status))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Delete a booking (owner, or elevated over non-elevated owners)
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  204
// @Failure  403  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /bookings/{id} [delete]
func handleDeleteBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		if err := svcs.Approval.Delete(c.Request.Context(), actor, id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Live feed of all bookings (SSE, full snapshot per change)
// @Success  200  {string}  string  "text/event-stream"
// @Router   /bookings/feed [get]
func handleAllBookingsFeed(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := svcs.Watch.SubscribeAll(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		streamFeed(c, sub)
	}
}

// @Summary  Live feed of the requester's bookings (SSE)
// @Success  200  {string}  string  "text/event-stream"
// @Router   /bookings/mine/feed [get]
func handleOwnBookingsFeed(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		sub, err := svcs.Watch.SubscribeOwn(c.Request.Context(), actor.UserID)
		if err != nil {
			respondErr(c, err)
			return
		}
		streamFeed(c, sub)
	}
}

// @Summary  List or search the faculty directory
// @Param    q  query  string  false  "substring over name/email/dept"
// @Success  200  {array}  domain.Faculty
// @Router   /faculty [get]
func handleFaculty(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Directory.Search(c.Request.Context(), c.Query("q"))
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, out, "private, max-age=60", true)
	}
}

// @Summary  Get the requester's stored profile
// @Success  200  {object}  domain.User
// @Failure  404  {object}  ErrorResponse
// @Router   /me [get]
func handleGetMe(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		u, err := svcs.Identity.GetUser(c.Request.Context(), actor.UserID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// @Summary  Upsert the requester's profile at login
// @Param    req  body  SaveUserRequest  true  "payload"
// @Success  204
// @Router   /me [put]
func handleSaveMe(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		var req SaveUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if err := svcs.Identity.SaveUser(c.Request.Context(), req.toUser(actor)); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// --- Helpers ---

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// catalog service
	case errors.Is(err, catalog.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "hall catalog unavailable"})
		return
	// reservation service
	case errors.Is(err, reservation.ErrInvalidSlot):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid time slot"})
		return
	case errors.Is(err, reservation.ErrHallNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "hall not found"})
		return
	// approval service
	case errors.Is(err, approval.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
		return
	case errors.Is(err, approval.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
		return
	case errors.Is(err, approval.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "status must be approved or rejected"})
		return
	case errors.Is(err, approval.ErrSlotConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "slot is occupied by another live booking"})
		return
	// identity service
	case errors.Is(err, identity.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
