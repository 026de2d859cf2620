package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mern-bugtracker/bug-tracker/internal/core/ports"
)

// HeaderIdempotencyKey lets clients retry POST /api/bugs without duplicates.
const HeaderIdempotencyKey = "Idempotency-Key"

// ContextKeyActor is the echo context key under which the authenticated
// caller's email is stored.
const ContextKeyActor = "actor"

// BugHandler handles HTTP requests for bug operations.
type BugHandler struct {
	service  ports.BugService
	activity ports.ActivityService
}

func NewBugHandler(service ports.BugService, activity ports.ActivityService) *BugHandler {
	return &BugHandler{service: service, activity: activity}
}

func actorOf(c echo.Context) string {
	actor, _ := c.Get(ContextKeyActor).(string)
	return actor
}

// List handles GET /api/bugs.
//
// @Summary      List bugs
// @Description  Returns every bug, newest first.
// @Tags         bugs
// @Produce      json
// @Success      200  {object}  bugListResponse
// @Failure      500  {object}  ErrorEnvelope
// @Router       /bugs [get]
func (h *BugHandler) List(c echo.Context) error {
	bugs, err := h.service.ListBugs(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bugListResponse{Success: true, Count: len(bugs), Data: bugs})
}

// Get handles GET /api/bugs/:id.
//
// @Summary      Get a bug
// @Tags         bugs
// @Produce      json
// @Param        id   path      string  true  "Bug id"
// @Success      200  {object}  bugResponse
// @Failure      400  {object}  ErrorEnvelope
// @Failure      404  {object}  ErrorEnvelope
// @Router       /bugs/{id} [get]
func (h *BugHandler) Get(c echo.Context) error {
	bug, err := h.service.GetBug(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bugResponse{Success: true, Data: bug})
}

// Create handles POST /api/bugs.
//
// @Summary      Report a bug
// @Tags         bugs
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string      false  "Replay protection key"
// @Param        body             body      bugRequest  true   "Bug details"
// @Success      201              {object}  bugResponse
// @Success      200              {object}  bugResponse  "Idempotent replay"
// @Failure      400              {object}  ErrorEnvelope
// @Router       /bugs [post]
func (h *BugHandler) Create(c echo.Context) error {
	var req bugRequest
	if err := c.Bind(&req); err != nil {
		return WithStatus(err, http.StatusBadRequest)
	}

	result, err := h.service.CreateBug(c.Request().Context(), ports.CreateBugInput{
		Bug:            req.toInput(),
		IdempotencyKey: strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey)),
		Actor:          actorOf(c),
	})
	if err != nil {
		return WithStatus(err, http.StatusBadRequest)
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	return c.JSON(status, bugResponse{Success: true, Data: result.Bug})
}

// Update handles PUT /api/bugs/:id.
//
// @Summary      Update a bug
// @Description  Replaces the editable fields of a bug. The reporter is kept when omitted.
// @Tags         bugs
// @Accept       json
// @Produce      json
// @Param        id    path      string      true  "Bug id"
// @Param        body  body      bugRequest  true  "Bug details"
// @Success      200   {object}  bugResponse
// @Failure      400   {object}  ErrorEnvelope
// @Failure      404   {object}  ErrorEnvelope
// @Router       /bugs/{id} [put]
func (h *BugHandler) Update(c echo.Context) error {
	var req bugRequest
	if err := c.Bind(&req); err != nil {
		return WithStatus(err, http.StatusBadRequest)
	}

	bug, err := h.service.UpdateBug(c.Request().Context(), c.Param("id"), req.toInput(), actorOf(c))
	if err != nil {
		return WithStatus(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, bugResponse{Success: true, Data: bug})
}

// Delete handles DELETE /api/bugs/:id.
//
// @Summary      Delete a bug
// @Tags         bugs
// @Produce      json
// @Param        id   path      string  true  "Bug id"
// @Success      200  {object}  bugDeletedResponse
// @Failure      400  {object}  ErrorEnvelope
// @Failure      404  {object}  ErrorEnvelope
// @Router       /bugs/{id} [delete]
func (h *BugHandler) Delete(c echo.Context) error {
	bug, err := h.service.DeleteBug(c.Request().Context(), c.Param("id"), actorOf(c))
	if err != nil {
		return WithStatus(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, bugDeletedResponse{
		Success: true,
		Message: "Bug deleted successfully",
		Data:    bug,
	})
}

// Activity handles GET /api/bugs/:id/activity.
//
// @Summary      Bug activity
// @Description  Audit trail of a bug, newest first. Entries remain after the bug is deleted.
// @Tags         bugs
// @Produce      json
// @Param        id   path      string  true  "Bug id"
// @Success      200  {object}  activityListResponse
// @Failure      400  {object}  ErrorEnvelope
// @Router       /bugs/{id}/activity [get]
func (h *BugHandler) Activity(c echo.Context) error {
	entries, err := h.activity.History(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, activityListResponse{Success: true, Count: len(entries), Data: entries})
}
