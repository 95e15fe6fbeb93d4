package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kinohub/cinema-scheduling/internal/model"
	"github.com/kinohub/cinema-scheduling/internal/queue"
	"github.com/kinohub/cinema-scheduling/internal/service"
)

// ReservationHandler exposes the booking endpoints: reservations, their
// lifecycle, customers, and the public availability lookup.
type ReservationHandler struct {
	resv  *service.ReservationService
	sched *service.SchedulingService
	cache *AvailabilityCache
}

// NewReservationHandler wires both services; the scheduling service is
// needed to enrich the payment event with film and room names.  The cache
// may be nil.
func NewReservationHandler(resv *service.ReservationService, sched *service.SchedulingService, cache *AvailabilityCache) *ReservationHandler {
	if resv == nil || sched == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{resv: resv, sched: sched, cache: cache}
}

// Create handles POST /v1/reservations.  The hold starts PENDING and
// lapses after 30 minutes unless confirmed.
func (h *ReservationHandler) Create(c echo.Context) error {
	var body struct {
		CustomerID    uint64 `json:"customer_id"`
		ScreeningID   uint64 `json:"screening_id"`
		Quantity      int    `json:"quantity"`
		PaymentMethod string `json:"payment_method"`
		Notes         string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.resv.Create(c.Request().Context(), service.CreateReservationInput{
		CustomerID:    body.CustomerID,
		ScreeningID:   body.ScreeningID,
		Quantity:      body.Quantity,
		PaymentMethod: body.PaymentMethod,
		Notes:         body.Notes,
	})
	if err != nil {
		return respondErr(c, err)
	}
	h.cache.Invalidate(c.Request().Context(), res.ScreeningID)
	return c.JSON(http.StatusCreated, res)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	res, err := h.resv.Get(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// GetByCode handles GET /v1/reservations/code/:code, the lookup customers
// use at the box office.
func (h *ReservationHandler) GetByCode(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid code"})
	}
	res, err := h.resv.GetByCode(c.Request().Context(), code)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ListByScreening handles GET /v1/screenings/:id/reservations.
func (h *ReservationHandler) ListByScreening(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	list, err := h.resv.ListByScreening(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// ListByCustomer handles GET /v1/customers/:id/reservations.
func (h *ReservationHandler) ListByCustomer(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	list, err := h.resv.ListByCustomer(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Transition handles POST /v1/reservations/:id/status.  The body carries
// the target status; illegal moves are refused.  Reaching PAID publishes a
// payment event for downstream consumers.
func (h *ReservationHandler) Transition(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	to := model.ReservationStatus(body.Status)

	var staffID *uint64
	if sid, err := getStaffID(c); err == nil {
		staffID = &sid
	}

	res, err := h.resv.Transition(c.Request().Context(), id, to, staffID)
	if err != nil {
		return respondErr(c, err)
	}
	h.cache.Invalidate(c.Request().Context(), res.ScreeningID)
	if res.Status == model.ReservationPaid {
		h.publishPaid(res)
	}
	return c.JSON(http.StatusOK, res)
}

// publishPaid fires the reservation.paid event in the background.  Payment
// is already durable in the database, so a broker hiccup only costs the
// notification.
func (h *ReservationHandler) publishPaid(res *model.Reservation) {
	ev := queue.ReservationPaidEvent{
		ReservationID: res.ID,
		Code:          res.Code,
		CustomerID:    res.CustomerID,
		ScreeningID:   res.ScreeningID,
		Quantity:      res.Quantity,
		TotalCents:    res.TotalCents,
	}
	if res.PaidAt != nil {
		ev.PaidAt = res.PaidAt.UTC().Format(time.RFC3339)
	}
	if res.ConfirmedBy != nil {
		ev.StaffID = *res.ConfirmedBy
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if cust, err := h.resv.GetCustomer(ctx, res.CustomerID); err == nil {
			ev.CustomerName = cust.Name
		}
		if sc, err := h.sched.GetScreening(ctx, res.ScreeningID); err == nil {
			ev.StartsAt = sc.StartsAt.Format(time.RFC3339)
			if film, err := h.sched.GetFilm(ctx, sc.FilmID); err == nil {
				ev.FilmTitle = film.Title
			}
			if room, err := h.sched.GetRoom(ctx, sc.RoomID); err == nil {
				ev.RoomName = room.Name
			}
		}
		_ = queue.PublishReservationPaid(ctx, ev)
	}()
}

// Resize handles PATCH /v1/reservations/:id.  Only the quantity can
// change, and only while the reservation is PENDING or CONFIRMED.
func (h *ReservationHandler) Resize(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.resv.Resize(c.Request().Context(), id, body.Quantity)
	if err != nil {
		return respondErr(c, err)
	}
	h.cache.Invalidate(c.Request().Context(), res.ScreeningID)
	return c.JSON(http.StatusOK, res)
}

// Delete handles DELETE /v1/reservations/:id.  PAID and USED reservations
// stay on the books and are refused.
func (h *ReservationHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	res, err := h.resv.Get(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	if err := h.resv.Delete(c.Request().Context(), id); err != nil {
		return respondErr(c, err)
	}
	h.cache.Invalidate(c.Request().Context(), res.ScreeningID)
	return c.NoContent(http.StatusNoContent)
}

// Availability handles GET /v1/screenings/:id/availability, the public
// seat count.  Results come from the Redis cache when fresh; overdue
// pending holds are never counted.
func (h *ReservationHandler) Availability(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	if p, ok := h.cache.Get(ctx, id); ok {
		c.Response().Header().Set("X-Cache", "HIT")
		return c.JSON(http.StatusOK, p)
	}
	avail, reserved, err := h.resv.Availability(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	p := availabilityPayload{ScreeningID: id, Available: avail, Reserved: reserved}
	h.cache.Set(ctx, p)
	c.Response().Header().Set("X-Cache", "MISS")
	return c.JSON(http.StatusOK, p)
}

// CreateCustomer handles POST /v1/customers.
func (h *ReservationHandler) CreateCustomer(c echo.Context) error {
	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	cust, err := h.resv.CreateCustomer(c.Request().Context(), body.Name, body.Email, body.Phone)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, cust)
}

// GetCustomer handles GET /v1/customers/:id.
func (h *ReservationHandler) GetCustomer(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	cust, err := h.resv.GetCustomer(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, cust)
}

// ListCustomers handles GET /v1/customers.
func (h *ReservationHandler) ListCustomers(c echo.Context) error {
	list, err := h.resv.ListCustomers(c.Request().Context())
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
