package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"health-reminder-api/internal/model"
)

type appointmentIn struct {
	Doctor   string          `json:"doctor_name"`
	At       model.Timestamp `json:"appointment_datetime"`
	Location *string         `json:"location"`
	Purpose  *string         `json:"purpose"`
}

type appointmentPatchIn struct {
	Doctor   *string          `json:"doctor_name"`
	At       *model.Timestamp `json:"appointment_datetime"`
	Location *string          `json:"location"`
	Purpose  *string          `json:"purpose"`
}

func (in appointmentPatchIn) patch(loc *time.Location) model.AppointmentPatch {
	p := model.AppointmentPatch{Doctor: in.Doctor, Location: in.Location, Purpose: in.Purpose}
	if in.At != nil {
		at := in.At.Resolve(loc)
		p.At = &at
	}
	return p
}

func appointmentOwner(a *model.Appointment) string { return a.OwnerID }

// ListAppointments returns the caller's appointments, latest first.
func (h *Handler) ListAppointments(c *gin.Context) {
	appts, err := h.store.ListAppointments(c.Request.Context(), user(c).ID)
	if err != nil {
		h.fail(c, err, "Appointment")
		return
	}
	c.JSON(http.StatusOK, list(appts))
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var in appointmentIn
	if !bind(c, &in) {
		return
	}
	a := &model.Appointment{
		OwnerID:  user(c).ID,
		Doctor:   in.Doctor,
		At:       in.At.Resolve(h.loc),
		Location: in.Location,
		Purpose:  in.Purpose,
	}
	if err := h.store.CreateAppointment(c.Request.Context(), a); err != nil {
		h.fail(c, err, "Appointment")
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	cur, ok := loadOwned(h, c, "Appointment", h.store.GetAppointment, appointmentOwner)
	if !ok {
		return
	}
	var in appointmentPatchIn
	if !bind(c, &in) {
		return
	}
	a, err := h.store.UpdateAppointment(c.Request.Context(), cur.ID, in.patch(h.loc))
	if err != nil {
		h.fail(c, err, "Appointment")
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	cur, ok := loadOwned(h, c, "Appointment", h.store.GetAppointment, appointmentOwner)
	if !ok {
		return
	}
	a, err := h.store.DeleteAppointment(c.Request.Context(), cur.ID)
	if err != nil {
		h.fail(c, err, "Appointment")
		return
	}
	c.JSON(http.StatusOK, a)
}
