package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"health-reminder-api/internal/model"
)

type medicationIn struct {
	Name         string           `json:"name"`
	Dosage       string           `json:"dosage"`
	TimingType   model.TimingType `json:"timing_type"`
	MealTiming   *string          `json:"meal_timing"`
	SpecificTime *model.TimeOfDay `json:"specific_time"`
	Frequency    model.Frequency  `json:"frequency"`
}

func medicationOwner(m *model.Medication) string { return m.OwnerID }

func (h *Handler) ListMedications(c *gin.Context) {
	meds, err := h.store.ListMedications(c.Request.Context(), user(c).ID)
	if err != nil {
		h.fail(c, err, "Medication")
		return
	}
	c.JSON(http.StatusOK, list(meds))
}

func (h *Handler) CreateMedication(c *gin.Context) {
	var in medicationIn
	if !bind(c, &in) {
		return
	}
	m := &model.Medication{
		OwnerID:      user(c).ID,
		Name:         in.Name,
		Dosage:       in.Dosage,
		TimingType:   in.TimingType,
		MealTiming:   in.MealTiming,
		SpecificTime: in.SpecificTime,
		Frequency:    in.Frequency,
	}
	if err := h.store.CreateMedication(c.Request.Context(), m); err != nil {
		h.fail(c, err, "Medication")
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) UpdateMedication(c *gin.Context) {
	cur, ok := loadOwned(h, c, "Medication", h.store.GetMedication, medicationOwner)
	if !ok {
		return
	}
	var p model.MedicationPatch
	if !bind(c, &p) {
		return
	}
	m, err := h.store.UpdateMedication(c.Request.Context(), cur.ID, p)
	if err != nil {
		h.fail(c, err, "Medication")
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteMedication(c *gin.Context) {
	cur, ok := loadOwned(h, c, "Medication", h.store.GetMedication, medicationOwner)
	if !ok {
		return
	}
	m, err := h.store.DeleteMedication(c.Request.Context(), cur.ID)
	if err != nil {
		h.fail(c, err, "Medication")
		return
	}
	c.JSON(http.StatusOK, m)
}

// MarkTaken stamps last_taken_at with the current time. Repeated marks on
// the same day are allowed for multi-dose medications.
func (h *Handler) MarkTaken(c *gin.Context) {
	cur, ok := loadOwned(h, c, "Medication", h.store.GetMedication, medicationOwner)
	if !ok {
		return
	}
	m, err := h.store.MarkMedicationTaken(c.Request.Context(), cur.ID, h.now().UTC())
	if err != nil {
		h.fail(c, err, "Medication")
		return
	}
	c.JSON(http.StatusOK, m)
}
