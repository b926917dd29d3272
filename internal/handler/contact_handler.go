package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"health-reminder-api/internal/model"
)

type contactIn struct {
	Name         string  `json:"contact_name"`
	Phone        string  `json:"phone_number"`
	Relationship *string `json:"relationship_type"`
}

func contactOwner(ec *model.EmergencyContact) string { return ec.OwnerID }

func (h *Handler) ListContacts(c *gin.Context) {
	contacts, err := h.store.ListContacts(c.Request.Context(), user(c).ID)
	if err != nil {
		h.fail(c, err, "Contact")
		return
	}
	c.JSON(http.StatusOK, list(contacts))
}

func (h *Handler) CreateContact(c *gin.Context) {
	var in contactIn
	if !bind(c, &in) {
		return
	}
	ec := &model.EmergencyContact{
		OwnerID:      user(c).ID,
		Name:         in.Name,
		Phone:        in.Phone,
		Relationship: in.Relationship,
	}
	if err := h.store.CreateContact(c.Request.Context(), ec); err != nil {
		h.fail(c, err, "Contact")
		return
	}
	c.JSON(http.StatusCreated, ec)
}

func (h *Handler) UpdateContact(c *gin.Context) {
	cur, ok := loadOwned(h, c, "Contact", h.store.GetContact, contactOwner)
	if !ok {
		return
	}
	var p model.ContactPatch
	if !bind(c, &p) {
		return
	}
	ec, err := h.store.UpdateContact(c.Request.Context(), cur.ID, p)
	if err != nil {
		h.fail(c, err, "Contact")
		return
	}
	c.JSON(http.StatusOK, ec)
}

func (h *Handler) DeleteContact(c *gin.Context) {
	cur, ok := loadOwned(h, c, "Contact", h.store.GetContact, contactOwner)
	if !ok {
		return
	}
	ec, err := h.store.DeleteContact(c.Request.Context(), cur.ID)
	if err != nil {
		h.fail(c, err, "Contact")
		return
	}
	c.JSON(http.StatusOK, ec)
}
