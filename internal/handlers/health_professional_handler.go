package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidcare-platform/account-api/internal/models"
)

type createHealthProfessionalRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required,min=8"`
	Institution string `json:"institution_id"`
}

type updateHealthProfessionalRequest struct {
	Username    string `json:"username"`
	Institution string `json:"institution_id"`
}

// CreateHealthProfessional registers a new health professional account.
func (h *Handler) CreateHealthProfessional(c *gin.Context) {
	var req createHealthProfessionalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	hp := models.HealthProfessional{User: models.User{
		Username:    req.Username,
		Password:    req.Password,
		Institution: req.Institution,
	}}
	created, err := h.HealthProfessionals.Add(c.Request.Context(), hp)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetHealthProfessionals lists health professionals under the caller's
// query.
func (h *Handler) GetHealthProfessionals(c *gin.Context) {
	hps, err := h.HealthProfessionals.GetAll(c.Request.Context(), parseQuery(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hps)
}

// GetHealthProfessional resolves one health professional by id.
func (h *Handler) GetHealthProfessional(c *gin.Context) {
	hp, err := h.HealthProfessionals.GetByID(c.Request.Context(), c.Param("healthprofessional_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if hp == nil {
		respondNotFound(c, "Health Professional not found!", "Health Professional not found or already removed.")
		return
	}
	c.JSON(http.StatusOK, hp)
}

// UpdateHealthProfessional applies a partial update.
func (h *Handler) UpdateHealthProfessional(c *gin.Context) {
	var req updateHealthProfessionalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	hp := models.HealthProfessional{User: models.User{
		ID:          c.Param("healthprofessional_id"),
		Username:    req.Username,
		Institution: req.Institution,
	}}
	updated, err := h.HealthProfessionals.Update(c.Request.Context(), hp)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if updated == nil {
		respondNotFound(c, "Health Professional not found!", "Health Professional not found or already removed.")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteHealthProfessional removes a health professional account.
func (h *Handler) DeleteHealthProfessional(c *gin.Context) {
	removed, err := h.HealthProfessionals.Remove(c.Request.Context(), c.Param("healthprofessional_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !removed {
		respondNotFound(c, "Health Professional not found!", "Health Professional not found or already removed.")
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateHealthProfessionalChildrenGroup registers a group under the
// health professional.
func (h *Handler) CreateHealthProfessionalChildrenGroup(c *gin.Context) {
	var req childrenGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	created, err := h.HealthProfessionals.SaveChildrenGroup(c.Request.Context(), c.Param("healthprofessional_id"), req.toModel())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetHealthProfessionalChildrenGroups lists the health professional's
// groups.
func (h *Handler) GetHealthProfessionalChildrenGroups(c *gin.Context) {
	groups, err := h.HealthProfessionals.GetAllChildrenGroups(c.Request.Context(), c.Param("healthprofessional_id"), parseQuery(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// GetHealthProfessionalChildrenGroup resolves one of the health
// professional's groups.
func (h *Handler) GetHealthProfessionalChildrenGroup(c *gin.Context) {
	group, err := h.HealthProfessionals.GetChildrenGroupByID(c.Request.Context(), c.Param("healthprofessional_id"), c.Param("group_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if group == nil {
		respondNotFound(c, "Children Group not found!", "Children Group not found or already removed.")
		return
	}
	c.JSON(http.StatusOK, group)
}

// UpdateHealthProfessionalChildrenGroup applies a partial group update.
func (h *Handler) UpdateHealthProfessionalChildrenGroup(c *gin.Context) {
	var req childrenGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	group := req.toModel()
	group.ID = c.Param("group_id")
	updated, err := h.HealthProfessionals.UpdateChildrenGroup(c.Request.Context(), c.Param("healthprofessional_id"), group)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if updated == nil {
		respondNotFound(c, "Children Group not found!", "Children Group not found or already removed.")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteHealthProfessionalChildrenGroup removes a group and its
// membership entry.
func (h *Handler) DeleteHealthProfessionalChildrenGroup(c *gin.Context) {
	removed, err := h.HealthProfessionals.DeleteChildrenGroup(c.Request.Context(), c.Param("healthprofessional_id"), c.Param("group_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !removed {
		respondNotFound(c, "Children Group not found!", "Children Group not found or already removed.")
		return
	}
	c.Status(http.StatusNoContent)
}
