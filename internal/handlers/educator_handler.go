package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidcare-platform/account-api/internal/models"
)

type createEducatorRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required,min=8"`
	Institution string `json:"institution_id"`
}

type updateEducatorRequest struct {
	Username    string `json:"username"`
	Institution string `json:"institution_id"`
}

type childrenGroupRequest struct {
	Name        string   `json:"name"`
	SchoolClass string   `json:"school_class"`
	Children    []string `json:"children"`
}

func (r childrenGroupRequest) toModel() models.ChildrenGroup {
	group := models.ChildrenGroup{Name: r.Name, SchoolClass: r.SchoolClass}
	if r.Children != nil {
		group.Children = make([]models.Child, 0, len(r.Children))
		for _, id := range r.Children {
			group.Children = append(group.Children, models.Child{User: models.User{ID: id}})
		}
	}
	return group
}

// CreateEducator registers a new educator account.
func (h *Handler) CreateEducator(c *gin.Context) {
	var req createEducatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	educator := models.Educator{User: models.User{
		Username:    req.Username,
		Password:    req.Password,
		Institution: req.Institution,
	}}
	created, err := h.Educators.Add(c.Request.Context(), educator)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetEducators lists educators under the caller's query.
func (h *Handler) GetEducators(c *gin.Context) {
	educators, err := h.Educators.GetAll(c.Request.Context(), parseQuery(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, educators)
}

// GetEducator resolves one educator by id.
func (h *Handler) GetEducator(c *gin.Context) {
	educator, err := h.Educators.GetByID(c.Request.Context(), c.Param("educator_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if educator == nil {
		respondNotFound(c, "Educator not found!", "Educator not found or already removed.")
		return
	}
	c.JSON(http.StatusOK, educator)
}

// UpdateEducator applies a partial update; password and type travel
// through their own protected paths and are not accepted here.
func (h *Handler) UpdateEducator(c *gin.Context) {
	var req updateEducatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	educator := models.Educator{User: models.User{
		ID:          c.Param("educator_id"),
		Username:    req.Username,
		Institution: req.Institution,
	}}
	updated, err := h.Educators.Update(c.Request.Context(), educator)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if updated == nil {
		respondNotFound(c, "Educator not found!", "Educator not found or already removed.")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteEducator removes an educator account.
func (h *Handler) DeleteEducator(c *gin.Context) {
	removed, err := h.Educators.Remove(c.Request.Context(), c.Param("educator_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !removed {
		respondNotFound(c, "Educator not found!", "Educator not found or already removed.")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetEducatorsByChild lists the educators whose groups contain the
// child, each group narrowed to that child's entry.
func (h *Handler) GetEducatorsByChild(c *gin.Context) {
	educators, err := h.Educators.GetAllByChild(c.Request.Context(), c.Param("child_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, educators)
}

// CreateEducatorChildrenGroup registers a group under the educator.
func (h *Handler) CreateEducatorChildrenGroup(c *gin.Context) {
	var req childrenGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	created, err := h.Educators.SaveChildrenGroup(c.Request.Context(), c.Param("educator_id"), req.toModel())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetEducatorChildrenGroups lists the educator's groups.
func (h *Handler) GetEducatorChildrenGroups(c *gin.Context) {
	groups, err := h.Educators.GetAllChildrenGroups(c.Request.Context(), c.Param("educator_id"), parseQuery(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// GetEducatorChildrenGroup resolves one of the educator's groups.
func (h *Handler) GetEducatorChildrenGroup(c *gin.Context) {
	group, err := h.Educators.GetChildrenGroupByID(c.Request.Context(), c.Param("educator_id"), c.Param("group_id"))
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

// UpdateEducatorChildrenGroup applies a partial group update.
func (h *Handler) UpdateEducatorChildrenGroup(c *gin.Context) {
	var req childrenGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	group := req.toModel()
	group.ID = c.Param("group_id")
	updated, err := h.Educators.UpdateChildrenGroup(c.Request.Context(), c.Param("educator_id"), group)
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

// DeleteEducatorChildrenGroup removes a group and its membership entry.
func (h *Handler) DeleteEducatorChildrenGroup(c *gin.Context) {
	removed, err := h.Educators.DeleteChildrenGroup(c.Request.Context(), c.Param("educator_id"), c.Param("group_id"))
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
