package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kidcare-platform/account-api/internal/errs"
	"github.com/kidcare-platform/account-api/internal/repository"
	"github.com/kidcare-platform/account-api/internal/services"
	"github.com/kidcare-platform/account-api/internal/utils"
)

// Handler bundles the services the route handlers delegate to.
type Handler struct {
	Users               *services.UserService
	Educators           *services.EducatorService
	HealthProfessionals *services.HealthProfessionalService
	Tokens              *utils.TokenManager
	Log                 *slog.Logger
}

func NewHandler(
	users *services.UserService,
	educators *services.EducatorService,
	healthProfessionals *services.HealthProfessionalService,
	tokens *utils.TokenManager,
	log *slog.Logger,
) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		Users:               users,
		Educators:           educators,
		HealthProfessionals: healthProfessionals,
		Tokens:              tokens,
		Log:                 log,
	}
}

// respondError maps the domain error taxonomy onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	if e, ok := err.(*errs.Error); ok {
		status := http.StatusInternalServerError
		switch e.Kind {
		case errs.KindValidation:
			status = http.StatusBadRequest
		case errs.KindConflict:
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"message": e.Message, "description": e.Description})
		return
	}
	h.Log.Error("unhandled error", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "An internal error has occurred. Please try again later..."})
}

func respondNotFound(c *gin.Context, message, description string) {
	c.JSON(http.StatusNotFound, gin.H{"message": message, "description": description})
}

// parseQuery builds a repository query from the request's query string:
// ?page=, ?limit=, ?sort=field or ?sort=-field, ?username= (exact) or
// ?username=*fragment* (pattern).
func parseQuery(c *gin.Context) *repository.Query {
	q := repository.NewQuery()

	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "100"), 10, 64)
	q.SetPagination(page, limit)

	if sortParam := c.Query("sort"); sortParam != "" {
		for _, field := range strings.Split(sortParam, ",") {
			direction := 1
			if strings.HasPrefix(field, "-") {
				direction = -1
				field = strings.TrimPrefix(field, "-")
			}
			if field != "" {
				q.AddOrdination(field, direction)
			}
		}
	}

	if username := c.Query("username"); username != "" {
		if strings.HasPrefix(username, "*") && strings.HasSuffix(username, "*") {
			pattern := strings.Trim(username, "*")
			q.AddFilter(bson.M{"username": primitive.Regex{Pattern: pattern, Options: "i"}})
		} else {
			q.AddFilter(bson.M{"username": username})
		}
	}
	return q
}
