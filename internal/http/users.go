package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/libry/internal/database/users"
	"github.com/avolkov/libry/internal/entities"
)

// ProfileController serves the locally cached user profile. The profile is
// store-only: it never goes through the sync pass.
type ProfileController struct {
	users *users.Repository
}

// NewProfileController creates a new ProfileController.
func NewProfileController(usersRepo *users.Repository) *ProfileController {
	return &ProfileController{users: usersRepo}
}

// Current handles GET /api/user.
func (pc *ProfileController) Current(c *gin.Context) {
	user, ok, err := pc.users.Current()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no profile stored"})
		return
	}
	c.IndentedJSON(http.StatusOK, user)
}

type putProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"required"`
}

// Put handles PUT /api/user, replacing the cached profile.
func (pc *ProfileController) Put(c *gin.Context) {
	var req putProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, ok, err := pc.users.Current()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		user = &entities.User{}
		user.IsSynced = true // store-only, never pushed
	}
	user.Name = req.Name
	user.Email = req.Email

	if err := pc.users.Upsert(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, user)
}

// Forget handles DELETE /api/user, e.g. on logout.
func (pc *ProfileController) Forget(c *gin.Context) {
	user, ok, err := pc.users.Current()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ok {
		if err := pc.users.Remove(user.LocalID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.Status(http.StatusNoContent)
}
