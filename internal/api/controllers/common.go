package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"khaja/internal/models/db_models"
	"khaja/internal/models/request_models"
	"khaja/pkg/utils"
)

// actorFrom reads the identity JWTAuthMiddleware stored on the context. It responds 401 and
// returns false when the claims are unusable.
func actorFrom(c *gin.Context) (request_models.Actor, bool) {
	id, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "Invalid token subject")
		return request_models.Actor{}, false
	}
	return request_models.Actor{ID: id, Role: db_models.Role(c.GetString("Role"))}, true
}

// pathID parses a uuid path parameter, responding 400 when it is malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
