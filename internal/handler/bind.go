package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/craftyclassroom/classroom-api/pkg/errors"
	"github.com/craftyclassroom/classroom-api/pkg/response"
)

// bindJSON decodes the request body into dest, answering 400 on failure.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// reply writes data on success or the mapped error otherwise.
func reply(c *gin.Context, data interface{}, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, data)
}
