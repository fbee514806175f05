package webserver

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/esir-council/esir/src/council"
	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, council.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, council.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, council.ErrInvalidChoice), errors.Is(err, council.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, council.ErrVotingClosed),
		errors.Is(err, council.ErrAlreadyVoted),
		errors.Is(err, council.ErrAlreadyRecorded),
		errors.Is(err, council.ErrConflict),
		errors.Is(err, council.ErrInvalidState):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respondErr(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("api: %s %s [%s]: %v", c.Request.Method, c.FullPath(), c.GetString(ctxRequestID), err)
		c.JSON(status, gin.H{"err": "internal error"})
		return
	}
	c.JSON(status, gin.H{"err": err.Error()})
}

// idParam parses a positive numeric path parameter, answering 400 otherwise.
func idParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "bad " + name})
		return 0, false
	}
	return id, true
}
