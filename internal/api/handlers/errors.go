package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apimiddleware "github.com/Conceptual-Machines/magda-composer/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-composer/internal/music/notation"
	"github.com/Conceptual-Machines/magda-composer/internal/services"
)

// respondError maps domain errors onto HTTP responses. Errors with no
// specific mapping get the fallback status.
func respondError(c *gin.Context, fallback int, err error) {
	var (
		composeErr *services.ComposeError
		parseErr   *notation.ParseError
		limitErr   *services.RenderLimitError
	)

	body := gin.H{
		"error":      err.Error(),
		"request_id": apimiddleware.RequestID(c),
	}
	status := fallback

	switch {
	case errors.As(err, &composeErr):
		status = http.StatusUnprocessableEntity
		body["attempts"] = composeErr.Attempts
		body["notation"] = composeErr.Last
		if errors.As(err, &parseErr) {
			body["fragment"] = parseErr.Fragment
			body["expected"] = parseErr.Expected
		}
	case errors.As(err, &parseErr):
		status = http.StatusBadRequest
		body["fragment"] = parseErr.Fragment
		body["expected"] = parseErr.Expected
	case errors.As(err, &limitErr):
		status = http.StatusRequestEntityTooLarge
		body["seconds"] = limitErr.Seconds
		body["max_seconds"] = limitErr.Max
	case errors.Is(err, services.ErrNothingToRender), errors.Is(err, services.ErrTooManyLoops):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrRecordsDisabled):
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, body)
}
