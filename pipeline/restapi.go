package pipeline

import (
	"context"
	"errors"
	"net/http"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/restapi/restapi_handlers"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// Runner is a pipeline that can run one cycle.
type Runner interface {
	Run(ctx context.Context) (Result, error)
}

// RunHandler runs one cycle per request. An overlapping run is a conflict.
func RunHandler(r Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := r.Run(c.Request.Context())
		var locked *LockedError
		if errors.As(err, &locked) {
			restapi_handlers.JSONError(c, http.StatusConflict, "pipeline busy", err)
			return
		} else if err != nil {
			restapi_handlers.JSONError(c, http.StatusInternalServerError, "pipeline run failed", err)
			return
		}
		out, err := json.Marshal(res)
		if err != nil {
			restapi_handlers.JSONError(c, http.StatusInternalServerError, "Marshalling Failed", err)
			return
		}
		c.Data(http.StatusOK, "application/json", out)
	}
}
