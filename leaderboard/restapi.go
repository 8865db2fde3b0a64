package leaderboard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/restapi/restapi_handlers"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// API serves leaderboard queries over HTTP.
type API struct {
	q Querier
}

func NewAPI(q Querier) *API {
	return &API{q: q}
}

func writeJSON(c *gin.Context, body any) {
	out, err := json.Marshal(body)
	if err != nil {
		restapi_handlers.JSONError(c, http.StatusInternalServerError, "Marshalling Failed", err)
		return
	}
	c.Data(http.StatusOK, "application/json", out)
}

// GetLeaderboard answers ?mode=approximate|exact&k=N.
func (a *API) GetLeaderboard(c *gin.Context) {
	mode := c.DefaultQuery("mode", ModeApproximate)
	k := st.Settings.Query.DefaultK
	if raw, ok := c.GetQuery("k"); ok {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			restapi_handlers.JSONError(c, http.StatusBadRequest, "invalid k", err)
			return
		}
		k = parsed
	}
	resp, err := a.q.TopK(c.Request.Context(), mode, k)
	var invalid *InvalidQueryError
	if errors.As(err, &invalid) {
		restapi_handlers.JSONError(c, http.StatusBadRequest, "invalid query", err)
		return
	} else if err != nil {
		restapi_handlers.JSONError(c, http.StatusInternalServerError, "query failed", err)
		return
	}
	writeJSON(c, resp)
}

// GetReconcile reports how the sketch compares with the exact batches.
func (a *API) GetReconcile(c *gin.Context) {
	report, err := a.q.Reconcile(c.Request.Context())
	if err != nil {
		restapi_handlers.JSONError(c, http.StatusInternalServerError, "reconcile failed", err)
		return
	}
	writeJSON(c, report)
}
