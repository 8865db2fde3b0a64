package events

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/restapi/restapi_handlers"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
)

// PostEventRequest is the body accepted by PostEvent.
type PostEventRequest struct {
	Key       string `json:"key"`
	EventType string `json:"event_type"`
	// number of occurrences to publish, defaults to one
	Count int `json:"count"`
}

type PostEventResponse struct {
	Published []Event `json:"published"`
}

// PostEvent publishes occurrences of a key received over HTTP.
func (ev *Events) PostEvent(c *gin.Context) {
	defer c.Request.Body.Close()
	req := PostEventRequest{}
	err := json.NewDecoder(c.Request.Body).Decode(&req)
	if err != nil {
		restapi_handlers.JSONError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Key == "" {
		restapi_handlers.JSONError(c, http.StatusBadRequest, "missing key", errors.New("key must be provided"))
		return
	}
	if req.Count == 0 {
		req.Count = 1
	}
	if req.Count < 0 || req.Count > maxPublishCount {
		restapi_handlers.JSONError(c, http.StatusUnprocessableEntity, "bad count",
			fmt.Errorf("count must be between 1 and %d", maxPublishCount))
		return
	}

	published, err := ev.PublishMany(c.Request.Context(), req.Key, req.EventType, req.Count)
	if err != nil {
		restapi_handlers.JSONError(c, http.StatusInternalServerError, "failed to publish event", err)
		return
	}
	out, err := json.Marshal(PostEventResponse{Published: published})
	if err != nil {
		restapi_handlers.JSONError(c, http.StatusInternalServerError, "Marshalling Failed", err)
		return
	}
	c.Data(http.StatusOK, "application/json", out)
	st.Logger.Debug().Str("key", req.Key).Int("count", len(published)).Msg("published events")
}
