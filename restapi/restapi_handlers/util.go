package restapi_handlers

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
)

// Error is the json document returned for any failed request.
type Error struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// JSONError replies to the request with the specified error message and HTTP code.
// It does not otherwise end the request; the caller should ensure no further
// writes are done to the gin context.
func JSONError(c *gin.Context, code int, title string, baseErr error) {
	if baseErr == nil {
		baseErr = errors.New("no error provided")
	}
	if code >= 500 && code <= 599 {
		// print traceback so we might be able to determine more about where specifically the error occurred
		debug.PrintStack()
		st.Logger.Err(baseErr).Int("code", code).Str("title", title).Msg("internal restapi error")
	}

	response := Error{Status: fmt.Sprint(code), Title: title, Detail: baseErr.Error()}
	out, err := json.Marshal(response)
	if err != nil {
		st.Logger.Err(err).Int("code", code).Str("title", title).Str("detail", baseErr.Error()).
			Msg("restapi failed to return json error response")
	}

	c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
	c.Writer.WriteHeader(code)
	_, err = c.Writer.Write(out)
	c.Writer.Flush()
	if err != nil {
		st.Logger.Warn().Err(err).Msg("failed to write error response")
	}
}
