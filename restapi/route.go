package restapi

import (
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/leaderboard"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/pipeline"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	Router *gin.Engine
	event  *events.Events
}

// response to hitting '/' on the server
func GetRoot(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/plain")
	_, err := c.Writer.Write([]byte("Leaderboard"))
	if err != nil {
		st.Logger.Err(err).Msg("get root")
	}
}

// Basic middleware to log errors.
func ErrorLoggerMiddleware(c *gin.Context) {
	if c == nil {
		st.Logger.Error().Msg("gin error, couldn't provide error info as context was nil.")
		return
	}
	c.Next()

	for _, err := range c.Errors {
		if c.Request == nil || c.Request.URL == nil {
			st.Logger.Error().Err(err).Msg("gin error, limited detail was Request or Request URL was nil.")
		} else {
			st.Logger.Error().Err(err).Msgf("gin error on route %s %s with query params %v", c.Request.Method, c.Request.URL, c.Request.URL.Query())
		}
	}
}

func NewServer(sys *leaderboard.System, q leaderboard.Querier, event *events.Events) *Server {
	gin.SetMode(gin.ReleaseMode) // don't print route list on start

	st.Logger.Info().Msg("Start Leaderboard RestAPI")
	router := gin.New()
	router.Use(ErrorLoggerMiddleware)
	api := leaderboard.NewAPI(q)
	// ranked keys from the sketch or the exact batches
	lpath := "/api/v1/leaderboard"
	router.GET(lpath, MetricHandler(lpath, api.GetLeaderboard))
	// compare the sketch against the exact batches
	lpath = "/api/v1/leaderboard/reconcile"
	router.GET(lpath, MetricHandler(lpath, api.GetReconcile))
	// publish occurrences of a key
	lpath = "/api/v1/event"
	router.POST(lpath, MetricHandler(lpath, event.PostEvent))
	// run a single pipeline cycle now
	lpath = "/api/v1/pipeline/stream"
	router.POST(lpath, MetricHandler(lpath, pipeline.RunHandler(sys.Stream)))
	lpath = "/api/v1/pipeline/batch"
	router.POST(lpath, MetricHandler(lpath, pipeline.RunHandler(sys.Batch)))

	// base response
	router.GET("/", GetRoot)

	// memory monitoring
	pprof.Register(router, "debug/pprof")

	// prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{router, event}
}

func (s *Server) Stop() {
	st.Logger.Info().Msg("stopping leaderboard restapi")
	err := s.event.Close()
	if err != nil {
		st.Logger.Warn().Err(err).Msg("failed to close event publisher")
	}
}
