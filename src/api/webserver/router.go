package webserver

import (
	"context"
	"time"

	"github.com/esir-council/esir/src/config"
	"github.com/esir-council/esir/src/council"
	"github.com/esir-council/esir/src/data"
	"github.com/esir-council/esir/src/reports"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// EventReader is the read side of the event stream.
type EventReader interface {
	Read(ctx context.Context, lastID string, block time.Duration) ([]data.StreamEvent, error)
}

type Options struct {
	Config  config.Config
	Council *council.Service
	DB      *gorm.DB
	Events  EventReader
	// Context bounds background work such as the rate limiter janitor.
	// Defaults to context.Background.
	Context context.Context
	// ProtocolFont is embedded into protocol PDFs when set.
	ProtocolFont reports.Font
}

func New(opts Options) *gin.Engine {
	g := gin.New()
	g.Use(RequestID(), gin.Logger(), gin.Recovery())
	attachRoutes(g, opts)
	return g
}

func attachRoutes(r *gin.Engine, opts Options) {
	cfg := opts.Config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "If-None-Match", "Last-Event-ID"},
		ExposeHeaders:    []string{"Content-Length", "ETag", requestIDHeader},
		AllowCredentials: true,
	}))

	svc := opts.Council
	publicH := NewPublic(svc)
	eventsH := NewEvents(opts.Events)
	sessionH := NewSessions(svc)
	voteH := NewVotes(svc)
	attendH := NewAttendance(svc)
	motionH := NewMotions(svc)
	committeeH := NewCommittees(svc)
	protocolH := NewProtocols(svc, opts.ProtocolFont)
	adminH := NewAdmin(opts.DB)

	v1 := r.Group("/v1")

	public := v1.Group("/public")
	{
		public.GET("/polls/:id/results", publicH.Results)
		public.GET("/sessions/active", publicH.ActiveSession)
		public.GET("/sessions/upcoming", publicH.Upcoming)
		public.GET("/sessions/:id/active-item", publicH.ActiveItem)
		public.GET("/events", eventsH.Stream)
	}

	secret := []byte(cfg.JWTSecret)
	secured := v1.Group("")
	secured.Use(JWTMiddleware(secret), IdentityMiddleware(svc))
	{
		secured.GET("/me", voterMe)
		secured.GET("/sessions", sessionH.List)
		secured.GET("/sessions/:id", sessionH.Get)
		secured.GET("/sessions/:id/agenda", sessionH.Agenda)
		secured.GET("/sessions/:id/quorum", attendH.Quorum)
		secured.POST("/sessions/:id/attendance", attendH.SetSelf)

		ctx := opts.Context
		if ctx == nil {
			ctx = context.Background()
		}
		limiter := NewRateLimiter(ctx, cfg.VoteRateLimit, cfg.VoteRateWindow)
		secured.POST("/polls/:id/votes", RateLimitMiddleware(limiter), voteH.Cast)
		secured.GET("/polls/:id/roll-call", voteH.RollCall)

		secured.POST("/motions", motionH.Submit)
		secured.GET("/motions", motionH.List)
		secured.POST("/motions/:id/forward", committeeH.Forward)
		secured.GET("/committees/:id/motions", committeeH.Motions)
	}

	operator := secured.Group("")
	operator.Use(RequireCapability(council.CanOperateSession))
	{
		operator.POST("/sessions", sessionH.Create)
		operator.DELETE("/sessions/:id", sessionH.Delete)
		operator.POST("/sessions/:id/activate", sessionH.Activate)
		operator.POST("/sessions/:id/deactivate", sessionH.Deactivate)
		operator.POST("/sessions/:id/close", sessionH.Close)
		operator.PUT("/sessions/:id/published", sessionH.Publish)
		operator.POST("/sessions/:id/items", sessionH.AddItem)
		operator.GET("/sessions/:id/attendance", attendH.List)
		operator.POST("/sessions/:id/attendance/:voterId/toggle", attendH.Toggle)
		operator.GET("/sessions/:id/protocol.pdf", protocolH.Download)
		operator.POST("/items/:id/activate", sessionH.ActivateItem)
		operator.POST("/items/:id/poll", sessionH.CreatePoll)
		operator.POST("/polls/:id/toggle", voteH.Toggle)
		operator.POST("/motions/:id/approve", motionH.Approve)
		operator.GET("/inbox", motionH.Inbox)
	}

	admin := secured.Group("/admin")
	admin.Use(RequireCapability(council.CanAdminister))
	{
		admin.POST("/committees", committeeH.Create)
		admin.POST("/committees/:id/members", committeeH.AddMember)
		admin.PUT("/settings", adminH.SetSetting)
		admin.POST("/discord/channel", adminH.SetDiscordChannel)
	}
}
