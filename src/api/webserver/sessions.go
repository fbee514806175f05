package webserver

import (
	"net/http"
	"time"

	"github.com/esir-council/esir/src/council"
	"github.com/esir-council/esir/src/types"
	"github.com/gin-gonic/gin"
)

type Sessions struct{ svc *council.Service }

func NewSessions(svc *council.Service) Sessions { return Sessions{svc: svc} }

func (s Sessions) List(c *gin.Context) {
	list, err := s.svc.Sessions(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionViews(list))
}

func (s Sessions) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	sess, err := s.svc.Session(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionView(sess))
}

func (s Sessions) Create(c *gin.Context) {
	var req struct {
		Name        string    `json:"name" binding:"required,max=200"`
		ScheduledAt time.Time `json:"scheduledAt" binding:"required"`
		Published   bool      `json:"published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	sess, err := s.svc.CreateSession(c.Request.Context(), actor(c), council.SessionInput{
		Name: req.Name, ScheduledAt: req.ScheduledAt, Published: req.Published,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, newSessionView(sess))
}

// transition runs one of the session state changes on the :id session.
func (s Sessions) transition(c *gin.Context, op func(ctx *gin.Context, id uint64) error) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := op(c, id); err != nil {
		respondErr(c, err)
		return
	}
	sess, err := s.svc.Session(c.Request.Context(), id)
	if err != nil {
		// Deleted sessions are no longer visible.
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, newSessionView(sess))
}

func (s Sessions) Activate(c *gin.Context) {
	s.transition(c, func(ctx *gin.Context, id uint64) error {
		return s.svc.ActivateSession(ctx.Request.Context(), actor(ctx), id)
	})
}

func (s Sessions) Deactivate(c *gin.Context) {
	s.transition(c, func(ctx *gin.Context, id uint64) error {
		return s.svc.DeactivateSession(ctx.Request.Context(), actor(ctx), id)
	})
}

func (s Sessions) Close(c *gin.Context) {
	s.transition(c, func(ctx *gin.Context, id uint64) error {
		return s.svc.CloseSession(ctx.Request.Context(), actor(ctx), id)
	})
}

func (s Sessions) Delete(c *gin.Context) {
	s.transition(c, func(ctx *gin.Context, id uint64) error {
		return s.svc.DeleteSession(ctx.Request.Context(), actor(ctx), id)
	})
}

func (s Sessions) Publish(c *gin.Context) {
	var req struct {
		Published *bool `json:"published" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	s.transition(c, func(ctx *gin.Context, id uint64) error {
		return s.svc.PublishSession(ctx.Request.Context(), actor(ctx), id, *req.Published)
	})
}

func (s Sessions) Agenda(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	agenda, err := s.svc.Agenda(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	out := make([]agendaEntryView, len(agenda))
	for i, e := range agenda {
		out[i] = agendaEntryView{Item: newItemView(e.Item), Poll: optionalPoll(e.Poll)}
	}
	c.JSON(http.StatusOK, out)
}

func (s Sessions) AddItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Ordinal     int    `json:"ordinal" binding:"required,min=1"`
		Title       string `json:"title" binding:"required,max=300"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	item, err := s.svc.AddAgendaItem(c.Request.Context(), actor(c), id, council.AgendaItemInput{
		Ordinal: req.Ordinal, Title: req.Title, Description: req.Description,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, newItemView(item))
}

func (s Sessions) ActivateItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := s.svc.SetActiveAgendaItem(c.Request.Context(), actor(c), id); err != nil {
		respondErr(c, err)
		return
	}
	item, err := s.svc.AgendaItem(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, newItemView(item))
}

func (s Sessions) CreatePoll(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name          string `json:"name" binding:"required,max=200"`
		Visibility    string `json:"visibility"`
		Majority      string `json:"majority"`
		EligibleCount *int   `json:"eligibleCount"`
		Open          bool   `json:"open"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	poll, err := s.svc.CreatePoll(c.Request.Context(), actor(c), id, council.PollInput{
		Name:          req.Name,
		Visibility:    types.Visibility(req.Visibility),
		Majority:      types.MajorityRule(req.Majority),
		EligibleCount: req.EligibleCount,
		Open:          req.Open,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, newPollView(poll))
}
