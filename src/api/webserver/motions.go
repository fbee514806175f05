package webserver

import (
	"net/http"

	"github.com/esir-council/esir/src/council"
	"github.com/gin-gonic/gin"
)

type Motions struct{ svc *council.Service }

func NewMotions(svc *council.Service) Motions { return Motions{svc: svc} }

func (m Motions) Submit(c *gin.Context) {
	var req struct {
		Body         string  `json:"body" binding:"required,max=20000"`
		AgendaItemID *uint64 `json:"agendaItemId"`
		CommitteeID  *uint64 `json:"committeeId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	motion, err := m.svc.SubmitMotion(c.Request.Context(), actor(c), council.MotionInput{
		Body: req.Body, AgendaItemID: req.AgendaItemID, CommitteeID: req.CommitteeID,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, newMotionView(motion))
}

func (m Motions) List(c *gin.Context) {
	list, err := m.svc.Motions(c.Request.Context(), actor(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, newMotionViews(list))
}

func (m Motions) Approve(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	motion, err := m.svc.ApproveMotion(c.Request.Context(), actor(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, newMotionView(motion))
}

func (m Motions) Inbox(c *gin.Context) {
	list, err := m.svc.CouncilInbox(c.Request.Context(), actor(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, newMotionViews(list))
}
