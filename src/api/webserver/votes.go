package webserver

import (
	"net/http"

	"github.com/esir-council/esir/src/council"
	"github.com/esir-council/esir/src/types"
	"github.com/gin-gonic/gin"
)

type Votes struct{ svc *council.Service }

func NewVotes(svc *council.Service) Votes { return Votes{svc: svc} }

// Cast leaves choice validation to the ledger so a closed poll reports
// VotingClosed before an unknown choice is looked at.
func (v Votes) Cast(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Choice string `json:"choice" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	vote, err := v.svc.CastVote(c.Request.Context(), actor(c), id, types.Choice(req.Choice))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"pollId": vote.PollID, "choice": vote.Choice})
}

func (v Votes) Toggle(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	poll, err := v.svc.TogglePoll(c.Request.Context(), actor(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, newPollView(poll))
}

func (v Votes) RollCall(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	calls, err := v.svc.RollCall(c.Request.Context(), actor(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	if calls == nil {
		calls = []council.RollCallEntry{}
	}
	c.JSON(http.StatusOK, calls)
}
