package webserver

import (
	"net/http"

	"github.com/esir-council/esir/src/council"
	"github.com/gin-gonic/gin"
)

type Committees struct{ svc *council.Service }

func NewCommittees(svc *council.Service) Committees { return Committees{svc: svc} }

func (cm Committees) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required,max=200"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	committee, err := cm.svc.CreateCommittee(c.Request.Context(), actor(c), req.Name)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": committee.ID, "name": committee.Name})
}

func (cm Committees) AddMember(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		VoterID uint64 `json:"voterId" binding:"required"`
		Chair   bool   `json:"chair"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	m, err := cm.svc.AddCommitteeMember(c.Request.Context(), actor(c), id, req.VoterID, req.Chair)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"committeeId": m.CommitteeID, "voterId": m.VoterID, "chair": m.Chair})
}

func (cm Committees) Motions(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	list, err := cm.svc.CommitteeMotions(c.Request.Context(), actor(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, newMotionViews(list))
}

func (cm Committees) Forward(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	m, err := cm.svc.ForwardToCouncil(c.Request.Context(), actor(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, newMotionView(m))
}
