package webserver

import (
	"net/http"

	"github.com/esir-council/esir/src/council"
	"github.com/gin-gonic/gin"
)

type Attendance struct{ svc *council.Service }

func NewAttendance(svc *council.Service) Attendance { return Attendance{svc: svc} }

func (a Attendance) SetSelf(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Present *bool `json:"present" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	rec, err := a.svc.SetAttendanceSelf(c.Request.Context(), actor(c), id, *req.Present)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sessionId": rec.SessionID, "voterId": rec.VoterID, "present": rec.Present})
}

func (a Attendance) Toggle(c *gin.Context) {
	sessionID, ok := idParam(c, "id")
	if !ok {
		return
	}
	voterID, ok := idParam(c, "voterId")
	if !ok {
		return
	}
	rec, err := a.svc.ToggleAttendance(c.Request.Context(), actor(c), sessionID, voterID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": rec.SessionID, "voterId": rec.VoterID, "present": rec.Present})
}

func (a Attendance) Quorum(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	q, err := a.svc.QuorumStatus(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (a Attendance) List(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	rows, err := a.svc.AttendanceList(c.Request.Context(), actor(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	out := make([]attendanceView, len(rows))
	for i, r := range rows {
		out[i] = attendanceView{Voter: newVoterView(r.Voter), Recorded: r.Recorded, Present: r.Present}
	}
	c.JSON(http.StatusOK, out)
}
