package webserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/OneOfOne/xxhash"
	"github.com/esir-council/esir/src/council"
	"github.com/gin-gonic/gin"
)

// Public serves the unauthenticated views used by display screens.
type Public struct{ svc *council.Service }

func NewPublic(svc *council.Service) Public { return Public{svc: svc} }

func (p Public) Results(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := p.svc.Results(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCached(c, res)
}

func (p Public) ActiveSession(c *gin.Context) {
	sess, err := p.svc.ActiveSession(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCached(c, newSessionView(sess))
}

func (p Public) Upcoming(c *gin.Context) {
	list, err := p.svc.UpcomingSessions(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCached(c, newSessionViews(list))
}

func (p Public) ActiveItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	cur, err := p.svc.ActiveAgendaItem(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCached(c, activeItemView{Item: newItemView(cur.Item), Poll: optionalPoll(cur.Poll), Result: cur.Result})
}

// respondCached serves body with an ETag and answers 304 when the client
// already holds the same representation.
func respondCached(c *gin.Context, body interface{}) {
	raw, err := json.Marshal(body)
	if err != nil {
		respondErr(c, fmt.Errorf("encode response: %w", err))
		return
	}
	tag := fmt.Sprintf(`"%016x"`, xxhash.Checksum64(raw))
	c.Header("ETag", tag)
	c.Header("Cache-Control", "no-cache")
	if c.GetHeader("If-None-Match") == tag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}
