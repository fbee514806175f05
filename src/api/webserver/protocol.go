package webserver

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/esir-council/esir/src/config"
	"github.com/esir-council/esir/src/council"
	"github.com/esir-council/esir/src/reports"
	"github.com/gin-gonic/gin"
)

type Protocols struct {
	svc  *council.Service
	font reports.Font
}

func NewProtocols(svc *council.Service, font reports.Font) Protocols {
	return Protocols{svc: svc, font: font}
}

func (p Protocols) Download(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	protocol, err := p.svc.Protocol(c.Request.Context(), actor(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}

	name := config.GetSetting("council_name", "COUNCIL_NAME", "Rada Miasta")
	var buf bytes.Buffer
	if err := reports.NewGenerator(name, reports.WithFont(p.font)).WriteProtocol(&buf, protocol); err != nil {
		respondErr(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="protokol-sesji-%d.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
