package webserver

import (
	"log"
	"net/http"
	"strconv"

	"github.com/esir-council/esir/src/data"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// settingNames lists the runtime settings an administrator may change.
var settingNames = map[string]bool{
	"council_name":       true,
	"discord_channel_id": true,
}

type Admin struct {
	db *gorm.DB
}

func NewAdmin(db *gorm.DB) Admin {
	return Admin{db: db}
}

func (a Admin) SetSetting(c *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required"`
		Value string `json:"value" binding:"required,max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if !settingNames[req.Name] {
		c.JSON(http.StatusBadRequest, gin.H{"err": "unknown setting"})
		return
	}
	a.save(c, req.Name, req.Value)
}

func (a Admin) SetDiscordChannel(c *gin.Context) {
	var req struct {
		DiscordChannelID string `json:"discordChannelId" binding:"required,min=10,max=30"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	// Validate Discord channel ID format (should be numeric)
	if _, err := strconv.ParseUint(req.DiscordChannelID, 10, 64); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid Discord channel ID"})
		return
	}
	a.save(c, "discord_channel_id", req.DiscordChannelID)
}

func (a Admin) save(c *gin.Context, name, value string) {
	log.Printf("Admin %d updating setting %s", actor(c).ID, name)

	if err := data.SetSetting(a.db.WithContext(c.Request.Context()), name, value); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
