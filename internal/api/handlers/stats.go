package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lunhatthanh83-boop/bottele/internal/store"
)

type StatsResponse struct {
	TotalUsers     int `json:"total_users"`
	NormalUsers    int `json:"normal_users"`
	VIPUsers       int `json:"vip_users"`
	TotalScans     int `json:"total_scans"`
	ScansToday     int `json:"scans_today"`
	VIPExpiring7d  int `json:"vip_expiring_7d"`
}

func (h *Handler) GetStats(c *gin.Context) {
	accounts := h.accounts.All()
	now := time.Now().UTC()

	resp := StatsResponse{TotalUsers: len(accounts)}
	for _, acc := range accounts {
		switch acc.Plan {
		case store.PlanVIP:
			resp.VIPUsers++
			if acc.VIPExpiry != nil && acc.VIPExpiry.Sub(now) < 7*24*time.Hour {
				resp.VIPExpiring7d++
			}
		default:
			resp.NormalUsers++
		}
		resp.TotalScans += acc.FileCount
	}
	resp.ScansToday = h.stats.Snapshot(now.Format("2006-01-02")).Scans

	c.JSON(http.StatusOK, resp)
}
