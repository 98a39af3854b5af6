package server

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	identitydomain "github.com/wordbridge/linguameter/internal/identity/domain"
	"github.com/wordbridge/linguameter/internal/period"
	"go.uber.org/zap"
)

type usageRow struct {
	UserID          string   `json:"userId"`
	DisplayName     string   `json:"displayName,omitempty"`
	CharCount       int64    `json:"charCount"`
	TargetLanguages []string `json:"targetLanguages,omitempty"`
}

type usageReportResponse struct {
	Period      string     `json:"period"`
	GlobalChars int64      `json:"globalChars"`
	Users       []usageRow `json:"users"`
}

// UsageReport joins the per-user counters for a period with the identity
// display names. Counters for users that never registered still show up,
// just without a name.
func (s *Server) UsageReport(c *gin.Context) {
	p := c.Query("period")
	if p == "" {
		p = s.periods.Current()
	}
	if !period.Valid(p) {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()

	rows, err := s.contingentSvc.ListUserUsage(ctx, p)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	names := map[string]string{}
	records, err := s.identitySvc.List(ctx)
	if err != nil {
		s.log.Warn("usage report without display names", zap.Error(err))
	} else {
		for _, rec := range records {
			names[rec.UserID] = rec.DisplayName
		}
	}

	var globalChars int64
	users := make([]usageRow, 0, len(rows))
	for _, row := range rows {
		globalChars += row.CharCount
		users = append(users, usageRow{
			UserID:          row.UserID,
			DisplayName:     names[row.UserID],
			CharCount:       row.CharCount,
			TargetLanguages: row.TargetLanguages,
		})
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CharCount > users[j].CharCount
	})

	c.JSON(http.StatusOK, usageReportResponse{
		Period:      p,
		GlobalChars: globalChars,
		Users:       users,
	})
}

func (s *Server) ListIdentities(c *gin.Context) {
	records, err := s.identitySvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].DisplayName < records[j].DisplayName
	})
	c.JSON(http.StatusOK, gin.H{"identities": records})
}

type promoteRequest struct {
	Devices []identitydomain.DeviceRef `json:"devices"`
}

func (s *Server) PromoteIdentities(c *gin.Context) {
	var req promoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if len(req.Devices) == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.identitySvc.PromotePrivileged(c.Request.Context(), req.Devices); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// EnsureContingent forces creation of the period config document without
// waiting for the first translate call or the scheduler tick.
func (s *Server) EnsureContingent(c *gin.Context) {
	p := c.Query("period")
	if p == "" {
		p = s.periods.Current()
	}
	if !period.Valid(p) {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.contingentSvc.EnsureConfig(c.Request.Context(), p); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "period": p})
}
