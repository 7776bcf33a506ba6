package api

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/scoring"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/types"
)

var endpointList = []string{
	"GET /",
	"POST /log-visit",
	"GET /api/dashboard",
	"GET /leads",
	"POST /add-mapping",
	"GET /health",
	"GET /dashboard",
}

type logVisitRequest struct {
	Referrer   string `json:"referrer"`
	UserAgent  string `json:"userAgent"`
	CurrentURL string `json:"currentUrl"`
	PageTitle  string `json:"pageTitle"`
}

type addMappingRequest struct {
	VPNIdentifier string `json:"vpnIdentifier"`
	RealCompany   string `json:"realCompany"`
}

func (s *Server) handleRoot(c *gin.Context) {
	total, err := s.store.Total(c.Request.Context())
	if err != nil {
		s.log.Errorw("Failed to count visits", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Server is running!",
		"status":      "OK",
		"endpoints":   endpointList,
		"totalVisits": total,
	})
}

func (s *Server) handleLogVisit(c *gin.Context) {
	ctx := c.Request.Context()

	// All telemetry fields are optional; a malformed body is treated as
	// an empty one rather than rejected.
	var req logVisitRequest
	_ = c.ShouldBindJSON(&req)

	address := clientAddress(c)
	identity := s.enricher.Enrich(ctx, address)

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = "unknown"
	}

	visit := types.Visit{
		ID:             uuid.New().String(),
		Address:        address,
		Identity:       identity,
		Referrer:       req.Referrer,
		ReferrerDomain: extractReferrerDomain(req.Referrer),
		UserAgent:      userAgent,
		CurrentURL:     req.CurrentURL,
		PageTitle:      req.PageTitle,
		Timestamp:      time.Now().UTC(),
	}

	if err := s.store.Append(ctx, visit); err != nil {
		s.log.Errorw("Failed to persist visit",
			"visit_id", visit.ID,
			"error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}

	total, err := s.store.Total(ctx)
	if err != nil {
		s.log.Errorw("Failed to count visits", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}

	s.log.Infow("Visit logged",
		"visit_id", visit.ID,
		"company", identity.Company,
		"method", string(identity.DetectionMethod),
		"lead_score", identity.LeadScore,
		"referrer_domain", visit.ReferrerDomain)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Visit logged",
		"visit": gin.H{
			"company":         identity.Company,
			"domain":          identity.Domain,
			"location":        formatLocation(identity),
			"isHighValue":     identity.IsHighValue,
			"leadScore":       identity.LeadScore,
			"detectionMethod": identity.DetectionMethod,
			"confidence":      identity.Confidence,
		},
		"totalVisits": total,
	})
}

func (s *Server) handleDashboard(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := s.store.Total(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}
	rollups, err := s.store.Rollups(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}
	recent, err := s.store.Recent(ctx, s.cfg.Pipeline.RecentVisits)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"totalVisits":     total,
		"uniqueCompanies": len(rollups),
		"companies":       rollups,
		"recentVisits":    recent,
	})
}

func (s *Server) handleLeads(c *gin.Context) {
	leads, err := s.store.Leads(c.Request.Context(), scoring.PotentialLeadThreshold)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(leads),
		"leads":   leads,
	})
}

func (s *Server) handleAddMapping(c *gin.Context) {
	var req addMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	if strings.TrimSpace(req.VPNIdentifier) == "" || strings.TrimSpace(req.RealCompany) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "vpnIdentifier and realCompany are required",
		})
		return
	}

	if err := s.aliases.Add(req.VPNIdentifier, req.RealCompany); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	s.log.Infow("Alias mapping added",
		"identifier", strings.ToLower(req.VPNIdentifier),
		"company", req.RealCompany)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Mapping added",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	total, err := s.store.Total(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "store unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"totalVisits":    total,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":              "Endpoint not found",
		"method":             c.Request.Method,
		"path":               c.Request.URL.Path,
		"availableEndpoints": endpointList,
	})
}

// clientAddress prefers the first X-Forwarded-For entry, falling back
// to the connection's peer address.
func clientAddress(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}

	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}

// extractReferrerDomain reduces a referrer URL to its hostname.
// Empty referrers are "direct" traffic; unparseable ones are flagged
// rather than dropped.
func extractReferrerDomain(referrer string) string {
	if referrer == "" {
		return "direct"
	}
	parsed, err := url.Parse(referrer)
	if err != nil || parsed.Hostname() == "" {
		return "invalid-url"
	}
	return parsed.Hostname()
}

func formatLocation(identity types.Identity) string {
	switch {
	case identity.City != "" && identity.Country != "":
		return identity.City + ", " + identity.Country
	case identity.Country != "":
		return identity.Country
	default:
		return "Unknown"
	}
}
