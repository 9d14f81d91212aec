// Package ingest is a reference implementation of the ingestion sink the
// harvester submits to: it accepts listing batches over HTTP and keeps
// them in a store.Store.
package ingest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/carscout/models"
	"github.com/use-agent/carscout/sink"
	"github.com/use-agent/carscout/store"
)

// maxImportBody caps an import request body.
const maxImportBody = 32 << 20

// Server serves the sink routes over a Store.
type Server struct {
	store  store.Store
	secret string
	logger *slog.Logger
}

// NewServer creates a Server. When secret is non-empty every import must
// carry a valid signature header.
func NewServer(st store.Store, secret string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: st, secret: secret, logger: logger}
}

// Router builds the gin engine for the sink.
func (s *Server) Router(mode string) *gin.Engine {
	gin.SetMode(mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.POST("/import", s.Import)
	r.GET("/api/health", s.Health)
	r.GET("/api/listings", s.Listings)
	return r
}

// Import handles POST /import: a JSON array of listing records.
func (s *Server) Import(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
		return
	}

	if s.secret != "" && !sink.Verify(s.secret, body, c.GetHeader(sink.SignatureHeader)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var records []models.ListingRecord
	if err := json.Unmarshal(body, &records); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON array of listings: " + err.Error()})
		return
	}

	imported, err := s.store.Upsert(c.Request.Context(), records)
	if err != nil {
		s.logger.Error("import failed", "received", len(records), "stored", imported, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store listings"})
		return
	}

	s.logger.Info("listings imported",
		"received", len(records),
		"imported", imported,
		"skipped", len(records)-imported,
	)
	c.JSON(http.StatusOK, gin.H{"imported": imported})
}

// Health handles GET /api/health.
func (s *Server) Health(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Listings handles GET /api/listings?limit=N.
func (s *Server) Listings(c *gin.Context) {
	limit := store.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	listings, err := s.store.List(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("list listings failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load listings"})
		return
	}
	if listings == nil {
		listings = []store.StoredListing{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(listings), "listings": listings})
}

func readBody(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBody)
	return c.GetRawData()
}
