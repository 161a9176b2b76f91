package compliance

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lexguard-backend/internal/documents"
	"lexguard-backend/internal/shared/server/middleware"
	"lexguard-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches compliance routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:id/scan", h.scan)
	rg.GET("/documents/:id/compliance", h.latest)
	rg.GET("/documents/:id/findings", h.findings)
	rg.POST("/documents/:id/findings/:findingId/resolve", h.resolve)
}

func (h *Handler) scan(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")
	if documentID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "document id is required", nil)
		return
	}
	c.Set("documentId", documentID)

	err := h.Svc.StartScan(c.Request.Context(), userID, documentID)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrScanInProgress):
			respond.Error(c, http.StatusConflict, "scan_in_progress", "a scan for this document is already running", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start scan", nil)
		}
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{"documentId": documentID, "status": "scanning"})
}

func (h *Handler) latest(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")
	if documentID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "document id is required", nil)
		return
	}
	c.Set("documentId", documentID)

	result, err := h.Svc.LatestResult(c.Request.Context(), userID, documentID)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrNoCheck):
			respond.Error(c, http.StatusNotFound, "no_check", "document has not been scanned yet", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load compliance result", nil)
		}
		return
	}

	c.Set("checkId", result.CheckID)
	respond.JSON(c, http.StatusOK, toResultResponse(result))
}

func (h *Handler) findings(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")
	if documentID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "document id is required", nil)
		return
	}
	c.Set("documentId", documentID)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	status := c.Query("status")

	findings, err := h.Svc.ListFindings(c.Request.Context(), userID, documentID, status, limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrInvalidStatus):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list findings", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"findings": toFindingResponses(findings)})
}

func (h *Handler) resolve(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")
	findingID := c.Param("findingId")
	if documentID == "" || findingID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "document id and finding id are required", nil)
		return
	}
	c.Set("documentId", documentID)

	finding, err := h.Svc.ResolveFinding(c.Request.Context(), userID, documentID, findingID)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "finding not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to resolve finding", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toFindingResponse(finding))
}
