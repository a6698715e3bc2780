package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brandpilot/brandpilot-backend/internal/logger"
	"github.com/brandpilot/brandpilot-backend/internal/requestdata"
	"github.com/brandpilot/brandpilot-backend/internal/services"
)

type BriefHandler struct {
	log       *logger.Logger
	workflow  services.BriefWorkflowService
	generator services.PackGeneratorService
	packs     services.PackQueryService
}

func NewBriefHandler(log *logger.Logger, workflow services.BriefWorkflowService, generator services.PackGeneratorService, packs services.PackQueryService) *BriefHandler {
	return &BriefHandler{
		log:       log.With("handler", "BriefHandler"),
		workflow:  workflow,
		generator: generator,
		packs:     packs,
	}
}

type createBriefRequest struct {
	Name           string `json:"name" binding:"required"`
	Objective      string `json:"objective"`
	TargetAudience string `json:"target_audience"`
	ProductService string `json:"product_service"`
	KeyMessage     string `json:"key_message"`
	StyleDirection string `json:"style_direction"`
}

func (h *BriefHandler) CreateBrief(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.OrgID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req createBriefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	brief, err := h.workflow.Create(c.Request.Context(), services.CreateBriefInput{
		OrgID:          rd.OrgID,
		UserID:         rd.UserID,
		Name:           req.Name,
		Objective:      req.Objective,
		TargetAudience: req.TargetAudience,
		ProductService: req.ProductService,
		KeyMessage:     req.KeyMessage,
		StyleDirection: req.StyleDirection,
	})
	if err != nil {
		h.log.Error("CreateBrief failed", "error", err, "org_id", rd.OrgID)
		RespondError(c, http.StatusInternalServerError, "create_brief_failed", err)
		return
	}
	RespondOK(c, gin.H{"brief": brief})
}

func (h *BriefHandler) ListBriefs(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.OrgID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	briefs, err := h.workflow.List(c.Request.Context(), rd.OrgID, 0)
	if err != nil {
		h.log.Error("ListBriefs failed", "error", err, "org_id", rd.OrgID)
		RespondError(c, http.StatusInternalServerError, "list_briefs_failed", err)
		return
	}
	RespondOK(c, gin.H{"briefs": briefs})
}

func (h *BriefHandler) GetBrief(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.OrgID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	briefID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_brief_id", err)
		return
	}
	brief, err := h.workflow.Get(c.Request.Context(), briefID)
	if err != nil {
		h.log.Error("GetBrief failed", "error", err, "brief_id", briefID)
		RespondError(c, http.StatusInternalServerError, "load_brief_failed", err)
		return
	}
	if brief == nil || brief.OrgID != rd.OrgID {
		RespondError(c, http.StatusNotFound, "brief_not_found", fmt.Errorf("brief not found"))
		return
	}
	RespondOK(c, gin.H{"brief": brief})
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *BriefHandler) Chat(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.OrgID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	briefID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_brief_id", err)
		return
	}
	if !h.briefBelongsToOrg(c, briefID, rd.OrgID) {
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	reply, err := h.workflow.AddChatMessage(c.Request.Context(), briefID, req.Message)
	if err != nil {
		h.log.Error("Chat failed", "error", err, "brief_id", briefID)
		RespondError(c, http.StatusInternalServerError, "chat_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"brief":    reply.Brief,
		"reply":    reply.Reply,
		"proposal": reply.Proposal,
	})
}

type updateBriefRequest struct {
	Action string `json:"action" binding:"required"`
	Copy   struct {
		Headline    *string `json:"headline"`
		PrimaryText *string `json:"primary_text"`
		CTAText     *string `json:"cta_text"`
	} `json:"copy"`
}

// UpdateBrief handles the two copy actions: confirm_copy flips the one-way
// gate, update_copy edits copy while the gate is still open.
func (h *BriefHandler) UpdateBrief(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.OrgID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	briefID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_brief_id", err)
		return
	}
	if !h.briefBelongsToOrg(c, briefID, rd.OrgID) {
		return
	}
	var req updateBriefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	switch req.Action {
	case "confirm_copy":
		brief, err := h.workflow.ConfirmCopy(c.Request.Context(), briefID)
		if err != nil {
			RespondError(c, http.StatusConflict, "confirm_copy_failed", err)
			return
		}
		RespondOK(c, gin.H{"brief": brief})
	case "update_copy":
		brief, err := h.workflow.UpdateCopy(c.Request.Context(), briefID, services.CopyUpdate{
			Headline:    req.Copy.Headline,
			PrimaryText: req.Copy.PrimaryText,
			CTAText:     req.Copy.CTAText,
		})
		if err != nil {
			RespondError(c, http.StatusConflict, "update_copy_failed", err)
			return
		}
		RespondOK(c, gin.H{"brief": brief})
	default:
		RespondError(c, http.StatusBadRequest, "unknown_action", fmt.Errorf("unknown action %q", req.Action))
	}
}

type generateRequest struct {
	Provider string `json:"provider"`
	Name     string `json:"name"`
}

func (h *BriefHandler) GeneratePack(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.OrgID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	briefID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_brief_id", err)
		return
	}
	var req generateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}

	result := h.generator.GenerateCreativePack(c.Request.Context(), services.GeneratePackInput{
		BriefID:  briefID,
		OrgID:    rd.OrgID,
		Provider: req.Provider,
		Name:     req.Name,
	})
	if !result.Success {
		RespondError(c, http.StatusConflict, "generation_failed", fmt.Errorf("%s", result.Error))
		return
	}
	RespondOK(c, gin.H{"result": result})
}

func (h *BriefHandler) ListBriefPacks(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.OrgID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	briefID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_brief_id", err)
		return
	}
	if !h.briefBelongsToOrg(c, briefID, rd.OrgID) {
		return
	}
	packs, err := h.packs.ListByBrief(c.Request.Context(), briefID)
	if err != nil {
		h.log.Error("ListBriefPacks failed", "error", err, "brief_id", briefID)
		RespondError(c, http.StatusInternalServerError, "list_packs_failed", err)
		return
	}
	RespondOK(c, gin.H{"packs": packs})
}

// briefBelongsToOrg writes the error response itself when the check fails.
func (h *BriefHandler) briefBelongsToOrg(c *gin.Context, briefID, orgID uuid.UUID) bool {
	brief, err := h.workflow.Get(c.Request.Context(), briefID)
	if err != nil {
		h.log.Error("Brief lookup failed", "error", err, "brief_id", briefID)
		RespondError(c, http.StatusInternalServerError, "load_brief_failed", err)
		return false
	}
	if brief == nil || brief.OrgID != orgID {
		RespondError(c, http.StatusNotFound, "brief_not_found", fmt.Errorf("brief not found"))
		return false
	}
	return true
}
