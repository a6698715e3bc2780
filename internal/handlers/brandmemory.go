package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brandpilot/brandpilot-backend/internal/logger"
	"github.com/brandpilot/brandpilot-backend/internal/requestdata"
	"github.com/brandpilot/brandpilot-backend/internal/services"
	"github.com/brandpilot/brandpilot-backend/internal/types"
)

type BrandMemoryHandler struct {
	log    *logger.Logger
	memory services.BrandMemoryService
}

func NewBrandMemoryHandler(log *logger.Logger, memory services.BrandMemoryService) *BrandMemoryHandler {
	return &BrandMemoryHandler{
		log:    log.With("handler", "BrandMemoryHandler"),
		memory: memory,
	}
}

func (h *BrandMemoryHandler) GetActive(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.OrgID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	memory, err := h.memory.GetActive(c.Request.Context(), rd.OrgID)
	if err != nil {
		h.log.Error("GetActive failed", "error", err, "org_id", rd.OrgID)
		RespondError(c, http.StatusInternalServerError, "load_brand_memory_failed", err)
		return
	}
	if memory == nil {
		RespondError(c, http.StatusNotFound, "brand_memory_not_found", nil)
		return
	}
	RespondOK(c, gin.H{"brand_memory": memory})
}

func (h *BrandMemoryHandler) ListVersions(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.OrgID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	versions, err := h.memory.ListVersions(c.Request.Context(), rd.OrgID)
	if err != nil {
		h.log.Error("ListVersions failed", "error", err, "org_id", rd.OrgID)
		RespondError(c, http.StatusInternalServerError, "list_versions_failed", err)
		return
	}
	RespondOK(c, gin.H{"versions": versions})
}

func (h *BrandMemoryHandler) GetVersion(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.OrgID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		RespondError(c, http.StatusBadRequest, "invalid_version", err)
		return
	}
	memory, err := h.memory.GetVersion(c.Request.Context(), rd.OrgID, version)
	if err != nil {
		h.log.Error("GetVersion failed", "error", err, "org_id", rd.OrgID, "version", version)
		RespondError(c, http.StatusInternalServerError, "load_brand_memory_failed", err)
		return
	}
	if memory == nil {
		RespondError(c, http.StatusNotFound, "brand_memory_not_found", nil)
		return
	}
	RespondOK(c, gin.H{"brand_memory": memory})
}

type brandMemoryRequest struct {
	BrandName       string             `json:"brand_name"`
	Tagline         string             `json:"tagline"`
	LogoURL         string             `json:"logo_url"`
	PrimaryColors   []types.BrandColor `json:"primary_colors"`
	SecondaryColors []types.BrandColor `json:"secondary_colors"`
	Fonts           []string           `json:"fonts"`
	StyleTokens     *types.StyleTokens `json:"style_tokens"`
	LayoutStyle     string             `json:"layout_style"`
	LogoPlacement   string             `json:"logo_placement"`
	TextSafeZones   []string           `json:"text_safe_zones"`
	VoiceRules      *types.VoiceRules  `json:"voice_rules"`
	DoList          []string           `json:"do_list"`
	DontList        []string           `json:"dont_list"`
	ComplianceRules []string           `json:"compliance_rules"`
	FatiguedStyles  []string           `json:"fatigued_styles"`
}

func (h *BrandMemoryHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.OrgID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req brandMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	input := services.BrandMemoryInput{
		BrandName:       req.BrandName,
		Tagline:         req.Tagline,
		LogoURL:         req.LogoURL,
		PrimaryColors:   req.PrimaryColors,
		SecondaryColors: req.SecondaryColors,
		Fonts:           req.Fonts,
		LayoutStyle:     req.LayoutStyle,
		LogoPlacement:   req.LogoPlacement,
		TextSafeZones:   req.TextSafeZones,
		DoList:          req.DoList,
		DontList:        req.DontList,
		ComplianceRules: req.ComplianceRules,
		FatiguedStyles:  req.FatiguedStyles,
	}
	if req.StyleTokens != nil {
		input.StyleTokens = *req.StyleTokens
	}
	if req.VoiceRules != nil {
		input.VoiceRules = *req.VoiceRules
	}
	memory, err := h.memory.Create(c.Request.Context(), rd.OrgID, input)
	if err != nil {
		RespondError(c, http.StatusConflict, "create_brand_memory_failed", err)
		return
	}
	RespondOK(c, gin.H{"brand_memory": memory})
}

type brandMemoryUpdateRequest struct {
	BrandName       *string            `json:"brand_name"`
	Tagline         *string            `json:"tagline"`
	LogoURL         *string            `json:"logo_url"`
	PrimaryColors   []types.BrandColor `json:"primary_colors"`
	SecondaryColors []types.BrandColor `json:"secondary_colors"`
	Fonts           []string           `json:"fonts"`
	StyleTokens     *types.StyleTokens `json:"style_tokens"`
	LayoutStyle     *string            `json:"layout_style"`
	LogoPlacement   *string            `json:"logo_placement"`
	TextSafeZones   []string           `json:"text_safe_zones"`
	VoiceRules      *types.VoiceRules  `json:"voice_rules"`
	DoList          []string           `json:"do_list"`
	DontList        []string           `json:"dont_list"`
	ComplianceRules []string           `json:"compliance_rules"`
	FatiguedStyles  []string           `json:"fatigued_styles"`
}

// Update writes version N+1; omitted fields carry over from the current
// active version.
func (h *BrandMemoryHandler) Update(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.OrgID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req brandMemoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	memory, err := h.memory.Update(c.Request.Context(), rd.OrgID, services.BrandMemoryUpdate{
		BrandName:       req.BrandName,
		Tagline:         req.Tagline,
		LogoURL:         req.LogoURL,
		PrimaryColors:   req.PrimaryColors,
		SecondaryColors: req.SecondaryColors,
		Fonts:           req.Fonts,
		StyleTokens:     req.StyleTokens,
		LayoutStyle:     req.LayoutStyle,
		LogoPlacement:   req.LogoPlacement,
		TextSafeZones:   req.TextSafeZones,
		VoiceRules:      req.VoiceRules,
		DoList:          req.DoList,
		DontList:        req.DontList,
		ComplianceRules: req.ComplianceRules,
		FatiguedStyles:  req.FatiguedStyles,
	})
	if err != nil {
		RespondError(c, http.StatusConflict, "update_brand_memory_failed", err)
		return
	}
	RespondOK(c, gin.H{"brand_memory": memory})
}

type initFromKitRequest struct {
	BrandKitID string `json:"brand_kit_id" binding:"required"`
}

func (h *BrandMemoryHandler) InitFromBrandKit(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.OrgID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req initFromKitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	kitID, err := uuid.Parse(req.BrandKitID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_brand_kit_id", err)
		return
	}
	memory, err := h.memory.InitFromBrandKit(c.Request.Context(), rd.OrgID, kitID)
	if err != nil {
		RespondError(c, http.StatusConflict, "init_brand_memory_failed", err)
		return
	}
	RespondOK(c, gin.H{"brand_memory": memory})
}
