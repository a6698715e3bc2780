package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brandpilot/brandpilot-backend/internal/logger"
	"github.com/brandpilot/brandpilot-backend/internal/requestdata"
	"github.com/brandpilot/brandpilot-backend/internal/services"
)

type PackHandler struct {
	log       *logger.Logger
	packs     services.PackQueryService
	generator services.PackGeneratorService
}

func NewPackHandler(log *logger.Logger, packs services.PackQueryService, generator services.PackGeneratorService) *PackHandler {
	return &PackHandler{
		log:       log.With("handler", "PackHandler"),
		packs:     packs,
		generator: generator,
	}
}

func (h *PackHandler) GetPack(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.OrgID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	packID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_pack_id", err)
		return
	}
	out, err := h.packs.GetWithAssets(c.Request.Context(), rd.OrgID, packID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "pack_not_found", err)
		return
	}
	RespondOK(c, out)
}

func (h *PackHandler) RegenerateDirection(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.OrgID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	packID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_pack_id", err)
		return
	}
	direction := strings.ToUpper(c.Param("direction"))
	if _, ok := services.DirectionByKey(direction); !ok {
		RespondError(c, http.StatusBadRequest, "invalid_direction", fmt.Errorf("unknown direction %q", direction))
		return
	}
	if !h.packBelongsToOrg(c, packID, rd.OrgID) {
		return
	}

	result := h.generator.RegenerateDirection(c.Request.Context(), rd.OrgID, packID, direction)
	if !result.Success {
		RespondError(c, http.StatusConflict, "regeneration_failed", fmt.Errorf("%s", result.Error))
		return
	}
	RespondOK(c, gin.H{"result": result})
}

func (h *PackHandler) RegenerateAsset(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.OrgID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_asset_id", err)
		return
	}

	result := h.generator.RegenerateAsset(c.Request.Context(), rd.OrgID, assetID)
	if !result.Success {
		status := http.StatusConflict
		if result.Error == "asset not found" {
			status = http.StatusNotFound
		}
		RespondError(c, status, "regeneration_failed", fmt.Errorf("%s", result.Error))
		return
	}
	RespondOK(c, gin.H{"result": result})
}

func (h *PackHandler) packBelongsToOrg(c *gin.Context, packID, orgID uuid.UUID) bool {
	if _, err := h.packs.GetWithAssets(c.Request.Context(), orgID, packID); err != nil {
		RespondError(c, http.StatusNotFound, "pack_not_found", err)
		return false
	}
	return true
}
