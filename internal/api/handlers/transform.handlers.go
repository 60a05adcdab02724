package routes

import (
	"errors"
	"net/http"

	"floodmap/internal/model"
	"floodmap/internal/service/transform"

	"github.com/gin-gonic/gin"
)

// SetupTransformHandlers registers scale/rotate/translate/commit endpoints
func SetupTransformHandlers(router *gin.RouterGroup) {
	zones := router.Group("/zones")

	zones.POST("/:id/anchor", setAnchor)
	zones.POST("/:id/scale", previewScale)
	zones.POST("/:id/rotate", previewRotate)
	zones.POST("/:id/translate", translateZone)
	zones.POST("/:id/commit", commitTransform)
	zones.POST("/:id/discard", discardTransform)

	batch := router.Group("/zones/transform")
	batch.POST("/scale-all", previewScaleAll)
	batch.POST("/rotate-all", previewRotateAll)
	batch.POST("/translate-all", translateAll)
	batch.POST("/commit-all", commitAll)
}

// setAnchor fixes the control point for subsequent scale and commit calls
func setAnchor(c *gin.Context) {
	id, ok := zoneID(c)
	if !ok {
		return
	}

	var req struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := transform.GetTransformService().SetAnchor(id, req.Lat, req.Lng); err != nil {
		transformError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// previewScale updates the zone's displayed rectangle without touching the base
func previewScale(c *gin.Context) {
	id, ok := zoneID(c)
	if !ok {
		return
	}

	var req struct {
		Percent float64 `json:"percent" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := transform.GetTransformService().PreviewScale(id, req.Percent)
	if err != nil {
		transformError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "preview": p})
}

// previewRotate updates the zone's visual rotation only
func previewRotate(c *gin.Context) {
	id, ok := zoneID(c)
	if !ok {
		return
	}

	var req struct {
		Degrees float64 `json:"degrees"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := transform.GetTransformService().PreviewRotate(id, req.Degrees)
	if err != nil {
		transformError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "preview": p})
}

// translateZone shifts the committed bounds by lat/lng deltas
func translateZone(c *gin.Context) {
	id, ok := zoneID(c)
	if !ok {
		return
	}

	var req struct {
		DLat float64 `json:"d_lat"`
		DLng float64 `json:"d_lng"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bounds, err := transform.GetTransformService().Translate(id, req.DLat, req.DLng)
	if err != nil {
		transformError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "bounds": bounds})
}

// commitTransform folds the live preview into new base geometry
func commitTransform(c *gin.Context) {
	id, ok := zoneID(c)
	if !ok {
		return
	}

	bounds, err := transform.GetTransformService().Commit(id)
	if err != nil {
		transformError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "bounds": bounds})
}

// discardTransform abandons the live preview
func discardTransform(c *gin.Context) {
	id, ok := zoneID(c)
	if !ok {
		return
	}

	if err := transform.GetTransformService().Discard(id); err != nil {
		transformError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func previewScaleAll(c *gin.Context) {
	var req struct {
		Percent float64 `json:"percent" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	failures := transform.GetTransformService().PreviewScaleAll(req.Percent)
	c.JSON(http.StatusOK, batchResult(failures))
}

func previewRotateAll(c *gin.Context) {
	var req struct {
		Degrees float64 `json:"degrees"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	failures := transform.GetTransformService().PreviewRotateAll(req.Degrees)
	c.JSON(http.StatusOK, batchResult(failures))
}

func translateAll(c *gin.Context) {
	var req struct {
		DLat float64 `json:"d_lat"`
		DLng float64 `json:"d_lng"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	failures := transform.GetTransformService().TranslateAll(req.DLat, req.DLng)
	c.JSON(http.StatusOK, batchResult(failures))
}

func commitAll(c *gin.Context) {
	failures := transform.GetTransformService().CommitAll()
	c.JSON(http.StatusOK, batchResult(failures))
}

// batchResult reports per-zone failures; siblings that succeeded stay committed.
func batchResult(failures map[int]error) gin.H {
	if len(failures) == 0 {
		return gin.H{"status": "success"}
	}
	msgs := make(map[int]string, len(failures))
	for id, err := range failures {
		msgs[id] = err.Error()
	}
	return gin.H{"status": "partial", "failures": msgs}
}

// transformError maps transform service errors onto HTTP statuses.
func transformError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrZoneNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrMissingBaseSize), errors.Is(err, model.ErrMissingAnchor),
		errors.Is(err, model.ErrNoPreview):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrDegenerateBounds):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
