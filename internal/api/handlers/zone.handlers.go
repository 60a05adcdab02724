package routes

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"floodmap/internal/model"
	"floodmap/internal/service/zone"
	"floodmap/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// SetupZoneHandlers registers the zone management and query endpoints
func SetupZoneHandlers(router *gin.RouterGroup) {
	zones := router.Group("/zones")

	zones.GET("/all", getAllZones)
	zones.POST("/create", createZone)
	zones.GET("/:id", getZone)
	zones.PUT("/:id", updateZone)
	zones.DELETE("/:id", deleteZone)
	zones.POST("/:id/visible", setZoneVisible)

	zones.GET("/at-point", getZoneAtPoint)
	zones.GET("/nearest", getNearestZone)

	zones.GET("/:id/perimeter", getZonePerimeter)
	zones.GET("/:id/content-bounds", getZoneContentBounds)
	zones.POST("/:id/adjust-to-content", adjustZoneToContent)
	zones.GET("/:id/aspect-check", checkZoneAspect)
}

type createZoneRequest struct {
	Name      string       `json:"name" binding:"required"`
	ImagePath string       `json:"image_path" binding:"required"`
	Bounds    model.Bounds `json:"bounds" binding:"required"`
	Opacity   float64      `json:"opacity"`
}

type updateZoneRequest struct {
	Name      string       `json:"name" binding:"required"`
	ImagePath string       `json:"image_path" binding:"required"`
	Bounds    model.Bounds `json:"bounds" binding:"required"`
	Opacity   float64      `json:"opacity"`
	Rotation  float64      `json:"rotation"`
}

// getAllZones returns every zone in stacking order
func getAllZones(c *gin.Context) {
	zones := zone.GetZoneService().GetAllZones()
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"zones":  zones,
		"count":  len(zones),
	})
}

// createZone registers a new zone overlay
func createZone(c *gin.Context) {
	var req createZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Opacity == 0 {
		req.Opacity = 0.6
	}

	z, err := zone.GetZoneService().CreateZone(req.Name, req.ImagePath, req.Bounds, req.Opacity)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrDegenerateBounds) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "zone": z})
}

// getZone returns a single zone by id
func getZone(c *gin.Context) {
	id, ok := zoneID(c)
	if !ok {
		return
	}

	z, found := zone.GetZoneService().GetZoneByID(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": model.ErrZoneNotFound.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "zone": z})
}

// updateZone replaces a zone's persisted fields
func updateZone(c *gin.Context) {
	id, ok := zoneID(c)
	if !ok {
		return
	}

	var req updateZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	z, err := zone.GetZoneService().UpdateZone(id, req.Name, req.ImagePath, req.Bounds, req.Opacity, req.Rotation)
	if err != nil {
		zoneError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "zone": z})
}

// deleteZone removes a zone and its caches
func deleteZone(c *gin.Context) {
	id, ok := zoneID(c)
	if !ok {
		return
	}

	if err := zone.GetZoneService().DeleteZone(id); err != nil {
		zoneError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// setZoneVisible toggles a zone's participation in queries and batch transforms
func setZoneVisible(c *gin.Context) {
	id, ok := zoneID(c)
	if !ok {
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := zone.GetZoneService().SetZoneActive(id, *req.Active); err != nil {
		zoneError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "active": *req.Active})
}

// getZoneAtPoint resolves the topmost zone containing a point
func getZoneAtPoint(c *gin.Context) {
	lat, lng, ok := latLngQuery(c)
	if !ok {
		return
	}
	checkPixels := c.DefaultQuery("check_pixels", "false") == "true"

	z, found := zone.GetZoneService().GetZoneAtPoint(lat, lng, checkPixels)
	if !found {
		c.JSON(http.StatusOK, gin.H{"status": "success", "zone": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "zone": z})
}

// getNearestZone returns the closest active zone and its distance in meters
func getNearestZone(c *gin.Context) {
	lat, lng, ok := latLngQuery(c)
	if !ok {
		return
	}

	z, dist, found := zone.GetZoneService().NearestZone(lat, lng)
	if !found {
		c.JSON(http.StatusOK, gin.H{"status": "success", "zone": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "success",
		"zone":            z,
		"distance_meters": dist,
	})
}

// getZonePerimeter returns the zone outline, as GeoJSON or as an encoded
// polyline for compact transfer
func getZonePerimeter(c *gin.Context) {
	id, ok := zoneID(c)
	if !ok {
		return
	}

	svc := zone.GetZoneService()
	z, found := svc.GetZoneByID(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": model.ErrZoneNotFound.Error()})
		return
	}

	ring, err := svc.EnsurePerimeter(z)
	if err != nil {
		zoneError(c, err)
		return
	}
	if len(ring) == 0 {
		// Degraded: no outline, the bounding rectangle is the hit geometry
		log.Printf("zone %d: serving bounds fallback instead of perimeter", id)
		c.JSON(http.StatusOK, gin.H{
			"status":   "degraded",
			"bounds":   z.Bounds,
			"geometry": nil,
		})
		return
	}

	if c.DefaultQuery("format", "geojson") == "polyline" {
		points := make([][2]float64, len(ring))
		for i, p := range ring {
			points[i] = [2]float64{p[1], p[0]} // [lat, lng]
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "success",
			"polyline": util.EncodePolyline(points),
			"count":    len(points),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"geometry": geojson.NewGeometry(orb.Polygon{ring}),
		"count":    len(ring),
	})
}

// getZoneContentBounds returns the normalized colored-pixel rectangle
func getZoneContentBounds(c *gin.Context) {
	id, ok := zoneID(c)
	if !ok {
		return
	}

	svc := zone.GetZoneService()
	z, found := svc.GetZoneByID(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": model.ErrZoneNotFound.Error()})
		return
	}

	rect, err := svc.EnsureContentBounds(z)
	if err != nil {
		zoneError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "content_bounds": rect})
}

// adjustZoneToContent commits bounds shrunk to the colored pixel area
func adjustZoneToContent(c *gin.Context) {
	id, ok := zoneID(c)
	if !ok {
		return
	}

	z, err := zone.GetZoneService().AdjustZoneToContent(id)
	if err != nil {
		zoneError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "bounds": z.Bounds})
}

// checkZoneAspect reports whether the raster and bounds aspect ratios
// diverge, with suggested corrected bounds
func checkZoneAspect(c *gin.Context) {
	id, ok := zoneID(c)
	if !ok {
		return
	}

	suggested, mismatch, err := zone.GetZoneService().SuggestAspectBounds(id)
	if err != nil {
		zoneError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           "success",
		"mismatch":         mismatch,
		"suggested_bounds": suggested,
	})
}

// zoneID parses the :id path parameter, replying 400 on garbage.
func zoneID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid zone id"})
		return 0, false
	}
	return id, true
}

// latLngQuery parses the lat/lng query parameters, replying 400 on garbage.
func latLngQuery(c *gin.Context) (lat, lng float64, ok bool) {
	var err error
	lat, err = strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat"})
		return 0, 0, false
	}
	lng, err = strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lng"})
		return 0, 0, false
	}
	return lat, lng, true
}

// zoneError maps service errors onto HTTP statuses.
func zoneError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrZoneNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrDegenerateBounds):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrRasterUnavailable):
		// Pixel operations degrade, the caller can surface an indicator
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "degraded": true})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
