package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"sync"

	"floodmap/internal/model"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/qedus/osmpbf"
)

// WaterBody is a closed water polygon extracted from an OSM way.
type WaterBody struct {
	ID      int64
	Name    string
	Kind    string
	Outline orb.Polygon
	Bound   orb.Bound
	Area    float64
}

// WaterProcessor extracts water polygons from OSM PBF files.
type WaterProcessor struct {
	WaterBodies    []*WaterBody
	ProcessedNodes map[int64]orb.Point
	minArea        float64
	mutex          sync.Mutex
}

// NewWaterProcessor creates a new water processor
func NewWaterProcessor(minArea float64) *WaterProcessor {
	return &WaterProcessor{
		WaterBodies:    make([]*WaterBody, 0),
		ProcessedNodes: make(map[int64]orb.Point),
		minArea:        minArea,
	}
}

// ProcessOSMFile processes an OSM PBF file and extracts water bodies
func (p *WaterProcessor) ProcessOSMFile(osmFilePath string) error {
	log.Printf("Processing OSM file: %s", osmFilePath)

	file, err := os.Open(osmFilePath)
	if err != nil {
		return fmt.Errorf("failed to open OSM file: %w", err)
	}
	defer file.Close()

	decoder := osmpbf.NewDecoder(file)
	decoder.SetBufferSize(osmpbf.MaxBlobSize)
	decoder.Start(runtime.GOMAXPROCS(-1))

	// First pass: collect all nodes
	log.Println("First pass: collecting nodes...")
	if err := p.collectNodes(decoder); err != nil {
		return err
	}

	// Rewind the file for the second pass
	if _, err := file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to rewind OSM file: %w", err)
	}

	decoder = osmpbf.NewDecoder(file)
	decoder.SetBufferSize(osmpbf.MaxBlobSize)
	decoder.Start(runtime.GOMAXPROCS(-1))

	// Second pass: process water ways
	log.Println("Second pass: processing water ways...")
	if err := p.processWaterWays(decoder); err != nil {
		return err
	}

	log.Printf("Processing complete. Found %d water bodies.", len(p.WaterBodies))
	return nil
}

// collectNodes collects all nodes from the OSM file
func (p *WaterProcessor) collectNodes(decoder *osmpbf.Decoder) error {
	var nodeCount int

	for {
		obj, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("error decoding OSM data: %w", err)
		}

		if node, ok := obj.(*osmpbf.Node); ok {
			p.mutex.Lock()
			p.ProcessedNodes[node.ID] = orb.Point{node.Lon, node.Lat}
			p.mutex.Unlock()
			nodeCount++

			if nodeCount%1000000 == 0 {
				log.Printf("Processed %d nodes...", nodeCount)
			}
		}
	}

	log.Printf("Collected %d nodes", nodeCount)
	return nil
}

// processWaterWays extracts ways tagged as water features
func (p *WaterProcessor) processWaterWays(decoder *osmpbf.Decoder) error {
	var waterCount int

	for {
		obj, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("error decoding OSM data: %w", err)
		}

		way, ok := obj.(*osmpbf.Way)
		if !ok {
			continue
		}

		kind, isWater := waterKind(way.Tags)
		if !isWater {
			continue
		}

		body := p.processWaterWay(way, kind)
		if body == nil {
			continue
		}

		p.mutex.Lock()
		p.WaterBodies = append(p.WaterBodies, body)
		p.mutex.Unlock()

		waterCount++
		if waterCount%10000 == 0 {
			log.Printf("Processed %d water ways...", waterCount)
		}
	}

	log.Printf("Processed %d water ways", waterCount)
	return nil
}

// waterKind reports whether the tag set describes a water polygon.
func waterKind(tags map[string]string) (string, bool) {
	if v, ok := tags["natural"]; ok && v == "water" {
		return "water", true
	}
	if v, ok := tags["waterway"]; ok && v == "riverbank" {
		return "riverbank", true
	}
	if v, ok := tags["landuse"]; ok && (v == "reservoir" || v == "basin") {
		return v, true
	}
	return "", false
}

// processWaterWay builds a closed polygon from a single water way
func (p *WaterProcessor) processWaterWay(way *osmpbf.Way, kind string) *WaterBody {
	if len(way.NodeIDs) < 3 {
		return nil
	}

	var points []orb.Point
	for _, nodeID := range way.NodeIDs {
		if point, exists := p.ProcessedNodes[nodeID]; exists {
			points = append(points, point)
		}
	}

	if len(points) < 3 {
		return nil
	}

	// Ensure the polygon is closed
	if points[0] != points[len(points)-1] {
		points = append(points, points[0])
	}

	polygon := orb.Polygon{orb.Ring(points)}
	area := planar.Area(polygon)
	if area < 0 {
		area = -area
	}

	// Skip slivers below the area threshold
	if area < p.minArea {
		return nil
	}

	return &WaterBody{
		ID:      way.ID,
		Name:    way.Tags["name"],
		Kind:    kind,
		Outline: polygon,
		Bound:   polygon.Bound(),
		Area:    area,
	}
}

// BuildZones converts the extracted water bodies into seed zones. Each zone's
// bounds is the water body's bounding box and its perimeter is the outline
// itself, so the overlay starts with an exact hit-test polygon before any
// raster has been analyzed.
func (p *WaterProcessor) BuildZones(imagePath string, opacity float64, maxZones int) []*model.Zone {
	zones := make([]*model.Zone, 0, len(p.WaterBodies))

	for _, body := range p.WaterBodies {
		if maxZones > 0 && len(zones) >= maxZones {
			break
		}

		name := body.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", body.Kind, body.ID)
		}

		z := &model.Zone{
			Name:      name,
			ImagePath: imagePath,
			Opacity:   opacity,
			Bounds: model.Bounds{
				South: body.Bound.Min[1],
				West:  body.Bound.Min[0],
				North: body.Bound.Max[1],
				East:  body.Bound.Max[0],
			},
			Perimeter: body.Outline[0],
		}

		if z.Bounds.Validate() != nil {
			continue
		}

		zones = append(zones, z)
	}

	return zones
}

// exportZonesToGeoJSON exports seeded zones to a GeoJSON file for visualization
func exportZonesToGeoJSON(zones []*model.Zone, outputFile string) error {
	fc := geojson.NewFeatureCollection()

	for _, z := range zones {
		feature := geojson.NewFeature(orb.Polygon{z.Perimeter})
		feature.Properties["name"] = z.Name
		feature.Properties["south"] = z.Bounds.South
		feature.Properties["west"] = z.Bounds.West
		feature.Properties["north"] = z.Bounds.North
		feature.Properties["east"] = z.Bounds.East
		fc.Append(feature)
	}

	jsonData, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}

	if err := os.WriteFile(outputFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write GeoJSON file: %w", err)
	}

	return nil
}
