package util

import "strings"

// EncodePolyline converts a slice of [lat, lng] coordinates to an encoded
// polyline string using Google's Encoded Polyline Algorithm Format.
// Default precision is 1e-5 (the Google Maps standard).
func EncodePolyline(points [][2]float64) string {
	return EncodePolylineWithPrecision(points, 1e-5)
}

// EncodePolylineWithPrecision encodes a polyline with a custom precision factor
func EncodePolylineWithPrecision(points [][2]float64, precision float64) string {
	var sb strings.Builder
	prevLat, prevLng := 0, 0

	for _, p := range points {
		lat := int(round(p[0] / precision))
		lng := int(round(p[1] / precision))

		encodeValue(&sb, lat-prevLat)
		encodeValue(&sb, lng-prevLng)

		prevLat, prevLng = lat, lng
	}

	return sb.String()
}

func encodeValue(sb *strings.Builder, value int) {
	// Sign lives in the low bit, magnitude above it; pairs with DecodePolyline
	v := value << 1
	if value < 0 {
		v = (-value)<<1 | 1
	}
	for v >= 0x20 {
		sb.WriteByte(byte((0x20 | (v & 0x1f)) + 63))
		v >>= 5
	}
	sb.WriteByte(byte(v + 63))
}

func round(f float64) float64 {
	if f < 0 {
		return float64(int(f - 0.5))
	}
	return float64(int(f + 0.5))
}

// DecodePolyline converts an encoded polyline string to a slice of lat/lng coordinates
// Implementation based on Google's Encoded Polyline Algorithm Format
// Default precision is 1e-5 (the Google Maps standard)
func DecodePolyline(encoded string) [][2]float64 {
	return DecodePolylineWithPrecision(encoded, 1e-5)
}

// DecodePolylineWithPrecision decodes a polyline with a custom precision factor
func DecodePolylineWithPrecision(encoded string, precision float64) [][2]float64 {
	var points [][2]float64
	index, lat, lng := 0, 0, 0

	for index < len(encoded) {
		// Extract latitude
		shift, result := 0, 0
		for {
			if index >= len(encoded) {
				return points
			}
			b := int(encoded[index]) - 63
			index++
			result |= (b & 0x1f) << shift
			shift += 5
			if b < 0x20 {
				break
			}
		}

		// Handle the sign bit for latitude
		if result&1 != 0 {
			lat -= result >> 1
		} else {
			lat += result >> 1
		}

		// Extract longitude
		shift, result = 0, 0
		for {
			if index >= len(encoded) {
				return points
			}
			b := int(encoded[index]) - 63
			index++
			result |= (b & 0x1f) << shift
			shift += 5
			if b < 0x20 {
				break
			}
		}

		// Handle the sign bit for longitude
		if result&1 != 0 {
			lng -= result >> 1
		} else {
			lng += result >> 1
		}

		// Convert to actual coordinates
		latFloat := float64(lat) * precision
		lngFloat := float64(lng) * precision

		// Add coordinates in Google standard order: [latitude, longitude]
		points = append(points, [2]float64{latFloat, lngFloat})
	}

	return points
}
