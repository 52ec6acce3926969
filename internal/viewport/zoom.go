package viewport

// ZoomLevels is the fixed discrete zoom table. Zoom changes step through
// this table by index; arbitrary scale factors are not supported.
var ZoomLevels = []float64{0.5, 0.75, 1.0, 1.25, 1.5, 2.0, 3.0, 4.0}

// DefaultZoomIndex selects 100%.
const DefaultZoomIndex = 2

// ClampZoomIndex forces an index into the zoom table's bounds.
func ClampZoomIndex(index int) int {
	if index < 0 {
		return 0
	}
	if index >= len(ZoomLevels) {
		return len(ZoomLevels) - 1
	}
	return index
}

// ZoomAt returns the scale factor for a (clamped) zoom index.
func ZoomAt(index int) float64 {
	return ZoomLevels[ClampZoomIndex(index)]
}
