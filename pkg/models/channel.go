package models

// Plane is one channel of an image as a row-major buffer of intensities,
// normally in [0,1].
type Plane struct {
	Width   int       `json:"width"`
	Height  int       `json:"height"`
	Samples []float64 `json:"samples"`
}

// Consistent reports whether the sample count matches the geometry.
func (p Plane) Consistent() bool {
	if p.Width <= 0 || p.Height <= 0 || p.Width > len(p.Samples)/p.Height {
		return false
	}
	return len(p.Samples) == p.Width*p.Height
}

// RegionSamples copies the samples of r in row-major order, taking every
// stride-th pixel in each axis. r must lie inside the plane.
func (p Plane) RegionSamples(r Region, stride int) []float64 {
	return p.AppendRegionSamples(nil, r, stride)
}

// AppendRegionSamples is RegionSamples appending to dst.
func (p Plane) AppendRegionSamples(dst []float64, r Region, stride int) []float64 {
	if stride < 1 {
		stride = 1
	}
	for yy := 0; yy < r.Height; yy += stride {
		base := (r.Top+yy)*p.Width + r.Left
		for xx := 0; xx < r.Width; xx += stride {
			dst = append(dst, p.Samples[base+xx])
		}
	}
	return dst
}

// ChannelData is a channel as resolved by the repository: pixel data, external
// statistics fields, or both.
type ChannelData struct {
	ID     string             `json:"id"`
	Source string             `json:"source,omitempty"`
	Plane  *Plane             `json:"-"`
	Fields map[string]float64 `json:"fields,omitempty"`
}

// HasPixels reports whether pixel samples are available.
func (c ChannelData) HasPixels() bool {
	return c.Plane != nil && c.Plane.Consistent()
}
