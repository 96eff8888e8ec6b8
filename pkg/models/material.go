package models

import "image/color"

// Material is a physically based surface description. Only the base colour
// map, metalness and roughness are honoured by the rasterizer.
type Material struct {
	Name      string
	Color     color.RGBA // Multiplied with the map (white when unset)
	Map       *Texture   // Optional base colour texture
	Metalness float64    // 0 = dielectric, 1 = metal
	Roughness float64    // 0 = mirror, 1 = fully diffuse
}

// NewStandardMaterial creates a white material sampling tex.
func NewStandardMaterial(tex *Texture, metalness, roughness float64) *Material {
	return &Material{
		Color:     color.RGBA{255, 255, 255, 255},
		Map:       tex,
		Metalness: metalness,
		Roughness: roughness,
	}
}
