package config

// Presets are grouped by boundary shape. Unset fields take their defaults.
var Presets = map[string]map[string]*Config{
	"circle": {
		"tiny": preset(func(c *Config) {
			c.Bodies, c.SpheresPerBody = 40, 3
			c.Boundary.A, c.Boundary.B = 20, 20
			c.Compression.Rate, c.Compression.Steps = 0.05, 60
		}),
		"spheres": preset(func(c *Config) {
			c.Bodies, c.SpheresPerBody = 400, 1
			c.Boundary.A, c.Boundary.B = 40, 40
			c.Compression.Steps = 300
			c.Potential.Family = "screened_coulomb"
		}),
		"chains": preset(func(c *Config) {}),
	},
	"ellipse": {
		"tiny": preset(func(c *Config) {
			c.Bodies, c.SpheresPerBody = 40, 3
			c.Boundary.Shape = "ellipse"
			c.Boundary.A, c.Boundary.B = 26, 18
			c.Compression.Rate, c.Compression.Steps = 0.05, 60
		}),
		"oblate": preset(func(c *Config) {
			c.Boundary.Shape = "ellipse"
			c.Boundary.A, c.Boundary.B = 80, 60
		}),
	},
}

func preset(edit func(*Config)) *Config {
	c := DefaultConfig()
	edit(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(shape, name string) *Config {
	shapePresets, ok := Presets[shape]
	if !ok {
		return nil
	}
	cfg, ok := shapePresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(shape string) []string {
	shapePresets, ok := Presets[shape]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(shapePresets))
	for name := range shapePresets {
		names = append(names, name)
	}
	return names
}
