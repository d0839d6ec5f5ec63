package data

import (
	"fmt"
	"os"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/voxfall/server/internal/geom"
	"github.com/voxfall/server/internal/world"
)

// ObjectDef is one destructible object definition from the catalog.
// Rotation is given as Euler angles in degrees (applied Z·Y·X).
type ObjectDef struct {
	Name         string     `yaml:"name"`
	Kind         string     `yaml:"kind"`
	Position     [3]float64 `yaml:"position"`
	Extent       [3]float64 `yaml:"extent"`
	Rotation     [3]float64 `yaml:"rotation"`
	Tags         []string   `yaml:"tags"`
	NonDivisible bool       `yaml:"non_divisible"`
}

type objectFile struct {
	Objects []ObjectDef `yaml:"objects"`
}

// ObjectCatalog holds destructible object definitions indexed by name.
type ObjectCatalog struct {
	byName map[string]*ObjectDef
	order  []*ObjectDef
}

// Get returns a definition by name, or nil if not found.
func (c *ObjectCatalog) Get(name string) *ObjectDef {
	return c.byName[name]
}

// All returns definitions in file order.
func (c *ObjectCatalog) All() []*ObjectDef {
	return c.order
}

// Count returns the number of definitions loaded.
func (c *ObjectCatalog) Count() int {
	return len(c.order)
}

// LoadObjectCatalog loads object definitions from YAML.
func LoadObjectCatalog(path string) (*ObjectCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("objects: read %s: %w", path, err)
	}

	var f objectFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("objects: parse %s: %w", path, err)
	}

	c := &ObjectCatalog{byName: make(map[string]*ObjectDef, len(f.Objects))}
	for i := range f.Objects {
		d := &f.Objects[i]
		if _, err := parseKind(d.Kind); err != nil {
			return nil, fmt.Errorf("objects: %s: %w", d.Name, err)
		}
		if d.Name == "" {
			return nil, fmt.Errorf("objects: entry %d has no name", i)
		}
		if _, dup := c.byName[d.Name]; dup {
			return nil, fmt.Errorf("objects: duplicate name %q", d.Name)
		}
		c.byName[d.Name] = d
		c.order = append(c.order, d)
	}
	return c, nil
}

// Spawn instantiates every catalog entry into the scene and returns the
// assigned object IDs in catalog order.
func (c *ObjectCatalog) Spawn(scene *world.State) ([]int64, error) {
	ids := make([]int64, 0, len(c.order))
	for _, d := range c.order {
		obj, err := d.Build()
		if err != nil {
			return nil, err
		}
		ids = append(ids, scene.AddObject(obj))
	}
	return ids, nil
}

// Build converts a definition into a scene object.
func (d *ObjectDef) Build() (*world.SolidObject, error) {
	kind, err := parseKind(d.Kind)
	if err != nil {
		return nil, fmt.Errorf("objects: %s: %w", d.Name, err)
	}
	shape := geom.Shape{
		Kind: kind,
		Transform: geom.Transform{
			Pos: r3.Vec{X: d.Position[0], Y: d.Position[1], Z: d.Position[2]},
			Rot: geom.RotFromEuler(
				d.Rotation[0]*degToRad,
				d.Rotation[1]*degToRad,
				d.Rotation[2]*degToRad,
			),
		},
		Extent: r3.Vec{X: d.Extent[0], Y: d.Extent[1], Z: d.Extent[2]},
	}
	if !shape.Valid() {
		return nil, fmt.Errorf("objects: %s: invalid extent %v", d.Name, d.Extent)
	}
	return &world.SolidObject{
		Name:         d.Name,
		Shape:        shape,
		Tags:         d.Tags,
		NonDivisible: d.NonDivisible,
	}, nil
}

const degToRad = 0.017453292519943295

func parseKind(s string) (geom.Kind, error) {
	switch strings.ToLower(s) {
	case "box", "":
		return geom.KindBox, nil
	case "ball":
		return geom.KindBall, nil
	case "cylinder":
		return geom.KindCylinder, nil
	case "wedge":
		return geom.KindWedge, nil
	case "cornerwedge", "corner_wedge":
		return geom.KindCornerWedge, nil
	default:
		return 0, fmt.Errorf("unknown kind %q", s)
	}
}
