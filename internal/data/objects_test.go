package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxfall/server/internal/geom"
	"github.com/voxfall/server/internal/world"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "objects.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadObjectCatalog(t *testing.T) {
	c, err := LoadObjectCatalog(writeCatalog(t, `
objects:
  - name: floor
    kind: box
    position: [0, -1, 0]
    extent: [40, 2, 40]
    tags: [structure, floor]
  - name: silo
    kind: cylinder
    position: [10, 5, 10]
    extent: [6, 10, 6]
  - name: beam
    position: [0, 4, 0]
    extent: [1, 8, 1]
    non_divisible: true
`))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Count())

	floor := c.Get("floor")
	require.NotNil(t, floor)
	assert.Equal(t, [3]float64{40, 2, 40}, floor.Extent)
	assert.Equal(t, []string{"structure", "floor"}, floor.Tags)

	assert.Nil(t, c.Get("ghost"))
	assert.Equal(t, "floor", c.All()[0].Name, "file order preserved")
	assert.True(t, c.Get("beam").NonDivisible)
}

func TestLoadObjectCatalogErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"unknown kind", "objects:\n  - name: x\n    kind: pyramid\n    extent: [1, 1, 1]"},
		{"missing name", "objects:\n  - kind: box\n    extent: [1, 1, 1]"},
		{"duplicate name", "objects:\n  - name: x\n    extent: [1, 1, 1]\n  - name: x\n    extent: [2, 2, 2]"},
		{"malformed yaml", "objects: ["},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadObjectCatalog(writeCatalog(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestBuildObject(t *testing.T) {
	d := &ObjectDef{
		Name:     "ramp",
		Kind:     "wedge",
		Position: [3]float64{1, 2, 3},
		Extent:   [3]float64{4, 2, 6},
		Rotation: [3]float64{0, 90, 0},
	}
	obj, err := d.Build()
	require.NoError(t, err)
	assert.Equal(t, geom.KindWedge, obj.Shape.Kind)
	assert.Equal(t, 1.0, obj.Shape.Transform.Pos.X)
	assert.True(t, obj.Shape.Valid())
}

func TestBuildRejectsZeroExtent(t *testing.T) {
	d := &ObjectDef{Name: "flat", Extent: [3]float64{4, 0, 4}}
	_, err := d.Build()
	assert.Error(t, err)
}

func TestKindAliases(t *testing.T) {
	for _, s := range []string{"cornerwedge", "corner_wedge", "CornerWedge"} {
		k, err := parseKind(s)
		require.NoError(t, err)
		assert.Equal(t, geom.KindCornerWedge, k)
	}
	k, err := parseKind("")
	require.NoError(t, err)
	assert.Equal(t, geom.KindBox, k, "kind defaults to box")
}

func TestSpawnAddsObjectsToScene(t *testing.T) {
	c, err := LoadObjectCatalog(writeCatalog(t, `
objects:
  - name: a
    extent: [2, 2, 2]
  - name: b
    position: [10, 0, 0]
    extent: [2, 2, 2]
`))
	require.NoError(t, err)

	scene := world.NewState()
	ids, err := c.Spawn(scene)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, 2, scene.AttachedCount())
	assert.Equal(t, "a", scene.Object(ids[0]).Name)
	assert.Equal(t, "b", scene.Object(ids[1]).Name)
}
