package dirs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	t.Parallel()
	s := New("/proj")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"prim", s.Prim(), "/proj/.casm/prim.json"},
		{"settings", s.ProjectSettings(), "/proj/.casm/project_settings.json"},
		{"enum dir", s.EnumDir("occ.0"), "/proj/enumerations/enum.occ.0"},
		{"bset dir", s.BsetDir("default"), "/proj/basis_sets/bset.default"},
		{"bspecs", s.Bspecs("default"), "/proj/basis_sets/bset.default/bspecs.json"},
		{"clexulator src", s.ClexulatorSrc("ZrO", "default"), "/proj/basis_sets/bset.default/ZrO_Clexulator_default.cc"},
		{"factor group", s.FactorGroup(), "/proj/symmetry/factor_group.json"},
		{"calctype settings", s.CalctypeSettingsDir("default"), "/proj/training_data/settings/calctype.default"},
		{"ref", s.RefDir("default", "default"), "/proj/training_data/settings/calctype.default/ref.default"},
		{"props", s.CalculatedProperties("SCEL1_1_1_1_0_0_0/0", "default"),
			"/proj/training_data/SCEL1_1_1_1_0_0_0/0/calctype.default/properties.calc.json"},
		{"eci", s.ECI("formation_energy", "default", "default", "default", "default"),
			"/proj/cluster_expansions/clex.formation_energy/calctype.default/ref.default/bset.default/eci.default/eci.json"},
		{"system", s.SystemDir("a"), "/proj/systems/system.a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), tt.got)
		})
	}
}

func TestAllEnum(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	s := New(root)

	ids, err := s.AllEnum()
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, id := range []string{"b", "a.1", "a.0"} {
		require.NoError(t, os.MkdirAll(s.EnumDir(id), 0o755))
	}
	// Neither a plain file nor a directory with another prefix is listed.
	require.NoError(t, os.WriteFile(filepath.Join(root, "enumerations", "enum.file"), nil, 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "enumerations", "other.x"), 0o755))

	ids, err = s.AllEnum()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.0", "a.1", "b"}, ids)
}

func TestFindProjectRoot(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".casm"), 0o755))
	deep := filepath.Join(root, "enumerations", "enum.a")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	got, err := FindProjectRoot(deep)
	require.NoError(t, err)
	want, _ := filepath.Abs(root)
	assert.Equal(t, want, got)

	outside := t.TempDir()
	got, err = FindProjectRoot(outside)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}
