package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	mh := cfg.Importers.MyHelsinkiPlaces
	assert.Equal(t, "fi", mh.Language)
	require.NotEmpty(t, mh.APICalls)
	assert.Contains(t, mh.APICalls[0], "tags_search")
	require.NotEmpty(t, mh.TagConfig.Rules)
	assert.Equal(t, "ahti:tag:island", mh.TagConfig.Rules[0].ID)
	assert.Contains(t, mh.AllowedImageLicenses, "All rights reserved.")

	vp := cfg.Importers.VenepaikkaHarbors
	assert.Equal(t, "ahti:tag:harbor", vp.Tag.ID)
	assert.Equal(t, "ahti:category:harbor", vp.Category.ID)
	assert.Equal(t, "SLIP", vp.MooringMapping["SINGLE_SLIP_PLACE"])
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	want, err := Default()
	require.NoError(t, err)
	assert.Equal(t, want, cfg)
}

func TestLoadOverrideMergesOverDefaults(t *testing.T) {
	override := `
importers:
  myhelsinki_places:
    language: en
    tag_config:
      rules:
        - mapped_names: ["Sauna"]
          id: "ahti:tag:sauna"
          name: "sauna"
      whitelist: ["Island"]
`
	path := filepath.Join(t.TempDir(), "override.yaml")
	require.NoError(t, os.WriteFile(path, []byte(override), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	mh := cfg.Importers.MyHelsinkiPlaces
	assert.Equal(t, "en", mh.Language)
	require.Len(t, mh.TagConfig.Rules, 1)
	assert.Equal(t, "ahti:tag:sauna", mh.TagConfig.Rules[0].ID)
	assert.Equal(t, []string{"Island"}, mh.TagConfig.Whitelist)

	// Sections the override leaves out keep their baseline values.
	assert.NotEmpty(t, mh.APICalls)
	assert.Equal(t, "ahti:tag:harbor", cfg.Importers.VenepaikkaHarbors.Tag.ID)
}

func TestLoadRejectsInvalidOverride(t *testing.T) {
	cases := []struct {
		name     string
		override string
		wantErr  string
	}{
		{
			name: "rule without id",
			override: `
importers:
  myhelsinki_places:
    tag_config:
      rules:
        - mapped_names: ["Sauna"]
          name: "sauna"
`,
			wantErr: "id is required",
		},
		{
			name: "rule without mapped names",
			override: `
importers:
  myhelsinki_places:
    category_config:
      rules:
        - id: "ahti:category:sauna"
          name: "Saunat"
`,
			wantErr: "mapped_names must not be empty",
		},
		{
			name: "duplicate rule ids",
			override: `
importers:
  myhelsinki_places:
    tag_config:
      rules:
        - mapped_names: ["Sauna"]
          id: "ahti:tag:sauna"
          name: "sauna"
        - mapped_names: ["Spa"]
          id: "ahti:tag:sauna"
          name: "sauna"
`,
			wantErr: "duplicate rule id",
		},
		{
			name: "static tag missing name",
			override: `
importers:
  venepaikka_harbors:
    tag:
      id: "ahti:tag:harbor"
      name: ""
`,
			wantErr: "id and name must be set together",
		},
		{
			name: "unknown mooring type",
			override: `
importers:
  venepaikka_harbors:
    mooring_mapping:
      WEIRD_PLACE: "TRAMPOLINE"
`,
			wantErr: "unknown mooring type",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "override.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.override), 0o600))

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadMissingOverrideFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
