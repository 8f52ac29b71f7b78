package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	cfg := Default()
	require.Equal(t, EnvProd, cfg.Environment)
	require.Equal(t, ":8080", cfg.HTTP.Addr)
	require.Equal(t, "main-campus", cfg.CampusName)
	require.False(t, cfg.Simulation.Enabled)
	require.Empty(t, cfg.Telemetry.Endpoint)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MENSA_ENV", "Dev")
	t.Setenv("MENSA_CAMPUS_NAME", "north-campus")
	t.Setenv("MENSA_HTTP_ADDR", ":9090")
	t.Setenv("MENSA_HTTP_READ_TIMEOUT", "30s")
	t.Setenv("MENSA_SIM_ENABLED", "true")
	t.Setenv("MENSA_SIM_SEED", "42")

	cfg := FromEnv()
	require.Equal(t, EnvDev, cfg.Environment)
	require.Equal(t, "north-campus", cfg.CampusName)
	require.Equal(t, ":9090", cfg.HTTP.Addr)
	require.Equal(t, 30*time.Second, cfg.HTTP.ReadTimeout)
	require.True(t, cfg.Simulation.Enabled)
	require.EqualValues(t, 42, cfg.Simulation.Seed)
}

func TestFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("MENSA_HTTP_READ_TIMEOUT", "soon")
	t.Setenv("MENSA_SIM_ROUNDS", "-3")

	cfg := FromEnv()
	require.Equal(t, Default().HTTP.ReadTimeout, cfg.HTTP.ReadTimeout)
	require.Equal(t, Default().Simulation.Rounds, cfg.Simulation.Rounds)
}

func TestApplyOptions(t *testing.T) {
	cfg := Apply(Default(),
		WithEnvironment(EnvStaging),
		WithCampusName("  east-campus  "),
		WithHTTPAddr(":7070"),
		WithTelemetryEndpoint("collector:4318"),
		nil,
	)
	require.Equal(t, EnvStaging, cfg.Environment)
	require.Equal(t, "east-campus", cfg.CampusName)
	require.Equal(t, ":7070", cfg.HTTP.Addr)
	require.Equal(t, "collector:4318", cfg.Telemetry.Endpoint)
}

func TestParseMenuFixture(t *testing.T) {
	raw := []byte(`
cafeterias:
  - name: riverside
    items:
      - name: Soup
        description: tomato soup
        price: "3.50"
        quantity: 12
      - name: Coffee
        description: filter coffee
        price: "1.80"
        quantity: 40
`)
	fixture, err := ParseMenuFixture(raw)
	require.NoError(t, err)
	require.Len(t, fixture.Cafeterias, 1)
	require.Equal(t, "riverside", fixture.Cafeterias[0].Name)
	require.Len(t, fixture.Cafeterias[0].Items, 2)
	require.Equal(t, "3.5", fixture.Cafeterias[0].Items[0].ItemPrice().String())
}

func TestParseMenuFixtureRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"no cafeterias": `cafeterias: []`,
		"unnamed cafeteria": `
cafeterias:
  - name: ""
    items: []
`,
		"bad price": `
cafeterias:
  - name: riverside
    items:
      - name: Soup
        price: "free"
        quantity: 1
`,
		"zero quantity": `
cafeterias:
  - name: riverside
    items:
      - name: Soup
        price: "2.00"
        quantity: 0
`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMenuFixture([]byte(raw))
			require.Error(t, err)
		})
	}
}
