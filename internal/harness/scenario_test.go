package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes content to a scenario file in a temp dir.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalScenario = `
name: minimal
description: "One get"
principals:
  - {name: admin, model: usm, level: authPriv}
steps:
  - get:
      as: admin
      oids: [1.3.6.1.2.1.1.1.0]
`

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/target_basic.yaml")
	require.NoError(t, err)

	assert.Equal(t, "target_basic", scenario.Name)
	assert.Equal(t, filepath.Join("testdata", "vacm.yaml"), scenario.VACM, "vacm resolved against the scenario dir")
	assert.Len(t, scenario.Principals, 2)
	require.Len(t, scenario.Tables, 1)
	assert.Len(t, scenario.Tables[0].Columns, 4)
	assert.Equal(t, []int64{1, 65535}, scenario.Tables[0].Columns[2].Range)
	require.Len(t, scenario.Steps, 4)
	require.NotNil(t, scenario.Steps[0].Set)
	assert.Equal(t, "alice", scenario.Steps[0].Set.As)
	assert.Equal(t, "1.5s", scenario.Steps[3].Advance)
	assert.Len(t, scenario.Assertions, 4)
	assert.Equal(t, []string{""}, scenario.ContextNames())
}

func TestLoadScenario_AllTestdataScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	for _, path := range paths {
		_, err := LoadScenario(path)
		assert.NoError(t, err, path)
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, minimalScenario+"assertion: []\n")
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MissingVACMFile(t *testing.T) {
	path := writeScenario(t, minimalScenario+"vacm: missing.yaml\n")
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vacm file not found")
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: x
steps: [{advance: 1s}]
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: x
steps: [{advance: 1s}]
`,
			wantErr: "description is required",
		},
		{
			name: "no steps",
			content: `
name: x
description: x
`,
			wantErr: "steps list is required",
		},
		{
			name: "two kinds in one step",
			content: `
name: x
description: x
principals: [{name: a, model: usm, level: authPriv}]
steps:
  - advance: 1s
    get: {as: a, oids: [1.3]}
`,
			wantErr: "exactly one of",
		},
		{
			name: "unknown principal",
			content: `
name: x
description: x
steps:
  - get: {as: nobody, oids: [1.3]}
`,
			wantErr: `unknown principal "nobody"`,
		},
		{
			name: "bad security level",
			content: `
name: x
description: x
principals: [{name: a, model: usm, level: high}]
steps: [{advance: 1s}]
`,
			wantErr: "unknown security level",
		},
		{
			name: "bad varbind",
			content: `
name: x
description: x
principals: [{name: a, model: usm, level: authPriv}]
steps:
  - set: {as: a, varbinds: ["1.3.6.1=z:1"]}
`,
			wantErr: "set:",
		},
		{
			name: "bad duration",
			content: `
name: x
description: x
steps: [{advance: soon}]
`,
			wantErr: "advance:",
		},
		{
			name: "bad table syntax",
			content: `
name: x
description: x
tables:
  - name: t
    entry: 1.3.6.1.4.1.1
    columns: [{sub_id: 1, name: c, syntax: float, access: read-write}]
steps: [{advance: 1s}]
`,
			wantErr: `unknown syntax "float"`,
		},
		{
			name: "status column missing",
			content: `
name: x
description: x
tables:
  - name: t
    entry: 1.3.6.1.4.1.1
    status: 9
    columns: [{sub_id: 1, name: c, syntax: integer, access: read-write}]
steps: [{advance: 1s}]
`,
			wantErr: "status column 9 not in schema",
		},
		{
			name: "final_state without expect",
			content: `
name: x
description: x
steps: [{advance: 1s}]
assertions:
  - {type: final_state, table: t, index: "1"}
`,
			wantErr: "expect is required for final_state",
		},
		{
			name: "unknown assertion",
			content: `
name: x
description: x
steps: [{advance: 1s}]
assertions:
  - {type: eventually}
`,
			wantErr: `unknown assertion type "eventually"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScenarioContextNames(t *testing.T) {
	s := &Scenario{Contexts: []string{"", "vrf-1"}}
	assert.Equal(t, []string{"", "vrf-1"}, s.ContextNames())
}
