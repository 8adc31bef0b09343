package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/snmpcore/internal/smi"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario; it names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Contexts lists the contexts to register. Default: the default
	// context "" only.
	Contexts []string `yaml:"contexts,omitempty"`

	// VACM is the path of a VACM bootstrap file. Without it the agent
	// enforces no access control.
	VACM string `yaml:"vacm,omitempty"`

	// Principals lists the identities steps may act as.
	Principals []PrincipalSpec `yaml:"principals"`

	// Tables are fixture tables, registered in every context unless the
	// table names its own.
	Tables []TableSpec `yaml:"tables,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// PrincipalSpec names a security identity.
type PrincipalSpec struct {
	Name  string `yaml:"name"`
	Model string `yaml:"model"`
	Level string `yaml:"level"`
}

// TableSpec describes a fixture table.
type TableSpec struct {
	Name       string       `yaml:"name"`
	Entry      string       `yaml:"entry"`
	Status     uint32       `yaml:"status,omitempty"` // RowStatus column sub-id
	Persistent bool         `yaml:"persistent,omitempty"`
	Contexts   []string     `yaml:"contexts,omitempty"`
	Columns    []ColumnSpec `yaml:"columns"`
}

// ColumnSpec describes one column of a fixture table.
type ColumnSpec struct {
	SubID     uint32  `yaml:"sub_id"`
	Name      string  `yaml:"name"`
	Syntax    string  `yaml:"syntax"`
	Access    string  `yaml:"access"`
	Mandatory bool    `yaml:"mandatory,omitempty"`
	Default   string  `yaml:"default,omitempty"` // T:VALUE
	MinLen    int     `yaml:"min_len,omitempty"`
	MaxLen    int     `yaml:"max_len,omitempty"`
	Range     []int64 `yaml:"range,omitempty"` // [min, max]
	Enum      []int64 `yaml:"enum,omitempty"`
}

// Step is one request. Exactly one of Set, Get, Walk, Access and Advance
// is set.
type Step struct {
	Set    *SetStep    `yaml:"set,omitempty"`
	Get    *GetStep    `yaml:"get,omitempty"`
	Walk   *WalkStep   `yaml:"walk,omitempty"`
	Access *AccessStep `yaml:"access,omitempty"`

	// Advance moves the wall clock, e.g. "1.5s".
	Advance string `yaml:"advance,omitempty"`

	// Expect is checked against the step's outcome when present.
	Expect *Expect `yaml:"expect,omitempty"`
}

// SetStep is a SET request.
type SetStep struct {
	As       string   `yaml:"as"`
	Context  string   `yaml:"context,omitempty"`
	VarBinds []string `yaml:"varbinds"`
}

// GetStep is a GET request.
type GetStep struct {
	As      string   `yaml:"as"`
	Context string   `yaml:"context,omitempty"`
	OIDs    []string `yaml:"oids"`
}

// WalkStep reads every instance under Root.
type WalkStep struct {
	As      string `yaml:"as"`
	Context string `yaml:"context,omitempty"`
	Root    string `yaml:"root"`
}

// AccessStep asks the access control engine for a verdict.
type AccessStep struct {
	As       string `yaml:"as"`
	Context  string `yaml:"context,omitempty"`
	ViewType string `yaml:"view_type"`
	OID      string `yaml:"oid"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Status is the SET error status name, e.g. noError, wrongValue.
	Status string `yaml:"status,omitempty"`

	// Index is the 1-based varbind the SET status refers to.
	Index int `yaml:"index,omitempty"`

	// Error is the dispatch error code, e.g. AUTHORIZATION.
	Error string `yaml:"error,omitempty"`

	// Values are the GET or walk results in OID=T:VALUE form.
	Values []string `yaml:"values,omitempty"`

	// Verdict is the access verdict name, e.g. ok, notInView.
	Verdict string `yaml:"verdict,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Op is the step kind (used by trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Status narrows trace matches to steps with this status or verdict.
	Status string `yaml:"status,omitempty"`

	// Ops is the expected op order (used by trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Context and Table address a table (final_state, row_count,
	// stored_rows).
	Context string `yaml:"context,omitempty"`
	Table   string `yaml:"table,omitempty"`

	// Index is the dotted row index (used by final_state).
	Index string `yaml:"index,omitempty"`

	// Expect maps column names to T:VALUE (used by final_state).
	// Subset match - only the named columns are validated.
	Expect map[string]string `yaml:"expect,omitempty"`

	// Count is the expected number of matches.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertRowCount      = "row_count"
	AssertStoredRows    = "stored_rows"
	AssertAuditCount    = "audit_count"
)

// Step ops as they appear in the trace.
const (
	OpSet     = "set"
	OpGet     = "get"
	OpWalk    = "walk"
	OpAccess  = "access"
	OpAdvance = "advance"
)

// LoadScenario reads and parses a scenario YAML file. A relative vacm path
// is resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.VACM != "" && !filepath.IsAbs(scenario.VACM) {
		scenario.VACM = filepath.Join(filepath.Dir(path), scenario.VACM)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// ContextNames returns the contexts to register.
func (s *Scenario) ContextNames() []string {
	if len(s.Contexts) == 0 {
		return []string{""}
	}
	return s.Contexts
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if s.VACM != "" {
		if _, err := os.Stat(s.VACM); os.IsNotExist(err) {
			return fmt.Errorf("vacm file not found: %s", s.VACM)
		}
	}

	principals := make(map[string]bool, len(s.Principals))
	for i, p := range s.Principals {
		if p.Name == "" {
			return fmt.Errorf("principals[%d]: name is required", i)
		}
		if _, err := smi.ParseSecurityModel(p.Model); err != nil {
			return fmt.Errorf("principals[%d]: %w", i, err)
		}
		if _, err := smi.ParseSecurityLevel(p.Level); err != nil {
			return fmt.Errorf("principals[%d]: %w", i, err)
		}
		principals[p.Name] = true
	}

	for i, t := range s.Tables {
		if _, err := buildSchema(t); err != nil {
			return fmt.Errorf("tables[%d]: %w", i, err)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(step, principals); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(step Step, principals map[string]bool) error {
	n := 0
	as := ""
	if step.Set != nil {
		n++
		as = step.Set.As
		if len(step.Set.VarBinds) == 0 {
			return fmt.Errorf("set: varbinds is required")
		}
		for _, text := range step.Set.VarBinds {
			if _, err := smi.ParseVarBind(text); err != nil {
				return fmt.Errorf("set: %w", err)
			}
		}
	}
	if step.Get != nil {
		n++
		as = step.Get.As
		if len(step.Get.OIDs) == 0 {
			return fmt.Errorf("get: oids is required")
		}
		for _, text := range step.Get.OIDs {
			if _, err := smi.ParseOID(text); err != nil {
				return fmt.Errorf("get: %w", err)
			}
		}
	}
	if step.Walk != nil {
		n++
		as = step.Walk.As
		if _, err := smi.ParseOID(step.Walk.Root); err != nil {
			return fmt.Errorf("walk: %w", err)
		}
	}
	if step.Access != nil {
		n++
		as = step.Access.As
		if _, err := smi.ParseOID(step.Access.OID); err != nil {
			return fmt.Errorf("access: %w", err)
		}
	}
	if step.Advance != "" {
		n++
		if _, err := time.ParseDuration(step.Advance); err != nil {
			return fmt.Errorf("advance: %w", err)
		}
	}
	if n != 1 {
		return fmt.Errorf("exactly one of set, get, walk, access or advance is required")
	}
	if step.Advance != "" {
		return nil
	}
	if !principals[as] {
		return fmt.Errorf("unknown principal %q", as)
	}
	if step.Expect != nil {
		for _, text := range step.Expect.Values {
			if _, err := smi.ParseVarBind(text); err != nil {
				return fmt.Errorf("expect: %w", err)
			}
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
		if _, err := smi.ParseOID(a.Index); err != nil {
			return fmt.Errorf("assertions[%d]: index: %w", index, err)
		}
		for col, text := range a.Expect {
			if _, err := smi.ParseTypedValue(text); err != nil {
				return fmt.Errorf("assertions[%d]: expect %s: %w", index, col, err)
			}
		}
	case AssertRowCount, AssertStoredRows:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for %s", index, a.Type)
		}
	case AssertAuditCount:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
