package harness

// TraceEvent records the outcome of one step.
type TraceEvent struct {
	Step         int      `json:"step"`
	Op           string   `json:"op"`
	Context      string   `json:"context"`
	SecurityName string   `json:"security_name,omitempty"`
	RequestID    string   `json:"request_id,omitempty"`
	Seq          int64    `json:"seq,omitempty"`
	Status       string   `json:"status,omitempty"` // SET error status or access verdict
	Index        int      `json:"index,omitempty"`
	VarBinds     []string `json:"varbinds,omitempty"` // OID=T:VALUE
	Error        string   `json:"error,omitempty"`
	UpTime       int64    `json:"uptime,omitempty"` // advance only, in hundredths
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
