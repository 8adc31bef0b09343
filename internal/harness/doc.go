// Package harness runs conformance scenarios against a fully wired agent.
//
// A scenario declares contexts, fixture tables, an optional VACM bootstrap
// and a list of steps. Each step is a SET, GET, walk or access check made by
// a named principal; the outcome of every step is recorded in a trace that
// can be compared against a golden file.
//
// # Scenario Format
//
//	name: target_lifecycle
//	description: "createAndWait, fill in, activate"
//	contexts: [""]
//	vacm: vacm.yaml            # relative to the scenario file
//	principals:
//	  - {name: alice, model: usm, level: authPriv}
//	tables:
//	  - name: targetTable
//	    entry: 1.3.6.1.4.1.99999.4.1
//	    status: 4
//	    persistent: true
//	    columns:
//	      - {sub_id: 2, name: targetAddr, syntax: octets, access: read-create, mandatory: true}
//	      - {sub_id: 3, name: targetPort, syntax: integer, access: read-create, default: "i:162"}
//	      - {sub_id: 4, name: targetStatus, syntax: integer, access: read-create}
//	steps:
//	  - set:
//	      as: alice
//	      varbinds: ["1.3.6.1.4.1.99999.4.1.4.1=i:5"]
//	    expect: {status: noError}
//	  - get:
//	      as: alice
//	      oids: [1.3.6.1.4.1.99999.4.1.4.1]
//	    expect:
//	      values: ["1.3.6.1.4.1.99999.4.1.4.1=i:3"]
//	assertions:
//	  - {type: final_state, table: targetTable, index: "1", expect: {targetStatus: "i:3"}}
//
// Values use the OID=T:VALUE form of smi.ParseVarBind.
//
// # Assertion Types
//
//   - trace_contains: a step with the given op (and status, if set) ran
//   - trace_order: ops appear in the given order
//   - trace_count: exactly count steps match op (and status)
//   - final_state: a live row holds the expected column values
//   - row_count: a live table holds count rows
//   - stored_rows: the store holds count rows of a table
//   - audit_count: the audit log holds count SET requests
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory SQLite store, a logical clock starting at
// 0, sequential request ids and a manual wall clock, so the same scenario
// always produces a byte-identical trace.
package harness
