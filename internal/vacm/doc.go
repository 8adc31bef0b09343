// Package vacm implements the View-based Access Control Model of RFC 3415.
//
// The three configuration tables (security-to-group, access and view tree
// family) are ordinary conceptual rows governed by RowStatus: they can be
// created over SNMP like any other table or through the administrative API
// of Store. Only Active rows take part in access decisions.
//
// Engine answers access queries:
//
//	verdict := engine.IsAccessAllowed("", "alice", smi.SecurityModelUSM,
//	    smi.AuthNoPriv, vacm.Read, oid)
//
// Best-match selection over access entries ranks every candidate with a
// single orderable key (model exact, context exact, prefix length, level)
// and takes the maximum.
package vacm
