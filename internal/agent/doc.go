// Package agent ties the managed tables, the SET coordinator and access
// control together behind GET, SET and walk operations addressed by OID.
//
// An Agent serves one or more contexts. Each context has its own set of
// registered tables and an uptime measured from its registration:
//
//	contexts := agent.NewContexts(nil)
//	contexts.Register("")
//	a := agent.New(contexts, agent.WithAccessControl(vacmStore))
//	a.Register("", table)
//	resp, err := a.Set(ctx, principal, "", varbinds)
package agent
