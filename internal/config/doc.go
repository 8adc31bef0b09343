// Package config loads the agent configuration and the VACM bootstrap.
//
// The agent configuration is TOML:
//
//	[agent]
//	contexts = ["", "ctx1"]
//	engine_id = "80001f8880e9630000d61ff449"
//	strict = false
//
//	[storage]
//	path = "snmpcore.db"
//
//	[vacm]
//	file = "vacm.yaml"
//
//	[logging]
//	level = "info"
//
// Priority: flags > environment (SNMPCORE_DB, SNMPCORE_LOG_LEVEL) > file >
// defaults. Flags are applied by the caller.
//
// The VACM bootstrap is YAML with groups, views and access lists; see
// LoadVACM. Unknown keys are rejected in both formats.
package config
