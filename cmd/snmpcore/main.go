// Command snmpcore runs SET, GET and access control checks against a
// persisted SNMP agent state.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/snmpcore/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
