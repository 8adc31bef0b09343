package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/snmpcore/internal/smi"
	"github.com/roach88/snmpcore/internal/vacm"
)

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Context      string `json:"context"`
	SecurityName string `json:"security_name"`
	Model        string `json:"model"`
	Level        string `json:"level"`
	ViewType     string `json:"view_type"`
	OID          string `json:"oid"`
	View         string `json:"view,omitempty"`
	Verdict      string `json:"verdict"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <context> <security-name> <model> <level> <read|write|notify> <oid>",
		Short: "Ask the access control engine for a verdict",
		Long: `Resolve the view a principal is granted and test an OID against it.

Exit codes:
  0 - Access allowed (ok)
  1 - Access denied (any other verdict)
  2 - Command error (bad arguments, config, etc.)

Examples:
  snmpcore check "" alice usm authPriv read 1.3.6.1.2.1.1.1.0
  snmpcore check "" public v2c noAuthNoPriv write 1.3.6.1.2.1.1.5.0 --format json`,
		Args:          cobra.ExactArgs(6),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runCheck(opts *RootOptions, args []string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	contextName, securityName := args[0], args[1]
	model, err := smi.ParseSecurityModel(args[2])
	if err != nil {
		return out.fail(ExitCommandError, ErrCodeArgument, err)
	}
	level, err := smi.ParseSecurityLevel(args[3])
	if err != nil {
		return out.fail(ExitCommandError, ErrCodeArgument, err)
	}
	viewType, err := vacm.ParseViewType(args[4])
	if err != nil {
		return out.fail(ExitCommandError, ErrCodeArgument, err)
	}
	oid, err := smi.ParseOID(args[5])
	if err != nil {
		return out.fail(ExitCommandError, ErrCodeArgument, err)
	}

	rt, err := openRuntime(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	engine := rt.Agent.Engine()
	view, _ := engine.ViewName(contextName, securityName, model, level, viewType)
	verdict := engine.IsAccessAllowed(contextName, securityName, model, level, viewType, oid)

	result := CheckResult{
		Context:      contextName,
		SecurityName: securityName,
		Model:        model.String(),
		Level:        level.String(),
		ViewType:     viewType.String(),
		OID:          oid.String(),
		View:         view,
		Verdict:      verdict.String(),
	}
	line := verdict.String()
	if view != "" {
		line = fmt.Sprintf("%s (view %q)", verdict, view)
	}
	if err := out.Result(result, line); err != nil {
		return err
	}
	if verdict != vacm.Ok {
		return NewExitError(ExitFailure, "access denied: "+verdict.String())
	}
	return nil
}
