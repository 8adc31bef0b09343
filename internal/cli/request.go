package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/snmpcore/internal/agent"
	"github.com/roach88/snmpcore/internal/smi"
)

// PrincipalOptions identify who a request is made as.
type PrincipalOptions struct {
	Context string
	User    string
	Model   string
	Level   string
}

func (p *PrincipalOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.Context, "context", "", "context name")
	cmd.Flags().StringVarP(&p.User, "user", "u", "", "security name (required)")
	cmd.Flags().StringVar(&p.Model, "model", "usm", "security model (any|v1|v2c|usm|tsm)")
	cmd.Flags().StringVar(&p.Level, "level", "authPriv", "security level (noAuthNoPriv|authNoPriv|authPriv)")
	cmd.MarkFlagRequired("user")
}

func (p *PrincipalOptions) principal() (agent.Principal, error) {
	model, err := smi.ParseSecurityModel(p.Model)
	if err != nil {
		return agent.Principal{}, err
	}
	level, err := smi.ParseSecurityLevel(p.Level)
	if err != nil {
		return agent.Principal{}, err
	}
	return agent.Principal{SecurityName: p.User, Model: model, Level: level}, nil
}

// SetResult is the JSON payload of the set command.
type SetResult struct {
	RequestID string   `json:"request_id"`
	Seq       int64    `json:"seq"`
	Status    string   `json:"status"`
	Index     int      `json:"index,omitempty"`
	VarBinds  []string `json:"varbinds"`
}

// ReadResult is the JSON payload of the get and walk commands.
type ReadResult struct {
	VarBinds []string `json:"varbinds"`
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	p := &PrincipalOptions{}

	cmd := &cobra.Command{
		Use:   "set <oid=type:value>...",
		Short: "Run a SET request",
		Long: `Run one SET request against the persisted agent state.

Values are written TYPE:VALUE with the types i (INTEGER), u (Gauge32),
c (Counter32), C (Counter64), t (TimeTicks), a (IpAddress), o (OBJECT
IDENTIFIER), s (OCTET STRING text), x (OCTET STRING hex) and n (NULL).

Exit codes:
  0 - noError
  1 - the request failed with an error status
  2 - Command error (unknown context, malformed varbind, etc.)

Examples:
  snmpcore set -u admin 1.3.6.1.6.3.16.1.2.1.3.2.6.112.117.98.108.105.99=s:readers \
    1.3.6.1.6.3.16.1.2.1.5.2.6.112.117.98.108.105.99=i:4`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(rootOpts, p, args, cmd)
		},
	}
	p.addFlags(cmd)
	return cmd
}

func runSet(opts *RootOptions, p *PrincipalOptions, args []string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	principal, err := p.principal()
	if err != nil {
		return out.fail(ExitCommandError, ErrCodeArgument, err)
	}
	vbs := make([]smi.VarBind, len(args))
	for i, arg := range args {
		if vbs[i], err = smi.ParseVarBind(arg); err != nil {
			return out.fail(ExitCommandError, ErrCodeArgument, err)
		}
	}

	rt, err := openRuntime(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	resp, err := rt.Agent.Set(cmd.Context(), principal, p.Context, vbs)
	if err != nil {
		return out.fail(ExitCommandError, ErrCodeContext, err)
	}

	result := SetResult{
		RequestID: resp.RequestID,
		Seq:       resp.Seq,
		Status:    resp.Status.String(),
		Index:     resp.Index,
		VarBinds:  formatVarBinds(resp.VarBinds),
	}
	summary := fmt.Sprintf("%s seq=%d status=%s", resp.RequestID, resp.Seq, resp.Status)
	if resp.Index > 0 {
		summary += fmt.Sprintf(" index=%d", resp.Index)
	}
	if err := out.Result(result, append([]string{summary}, result.VarBinds...)...); err != nil {
		return err
	}
	if !resp.OK() {
		return NewExitError(ExitFailure, fmt.Sprintf("set failed: %s at varbind %d", resp.Status, resp.Index))
	}
	return nil
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	p := &PrincipalOptions{}

	cmd := &cobra.Command{
		Use:   "get <oid>...",
		Short: "Read object instances",
		Long: `Read object instances as the given principal. Missing objects and
instances outside the principal's read view print as noSuchObject or
noSuchInstance.

Examples:
  snmpcore get -u admin 1.3.6.1.6.3.16.1.2.1.3.2.6.112.117.98.108.105.99`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(rootOpts, p, cmd, func(rt *Runtime, principal agent.Principal) ([]smi.VarBind, error) {
				oids := make([]smi.OID, len(args))
				for i, arg := range args {
					oid, err := smi.ParseOID(arg)
					if err != nil {
						return nil, err
					}
					oids[i] = oid
				}
				return rt.Agent.Get(cmd.Context(), principal, p.Context, oids)
			})
		},
	}
	p.addFlags(cmd)
	return cmd
}

// NewWalkCommand creates the walk command.
func NewWalkCommand(rootOpts *RootOptions) *cobra.Command {
	p := &PrincipalOptions{}

	cmd := &cobra.Command{
		Use:   "walk <root-oid>",
		Short: "Read every instance under a subtree",
		Long: `Read every readable instance under root in OID order, skipping
instances outside the principal's read view.

Examples:
  snmpcore walk -u admin 1.3.6.1.6.3.16`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(rootOpts, p, cmd, func(rt *Runtime, principal agent.Principal) ([]smi.VarBind, error) {
				root, err := smi.ParseOID(args[0])
				if err != nil {
					return nil, err
				}
				return rt.Agent.Walk(cmd.Context(), principal, p.Context, root)
			})
		},
	}
	p.addFlags(cmd)
	return cmd
}

func runRead(opts *RootOptions, p *PrincipalOptions, cmd *cobra.Command, read func(*Runtime, agent.Principal) ([]smi.VarBind, error)) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	principal, err := p.principal()
	if err != nil {
		return out.fail(ExitCommandError, ErrCodeArgument, err)
	}

	rt, err := openRuntime(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	vbs, err := read(rt, principal)
	switch {
	case agent.IsUnknownContext(err):
		return out.fail(ExitCommandError, ErrCodeContext, err)
	case agent.IsAuthorization(err):
		return out.fail(ExitFailure, ErrCodeAccess, err)
	case err != nil:
		return out.fail(ExitCommandError, ErrCodeArgument, err)
	}

	result := ReadResult{VarBinds: formatVarBinds(vbs)}
	return out.Result(result, result.VarBinds...)
}

func formatVarBinds(vbs []smi.VarBind) []string {
	out := make([]string, len(vbs))
	for i, vb := range vbs {
		out[i] = smi.FormatVarBind(vb)
	}
	return out
}
