package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/snmpcore/internal/vacm"
)

// DumpResult is the JSON payload of the dump command.
type DumpResult struct {
	EngineID string      `json:"engine_id,omitempty"`
	Groups   []GroupRow  `json:"groups"`
	Access   []AccessRow `json:"access"`
	Views    []ViewRow   `json:"views"`
}

// GroupRow is one vacmSecurityToGroupTable row.
type GroupRow struct {
	Model        string `json:"model"`
	SecurityName string `json:"security_name"`
	Group        string `json:"group"`
	Storage      string `json:"storage"`
	Status       string `json:"status"`
}

// AccessRow is one vacmAccessTable row.
type AccessRow struct {
	Group         string `json:"group"`
	ContextPrefix string `json:"context_prefix"`
	Model         string `json:"model"`
	Level         string `json:"level"`
	Match         string `json:"match"`
	ReadView      string `json:"read_view"`
	WriteView     string `json:"write_view"`
	NotifyView    string `json:"notify_view"`
	Storage       string `json:"storage"`
	Status        string `json:"status"`
}

// ViewRow is one vacmViewTreeFamilyTable row.
type ViewRow struct {
	View    string `json:"view"`
	Subtree string `json:"subtree"`
	Mask    string `json:"mask"`
	Type    string `json:"type"`
	Storage string `json:"storage"`
	Status  string `json:"status"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the VACM tables",
		Long: `Print the VACM tables in index order, as restored from the database with
the bootstrap file applied, whatever the status of each row.

Examples:
  snmpcore dump --config agent.toml
  snmpcore dump --db agent.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(rootOpts, cmd)
		},
	}
	return cmd
}

func runDump(opts *RootOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	rt, err := openRuntime(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	result := collectDump(rt)
	return out.Result(result, dumpLines(result)...)
}

func collectDump(rt *Runtime) DumpResult {
	result := DumpResult{
		EngineID: hex.EncodeToString(rt.Config.EngineID()),
		Groups:   []GroupRow{},
		Access:   []AccessRow{},
		Views:    []ViewRow{},
	}
	for _, g := range rt.ACL.GroupMappings() {
		result.Groups = append(result.Groups, GroupRow{
			Model:        g.Model.String(),
			SecurityName: g.SecurityName,
			Group:        g.Group,
			Storage:      g.Storage.String(),
			Status:       g.Status.String(),
		})
	}
	for _, e := range rt.ACL.AccessEntries() {
		result.Access = append(result.Access, AccessRow{
			Group:         e.Group,
			ContextPrefix: e.ContextPrefix,
			Model:         e.Model.String(),
			Level:         e.Level.String(),
			Match:         e.Match.String(),
			ReadView:      e.ReadView,
			WriteView:     e.WriteView,
			NotifyView:    e.NotifyView,
			Storage:       e.Storage.String(),
			Status:        e.Status.String(),
		})
	}
	for _, f := range rt.ACL.ViewTreeFamilies() {
		result.Views = append(result.Views, ViewRow{
			View:    f.View,
			Subtree: f.Subtree.String(),
			Mask:    vacm.FormatMask(f.Mask),
			Type:    f.Kind.String(),
			Storage: f.Storage.String(),
			Status:  f.Status.String(),
		})
	}
	return result
}

func dumpLines(d DumpResult) []string {
	var lines []string
	if d.EngineID != "" {
		lines = append(lines, "engine-id: "+d.EngineID)
	}
	lines = append(lines, vacm.GroupTableName)
	for _, g := range d.Groups {
		lines = append(lines, fmt.Sprintf("  model=%s security_name=%s group=%s storage=%s status=%s",
			g.Model, g.SecurityName, g.Group, g.Storage, g.Status))
	}
	lines = append(lines, vacm.AccessTableName)
	for _, e := range d.Access {
		lines = append(lines, fmt.Sprintf("  group=%s context_prefix=%q model=%s level=%s match=%s read=%q write=%q notify=%q storage=%s status=%s",
			e.Group, e.ContextPrefix, e.Model, e.Level, e.Match, e.ReadView, e.WriteView, e.NotifyView, e.Storage, e.Status))
	}
	lines = append(lines, vacm.ViewTableName)
	for _, f := range d.Views {
		lines = append(lines, fmt.Sprintf("  view=%s subtree=%s mask=%s type=%s storage=%s status=%s",
			f.View, f.Subtree, f.Mask, f.Type, f.Storage, f.Status))
	}
	return lines
}
