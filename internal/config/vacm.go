package config

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/snmpcore/internal/smi"
	"github.com/roach88/snmpcore/internal/vacm"
)

// VACMFile is the YAML access control bootstrap.
type VACMFile struct {
	Groups []GroupSpec  `yaml:"groups"`
	Views  []ViewSpec   `yaml:"views"`
	Access []AccessSpec `yaml:"access"`
}

// GroupSpec maps a (model, securityName) pair to a group.
type GroupSpec struct {
	Model        string `yaml:"model"`
	SecurityName string `yaml:"security_name"`
	Group        string `yaml:"group"`
	Storage      string `yaml:"storage,omitempty"`
	Status       string `yaml:"status,omitempty"`
}

// ViewSpec is one view tree family. A missing mask makes every arc of the
// subtree significant; an empty one makes every arc don't-care.
type ViewSpec struct {
	View    string  `yaml:"view"`
	Subtree string  `yaml:"subtree"`
	Mask    *string `yaml:"mask,omitempty"` // hex octets, ':' or ' ' separated
	Kind    string  `yaml:"kind,omitempty"`
	Storage string  `yaml:"storage,omitempty"`
	Status  string  `yaml:"status,omitempty"`
}

// AccessSpec is one access entry.
type AccessSpec struct {
	Group         string `yaml:"group"`
	ContextPrefix string `yaml:"context_prefix"`
	Model         string `yaml:"model"`
	Level         string `yaml:"level"`
	Match         string `yaml:"match,omitempty"`
	ReadView      string `yaml:"read_view,omitempty"`
	WriteView     string `yaml:"write_view,omitempty"`
	NotifyView    string `yaml:"notify_view,omitempty"`
	Storage       string `yaml:"storage,omitempty"`
	Status        string `yaml:"status,omitempty"`
}

// Bootstrap is a VACMFile with every name resolved.
type Bootstrap struct {
	Groups []vacm.GroupMapping
	Views  []vacm.ViewTreeFamily
	Access []vacm.AccessEntry
}

// LoadVACM reads and resolves the VACM bootstrap at path.
func LoadVACM(path string) (*Bootstrap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vacm file: %w", err)
	}
	b, err := ParseVACM(data)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.File = path
			return nil, ve
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// ParseVACM decodes and resolves a VACM bootstrap document.
func ParseVACM(data []byte) (*Bootstrap, error) {
	var f VACMFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse vacm yaml: %w", err)
	}
	return f.Resolve()
}

// Resolve converts names to typed VACM rows.
func (f *VACMFile) Resolve() (*Bootstrap, error) {
	b := &Bootstrap{}
	for i, g := range f.Groups {
		field := fmt.Sprintf("groups[%d]", i)
		m, err := resolveGroup(field, g)
		if err != nil {
			return nil, err
		}
		b.Groups = append(b.Groups, m)
	}
	for i, v := range f.Views {
		field := fmt.Sprintf("views[%d]", i)
		fam, err := resolveView(field, v)
		if err != nil {
			return nil, err
		}
		b.Views = append(b.Views, fam)
	}
	for i, a := range f.Access {
		field := fmt.Sprintf("access[%d]", i)
		e, err := resolveAccess(field, a)
		if err != nil {
			return nil, err
		}
		b.Access = append(b.Access, e)
	}
	return b, nil
}

func resolveGroup(field string, g GroupSpec) (vacm.GroupMapping, error) {
	m := vacm.GroupMapping{SecurityName: g.SecurityName, Group: g.Group}
	var err error
	if m.Model, err = smi.ParseSecurityModel(g.Model); err != nil {
		return m, invalid(field+".model", "%v", err)
	}
	if g.Group == "" {
		return m, invalid(field+".group", "required")
	}
	if m.Storage, m.Status, err = rowMeta(field, g.Storage, g.Status); err != nil {
		return m, err
	}
	return m, nil
}

func resolveView(field string, v ViewSpec) (vacm.ViewTreeFamily, error) {
	fam := vacm.ViewTreeFamily{View: v.View}
	var err error
	if v.View == "" {
		return fam, invalid(field+".view", "required")
	}
	if fam.Subtree, err = smi.ParseOID(v.Subtree); err != nil {
		return fam, invalid(field+".subtree", "%v", err)
	}
	if v.Mask == nil {
		fam.Mask = vacm.FullMask(fam.Subtree)
	} else if fam.Mask, err = ParseMask(*v.Mask); err != nil {
		return fam, invalid(field+".mask", "%v", err)
	}
	if v.Kind != "" {
		if fam.Kind, err = vacm.ParseKind(v.Kind); err != nil {
			return fam, invalid(field+".kind", "%v", err)
		}
	}
	if fam.Storage, fam.Status, err = rowMeta(field, v.Storage, v.Status); err != nil {
		return fam, err
	}
	return fam, nil
}

func resolveAccess(field string, a AccessSpec) (vacm.AccessEntry, error) {
	e := vacm.AccessEntry{
		Group:         a.Group,
		ContextPrefix: a.ContextPrefix,
		ReadView:      a.ReadView,
		WriteView:     a.WriteView,
		NotifyView:    a.NotifyView,
	}
	var err error
	if a.Group == "" {
		return e, invalid(field+".group", "required")
	}
	if e.Model, err = smi.ParseSecurityModel(a.Model); err != nil {
		return e, invalid(field+".model", "%v", err)
	}
	if e.Level, err = smi.ParseSecurityLevel(a.Level); err != nil {
		return e, invalid(field+".level", "%v", err)
	}
	if a.Match != "" {
		if e.Match, err = vacm.ParseMatchType(a.Match); err != nil {
			return e, invalid(field+".match", "%v", err)
		}
	}
	if e.Storage, e.Status, err = rowMeta(field, a.Storage, a.Status); err != nil {
		return e, err
	}
	return e, nil
}

// rowMeta resolves the optional storage and status names. Status may only
// name a state a row can be created in.
func rowMeta(field, storage, status string) (smi.StorageType, smi.RowStatus, error) {
	var (
		st  smi.StorageType
		rs  smi.RowStatus
		err error
	)
	if storage != "" {
		if st, err = smi.ParseStorageType(storage); err != nil {
			return 0, 0, invalid(field+".storage", "%v", err)
		}
	}
	if status != "" {
		if rs, err = smi.ParseRowStatus(status); err != nil {
			return 0, 0, invalid(field+".status", "%v", err)
		}
		if rs != smi.Active && rs != smi.NotInService {
			return 0, 0, invalid(field+".status", "must be active or notInService")
		}
	}
	return st, rs, nil
}

// ParseMask decodes hex octets, optionally separated by ':' or spaces.
func ParseMask(s string) ([]byte, error) {
	s = strings.NewReplacer(":", "", " ", "").Replace(strings.TrimSpace(s))
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) > 32 {
		return nil, fmt.Errorf("mask longer than 16 octets")
	}
	mask, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("mask %q: %w", s, err)
	}
	return mask, nil
}

// Apply installs the bootstrap into store: groups, then views, then access
// entries. Rows already present are kept as they are, so state restored
// from storage wins over the file. It returns the number of rows added and
// stops at the first row the store refuses.
func (b *Bootstrap) Apply(store *vacm.Store) (int, error) {
	added := 0
	add := func(err error, what string) error {
		switch {
		case err == nil:
			added++
		case vacm.IsRowExists(err):
		default:
			return fmt.Errorf("%s: %w", what, err)
		}
		return nil
	}
	for _, g := range b.Groups {
		if err := add(store.AddGroup(g), fmt.Sprintf("group %s/%s", g.Model, g.SecurityName)); err != nil {
			return added, err
		}
	}
	for _, f := range b.Views {
		if err := add(store.AddViewTreeFamily(f), fmt.Sprintf("view %s %s", f.View, f.Subtree)); err != nil {
			return added, err
		}
	}
	for _, e := range b.Access {
		what := fmt.Sprintf("access %s %q %s %s", e.Group, e.ContextPrefix, e.Model, e.Level)
		if err := add(store.AddAccess(e), what); err != nil {
			return added, err
		}
	}
	return added, nil
}
