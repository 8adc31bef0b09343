package vacm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/snmpcore/internal/request"
	"github.com/roach88/snmpcore/internal/rowstatus"
	"github.com/roach88/snmpcore/internal/smi"
	"github.com/roach88/snmpcore/internal/table"
)

// AdminError reports a rejected administrative change.
type AdminError struct {
	Code   AdminErrorCode
	Table  string
	Index  smi.OID
	Status smi.ErrorStatus
}

// AdminErrorCode categorizes administrative failures.
type AdminErrorCode string

const (
	// ErrCodeRowExists indicates a row with the same index is present.
	ErrCodeRowExists AdminErrorCode = "ROW_EXISTS"

	// ErrCodeNoSuchRow indicates the row to remove is absent.
	ErrCodeNoSuchRow AdminErrorCode = "NO_SUCH_ROW"

	// ErrCodeRejected indicates a column constraint, the row lifecycle or
	// a listener refused the change. Status carries the SNMP error.
	ErrCodeRejected AdminErrorCode = "REJECTED"
)

func (e *AdminError) Error() string {
	if e.Code == ErrCodeRejected {
		return fmt.Sprintf("%s: %s row %s: %s", e.Code, e.Table, e.Index, e.Status)
	}
	return fmt.Sprintf("%s: %s row %s", e.Code, e.Table, e.Index)
}

// IsRowExists reports whether err is an ErrCodeRowExists AdminError.
func IsRowExists(err error) bool {
	var ae *AdminError
	return errors.As(err, &ae) && ae.Code == ErrCodeRowExists
}

// IsNoSuchRow reports whether err is an ErrCodeNoSuchRow AdminError.
func IsNoSuchRow(err error) bool {
	var ae *AdminError
	return errors.As(err, &ae) && ae.Code == ErrCodeNoSuchRow
}

// IsRejected reports whether err is an ErrCodeRejected AdminError.
func IsRejected(err error) bool {
	var ae *AdminError
	return errors.As(err, &ae) && ae.Code == ErrCodeRejected
}

// managed is one VACM table together with its status column.
type managed struct {
	table  *table.Table
	status *rowstatus.Column
	mt     *request.ManagedTable
}

// Store holds the three VACM tables.
//
// Thread-safety: Store is safe for concurrent use. Lookups scan under the
// table read lock; administrative changes take the row key lock like SETs do.
type Store struct {
	groups managed
	access managed
	views  managed
}

// StoreOption configures a Store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	tableOpts []request.TableOption
	guard     bool
}

// WithTableOptions applies opts to each of the three managed tables, e.g.
// request.Persistent().
func WithTableOptions(opts ...request.TableOption) StoreOption {
	return func(c *storeConfig) {
		c.tableOpts = append(c.tableOpts, opts...)
	}
}

// WithReferenceGuard installs a ReferenceGuard on the view table.
func WithReferenceGuard() StoreOption {
	return func(c *storeConfig) {
		c.guard = true
	}
}

// NewStore creates empty VACM tables.
func NewStore(opts ...StoreOption) *Store {
	var cfg storeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Store{
		groups: manage(newGroupTable(), validGroupIndex, cfg.tableOpts),
		access: manage(newAccessTable(), validAccessIndex, cfg.tableOpts),
		views:  manage(newViewTable(), validViewIndex, cfg.tableOpts),
	}
	if cfg.guard {
		s.views.status.AddListener(&ReferenceGuard{store: s})
	}
	return s
}

func manage(t *table.Table, valid func(smi.OID) error, opts []request.TableOption) managed {
	opts = append([]request.TableOption{request.WithIndexValidator(valid)}, opts...)
	mt, status := rowstatus.Manage(t, opts...)
	return managed{table: t, status: status, mt: mt}
}

// Tables returns the managed tables for registration with an agent.
func (s *Store) Tables() []*request.ManagedTable {
	return []*request.ManagedTable{s.groups.mt, s.access.mt, s.views.mt}
}

// StatusColumns returns the RowStatus columns of the group, access and view
// tables, in that order, for listener registration.
func (s *Store) StatusColumns() []*rowstatus.Column {
	return []*rowstatus.Column{s.groups.status, s.access.status, s.views.status}
}

// Group returns the group of an Active mapping for (model, securityName).
func (s *Store) Group(model smi.SecurityModel, securityName string) (string, bool) {
	row, ok := s.groups.table.Get(GroupIndex(model, securityName))
	if !ok || row.Status(groupStatusPos) != smi.Active {
		return "", false
	}
	return octets(row.Value(groupNamePos)), true
}

// ActiveAccess returns the Active access entries of group in index order.
func (s *Store) ActiveAccess(group string) []AccessEntry {
	var out []AccessEntry
	s.access.table.Scan(smi.StringIndex([]byte(group)), s.access.status.Filter(), func(r *table.Row) bool {
		if e, err := accessFromRow(r); err == nil {
			out = append(out, e)
		}
		return true
	})
	return out
}

// ActiveFamilies returns the Active families of view in index order.
func (s *Store) ActiveFamilies(view string) []ViewTreeFamily {
	var out []ViewTreeFamily
	s.views.table.Scan(smi.StringIndex([]byte(view)), s.views.status.Filter(), func(r *table.Row) bool {
		if f, err := viewFromRow(r); err == nil {
			out = append(out, f)
		}
		return true
	})
	return out
}

// GroupMappings returns every group mapping row, whatever its status.
func (s *Store) GroupMappings() []GroupMapping {
	var out []GroupMapping
	for _, r := range s.groups.table.Snapshot(nil) {
		if g, err := groupFromRow(r); err == nil {
			out = append(out, g)
		}
	}
	return out
}

// AccessEntries returns every access row, whatever its status.
func (s *Store) AccessEntries() []AccessEntry {
	var out []AccessEntry
	for _, r := range s.access.table.Snapshot(nil) {
		if e, err := accessFromRow(r); err == nil {
			out = append(out, e)
		}
	}
	return out
}

// ViewTreeFamilies returns every view family row, whatever its status.
func (s *Store) ViewTreeFamilies() []ViewTreeFamily {
	var out []ViewTreeFamily
	for _, r := range s.views.table.Snapshot(nil) {
		if f, err := viewFromRow(r); err == nil {
			out = append(out, f)
		}
	}
	return out
}

// AddGroup creates a group mapping row. A zero Status creates it Active.
func (s *Store) AddGroup(g GroupMapping) error {
	idx := GroupIndex(g.Model, g.SecurityName)
	if err := validGroupIndex(idx); err != nil {
		return s.groups.rejected(idx, smi.NoCreation)
	}
	return s.groups.create(idx, g.Status, map[int]smi.Variable{
		groupNamePos:    smi.OctetString(g.Group),
		groupStoragePos: storageOrDefault(g.Storage),
	})
}

// AddAccess creates an access row. A zero Match means exact and a zero
// Status creates it Active.
func (s *Store) AddAccess(e AccessEntry) error {
	idx := AccessIndex(e.Group, e.ContextPrefix, e.Model, e.Level)
	if err := validAccessIndex(idx); err != nil {
		return s.access.rejected(idx, smi.NoCreation)
	}
	match := e.Match
	if match == 0 {
		match = Exact
	}
	return s.access.create(idx, e.Status, map[int]smi.Variable{
		accessMatchPos:   smi.Integer(match),
		accessReadPos:    smi.OctetString(e.ReadView),
		accessWritePos:   smi.OctetString(e.WriteView),
		accessNotifyPos:  smi.OctetString(e.NotifyView),
		accessStoragePos: storageOrDefault(e.Storage),
	})
}

// AddViewTreeFamily creates a view family row. The mask is stored as given;
// see FullMask for an exact-match mask. A zero Kind means included and a
// zero Status creates it Active.
func (s *Store) AddViewTreeFamily(f ViewTreeFamily) error {
	idx := ViewIndex(f.View, f.Subtree)
	if err := validViewIndex(idx); err != nil {
		return s.views.rejected(idx, smi.NoCreation)
	}
	kind := f.Kind
	if kind == 0 {
		kind = Included
	}
	return s.views.create(idx, f.Status, map[int]smi.Variable{
		viewMaskPos:    smi.OctetString(f.Mask),
		viewKindPos:    smi.Integer(kind),
		viewStoragePos: storageOrDefault(f.Storage),
	})
}

// RemoveGroup destroys a group mapping row.
func (s *Store) RemoveGroup(model smi.SecurityModel, securityName string) error {
	return s.groups.destroy(GroupIndex(model, securityName))
}

// RemoveAccess destroys an access row.
func (s *Store) RemoveAccess(group, contextPrefix string, model smi.SecurityModel, level smi.SecurityLevel) error {
	return s.access.destroy(AccessIndex(group, contextPrefix, model, level))
}

// RemoveViewTreeFamily destroys a view family row.
func (s *Store) RemoveViewTreeFamily(view string, subtree smi.OID) error {
	return s.views.destroy(ViewIndex(view, subtree))
}

func (m managed) rejected(idx smi.OID, status smi.ErrorStatus) error {
	return &AdminError{Code: ErrCodeRejected, Table: m.table.Name(), Index: idx, Status: status}
}

// create inserts a row the way a createAndGo (or, for NotInService,
// createAndWait) SET would.
func (m managed) create(idx smi.OID, status smi.RowStatus, values map[int]smi.Variable) error {
	unlock := m.table.LockRows(idx)
	defer unlock()

	if _, ok := m.table.Get(idx); ok {
		return &AdminError{Code: ErrCodeRowExists, Table: m.table.Name(), Index: idx}
	}
	row := m.table.NewRow(idx)
	schema := m.table.Schema()
	for pos, v := range values {
		if st := schema.Columns[pos].Validate(v); st.Failed() {
			return m.rejected(idx, st)
		}
		row.SetValue(pos, v)
	}

	action := smi.CreateAndGo
	switch status {
	case 0, smi.Active:
	case smi.NotInService, smi.NotReady:
		action = smi.CreateAndWait
	default:
		return m.rejected(idx, smi.WrongValue)
	}
	add := func() bool { return m.mt.Rows().Add(row) }
	if st := m.status.ActivateWith(row, action, add); st.Failed() {
		return m.rejected(idx, st)
	}
	return nil
}

func (m managed) destroy(idx smi.OID) error {
	unlock := m.table.LockRows(idx)
	defer unlock()

	row, ok := m.table.Get(idx)
	if !ok {
		return &AdminError{Code: ErrCodeNoSuchRow, Table: m.table.Name(), Index: idx}
	}
	st := m.status.ActivateWith(row, smi.Destroy, func() bool {
		_, ok := m.mt.Rows().Remove(idx)
		return ok
	})
	if st.Failed() {
		return m.rejected(idx, st)
	}
	return nil
}

// FullMask returns the mask that makes every arc of subtree significant.
func FullMask(subtree smi.OID) []byte {
	mask := make([]byte, (len(subtree)+7)/8)
	for i := range mask {
		mask[i] = 0xff
	}
	return mask
}

// SubtreeMatches reports whether oid lies in the family (subtree, mask).
// Bit i of the mask (byte i/8, bit 0x80>>(i%8)) marks arc i significant;
// arcs beyond the mask are don't-care.
func SubtreeMatches(subtree smi.OID, mask []byte, oid smi.OID) bool {
	if len(oid) < len(subtree) {
		return false
	}
	for i, arc := range subtree {
		if maskBit(mask, i) && oid[i] != arc {
			return false
		}
	}
	return true
}

func maskBit(mask []byte, i int) bool {
	b := i / 8
	if b >= len(mask) {
		return false
	}
	return mask[b]&(0x80>>(i%8)) != 0
}

// FormatMask renders a mask as colon-separated hex octets.
func FormatMask(mask []byte) string {
	parts := make([]string, len(mask))
	for i, b := range mask {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, ":")
}
