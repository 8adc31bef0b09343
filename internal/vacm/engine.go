package vacm

import (
	"log/slog"
	"strings"

	"github.com/roach88/snmpcore/internal/smi"
)

// ContextRegistry tells the engine which contexts exist.
type ContextRegistry interface {
	Supported(name string) bool
}

// Engine answers access queries over a Store. It keeps no state of its own.
type Engine struct {
	store    *Store
	contexts ContextRegistry
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an engine deciding over store for the contexts known
// to contexts.
func NewEngine(store *Store, contexts ContextRegistry, opts ...EngineOption) *Engine {
	e := &Engine{store: store, contexts: contexts, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the tables the engine decides over.
func (e *Engine) Store() *Store { return e.store }

// IsAccessAllowed decides whether the principal may access oid with the
// given view type in contextName.
func (e *Engine) IsAccessAllowed(contextName, securityName string, model smi.SecurityModel, level smi.SecurityLevel, viewType ViewType, oid smi.OID) Verdict {
	view, verdict := e.ViewName(contextName, securityName, model, level, viewType)
	if verdict == Ok {
		verdict = e.IsInView(view, oid)
	}
	e.logger.Debug("access decision",
		"context", contextName,
		"security_name", securityName,
		"model", model.String(),
		"level", level.String(),
		"view_type", viewType.String(),
		"oid", oid.String(),
		"verdict", verdict.String(),
	)
	return verdict
}

// ViewName resolves the view the principal is granted for viewType in
// contextName.
func (e *Engine) ViewName(contextName, securityName string, model smi.SecurityModel, level smi.SecurityLevel, viewType ViewType) (string, Verdict) {
	if !e.contexts.Supported(contextName) {
		return "", NoSuchContext
	}
	group, ok := e.store.Group(model, securityName)
	if !ok {
		return "", NoGroupName
	}
	entry, ok := bestMatch(e.store.ActiveAccess(group), contextName, model, level)
	if !ok {
		return "", NoAccessEntry
	}
	view := entry.View(viewType)
	if view == "" {
		return "", NoSuchView
	}
	return view, Ok
}

// IsInView tests oid against the Active families of view.
func (e *Engine) IsInView(view string, oid smi.OID) Verdict {
	return viewVerdict(e.store.ActiveFamilies(view), oid)
}

// NotifyFilter resolves the notify view once and returns a filter that
// tests many OIDs against a snapshot of its families.
func (e *Engine) NotifyFilter(contextName, securityName string, model smi.SecurityModel, level smi.SecurityLevel) (*ViewFilter, Verdict) {
	view, verdict := e.ViewName(contextName, securityName, model, level, Notify)
	if verdict != Ok {
		return nil, verdict
	}
	return &ViewFilter{View: view, families: e.store.ActiveFamilies(view)}, Ok
}

// ViewFilter is a resolved view.
type ViewFilter struct {
	View     string
	families []ViewTreeFamily
}

// Verdict tests oid against the view.
func (f *ViewFilter) Verdict(oid smi.OID) Verdict {
	return viewVerdict(f.families, oid)
}

// Allows reports whether oid is in the view.
func (f *ViewFilter) Allows(oid smi.OID) bool {
	return f.Verdict(oid) == Ok
}

// viewVerdict lets the last matching family in index order decide.
func viewVerdict(families []ViewTreeFamily, oid smi.OID) Verdict {
	if len(families) == 0 {
		return NoSuchView
	}
	verdict := NotInView
	for _, f := range families {
		if !SubtreeMatches(f.Subtree, f.Mask, oid) {
			continue
		}
		if f.Kind == Included {
			verdict = Ok
		} else {
			verdict = NotInView
		}
	}
	return verdict
}

// rankKey orders candidate access entries; the greatest wins.
type rankKey struct {
	modelExact   bool
	contextExact bool
	prefixLen    int
	level        smi.SecurityLevel
}

func (k rankKey) less(o rankKey) bool {
	if k.modelExact != o.modelExact {
		return o.modelExact
	}
	if k.contextExact != o.contextExact {
		return o.contextExact
	}
	if k.prefixLen != o.prefixLen {
		return k.prefixLen < o.prefixLen
	}
	return k.level < o.level
}

// rank returns the entry's key, or false if it is not a candidate.
func rank(e AccessEntry, contextName string, model smi.SecurityModel, level smi.SecurityLevel) (rankKey, bool) {
	contextExact := e.ContextPrefix == contextName
	if !contextExact && !(e.Match == Prefix && strings.HasPrefix(contextName, e.ContextPrefix)) {
		return rankKey{}, false
	}
	if e.Model != model && e.Model != smi.SecurityModelAny {
		return rankKey{}, false
	}
	if e.Level > level {
		return rankKey{}, false
	}
	return rankKey{
		modelExact:   e.Model == model,
		contextExact: contextExact,
		prefixLen:    len(e.ContextPrefix),
		level:        e.Level,
	}, true
}

func bestMatch(entries []AccessEntry, contextName string, model smi.SecurityModel, level smi.SecurityLevel) (AccessEntry, bool) {
	var (
		best  AccessEntry
		bestK rankKey
		found bool
	)
	for _, e := range entries {
		k, ok := rank(e, contextName, model, level)
		if !ok {
			continue
		}
		if !found || bestK.less(k) {
			best, bestK, found = e, k, true
		}
	}
	return best, found
}
