package page

import (
	"html"
	"sync"

	"github.com/carbonreport/carbonreport/consts"
	"github.com/carbonreport/carbonreport/internal/chart"
)

// Element is a display target the renderer writes into. The renderer never
// reads structure back from it.
type Element interface {
	ID() string
	SetHTML(fragment string)
	SetText(text string)
}

// Node is an in-memory Element.
type Node struct {
	mu      sync.RWMutex
	id      string
	content string
	isHTML  bool
	written bool
}

// NewNode creates an empty node.
func NewNode(id string) *Node {
	return &Node{id: id}
}

// ID returns the element identifier.
func (n *Node) ID() string {
	return n.id
}

// SetHTML replaces the node content with an HTML fragment.
func (n *Node) SetHTML(fragment string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.content, n.isHTML, n.written = fragment, true, true
}

// SetText replaces the node content with plain text.
func (n *Node) SetText(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.content, n.isHTML, n.written = text, false, true
}

// Text returns the content as written.
func (n *Node) Text() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.content
}

// HTML returns the content as markup, escaping plain text.
func (n *Node) HTML() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.isHTML {
		return n.content
	}
	return html.EscapeString(n.content)
}

// Written reports whether anything has been written to the node.
func (n *Node) Written() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.written
}

// Targets are the output locations a Renderer writes into. A nil field is a
// missing target: the section that needs it is skipped and logged.
type Targets struct {
	Narrative    Element
	TotalMonthly Element
	TreesYearly  Element
	AnnualCost   Element
	Chart        *chart.Owner
}

// Document is a headless page holding the standard report targets.
type Document struct {
	Narrative    *Node
	TotalMonthly *Node
	TreesYearly  *Node
	AnnualCost   *Node
	Canvas       *chart.Mount
	Chart        *chart.Owner
}

// NewDocument creates an empty page whose chart is drawn by factory.
func NewDocument(factory chart.Factory) *Document {
	canvas := chart.NewMount(consts.TargetChart)
	return &Document{
		Narrative:    NewNode(consts.TargetNarrative),
		TotalMonthly: NewNode(consts.TargetTotalMonthly),
		TreesYearly:  NewNode(consts.TargetTreesYearly),
		AnnualCost:   NewNode(consts.TargetAnnualCost),
		Canvas:       canvas,
		Chart:        chart.NewOwner(canvas, factory),
	}
}

// Targets returns the document's nodes as renderer targets.
func (d *Document) Targets() Targets {
	return Targets{
		Narrative:    d.Narrative,
		TotalMonthly: d.TotalMonthly,
		TreesYearly:  d.TreesYearly,
		AnnualCost:   d.AnnualCost,
		Chart:        d.Chart,
	}
}

// ChartSnapshot returns the live chart, if one is attached and serializable.
func (d *Document) ChartSnapshot() (chart.Snapshot, bool) {
	snap, ok := d.Chart.Current().(chart.Snapshotter)
	if !ok {
		return chart.Snapshot{}, false
	}
	return snap.Snapshot(), true
}

// View is the serialized state of a Document.
type View struct {
	NarrativeHTML string          `json:"narrative_html"`
	TotalMonthly  string          `json:"total_monthly"`
	TreesYearly   string          `json:"trees_yearly"`
	AnnualCost    string          `json:"annual_cost"`
	Chart         *chart.Snapshot `json:"chart,omitempty"`
}

// View captures the document's current content.
func (d *Document) View() View {
	v := View{
		NarrativeHTML: d.Narrative.HTML(),
		TotalMonthly:  d.TotalMonthly.Text(),
		TreesYearly:   d.TreesYearly.Text(),
		AnnualCost:    d.AnnualCost.Text(),
	}
	if snap, ok := d.ChartSnapshot(); ok {
		v.Chart = &snap
	}
	return v
}

// Close releases the chart instance.
func (d *Document) Close() error {
	return d.Chart.Close()
}
