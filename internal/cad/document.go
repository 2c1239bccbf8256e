package cad

import (
	"fmt"
	"sort"
	"strconv"
)

// Vec is a placement offset in millimetres.
type Vec struct {
	X, Y, Z float64
}

func (v Vec) String() string {
	return fmt.Sprintf("(%s,%s,%s)", num(v.X), num(v.Y), num(v.Z))
}

// Object is one document feature. Topology counts stand in for the shape.
type Object struct {
	Name      string
	Type      string
	Placement Vec
	Params    map[string]float64
	Base      string
	Inputs    []string
	Edges     int
	Faces     int
	Vertices  int
	Visible   bool
}

func (o *Object) clone() *Object {
	cp := *o
	cp.Params = make(map[string]float64, len(o.Params))
	for k, v := range o.Params {
		cp.Params[k] = v
	}
	cp.Inputs = append([]string(nil), o.Inputs...)
	return &cp
}

// SelectionItem is one entry of the GUI selection.
type SelectionItem struct {
	Object      string
	SubElements []string
}

// Document is an in-memory CAD document. It is owned by the GUI thread and
// has no locking of its own: every access goes through the dispatch queue.
type Document struct {
	Name string

	objects   []*Object
	undo      [][]*Object
	redo      [][]*Object
	selection []SelectionItem
	view      string
}

const maxUndo = 50

// NewDocument creates an empty document.
func NewDocument(name string) *Document {
	return &Document{Name: name, view: "isometric"}
}

// Objects returns the objects in creation order.
func (d *Document) Objects() []*Object {
	return d.objects
}

// Object returns the object with the given name.
func (d *Document) Object(name string) (*Object, bool) {
	for _, o := range d.objects {
		if o.Name == name {
			return o, true
		}
	}
	return nil, false
}

// uniqueName returns base, or base with the lowest free three-digit suffix.
func (d *Document) uniqueName(base string) string {
	if _, taken := d.Object(base); !taken {
		return base
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s%03d", base, i)
		if _, taken := d.Object(name); !taken {
			return name
		}
	}
}

// checkpoint records the current state for undo and clears redo.
func (d *Document) checkpoint() {
	d.undo = append(d.undo, snapshot(d.objects))
	if len(d.undo) > maxUndo {
		d.undo = d.undo[1:]
	}
	d.redo = nil
}

// Add inserts obj under a unique name derived from obj.Name.
func (d *Document) Add(obj *Object) *Object {
	d.checkpoint()
	obj.Name = d.uniqueName(obj.Name)
	obj.Visible = true
	if obj.Params == nil {
		obj.Params = map[string]float64{}
	}
	d.objects = append(d.objects, obj)
	return obj
}

// Remove deletes the named object and drops it from the selection.
func (d *Document) Remove(name string) bool {
	for i, o := range d.objects {
		if o.Name != name {
			continue
		}
		d.checkpoint()
		d.objects = append(d.objects[:i:i], d.objects[i+1:]...)
		d.deselect(name)
		return true
	}
	return false
}

// Mutate records an undo point and applies fn to the named object.
func (d *Document) Mutate(name string, fn func(*Object)) bool {
	if _, ok := d.Object(name); !ok {
		return false
	}
	d.checkpoint()
	o, _ := d.Object(name)
	fn(o)
	return true
}

// Undo restores the previous state.
func (d *Document) Undo() bool {
	if len(d.undo) == 0 {
		return false
	}
	d.redo = append(d.redo, snapshot(d.objects))
	d.objects = d.undo[len(d.undo)-1]
	d.undo = d.undo[:len(d.undo)-1]
	d.pruneSelection()
	return true
}

// Redo reapplies the last undone change.
func (d *Document) Redo() bool {
	if len(d.redo) == 0 {
		return false
	}
	d.undo = append(d.undo, snapshot(d.objects))
	d.objects = d.redo[len(d.redo)-1]
	d.redo = d.redo[:len(d.redo)-1]
	d.pruneSelection()
	return true
}

// Select adds the object, or some of its sub-elements, to the selection.
func (d *Document) Select(object string, subElements ...string) error {
	if _, ok := d.Object(object); !ok {
		return errObjectNotFound(object)
	}
	for i := range d.selection {
		if d.selection[i].Object == object {
			d.selection[i].SubElements = appendUnique(d.selection[i].SubElements, subElements...)
			return nil
		}
	}
	d.selection = append(d.selection, SelectionItem{
		Object:      object,
		SubElements: appendUnique(nil, subElements...),
	})
	return nil
}

// ClearSelection empties the selection.
func (d *Document) ClearSelection() {
	d.selection = nil
}

// Selection returns a copy of the current selection.
func (d *Document) Selection() []SelectionItem {
	out := make([]SelectionItem, len(d.selection))
	for i, item := range d.selection {
		out[i] = SelectionItem{Object: item.Object, SubElements: append([]string(nil), item.SubElements...)}
	}
	return out
}

func (d *Document) deselect(name string) {
	kept := d.selection[:0]
	for _, item := range d.selection {
		if item.Object != name {
			kept = append(kept, item)
		}
	}
	d.selection = kept
}

func (d *Document) pruneSelection() {
	kept := d.selection[:0]
	for _, item := range d.selection {
		if _, ok := d.Object(item.Object); ok {
			kept = append(kept, item)
		}
	}
	d.selection = kept
}

func snapshot(objs []*Object) []*Object {
	out := make([]*Object, len(objs))
	for i, o := range objs {
		out[i] = o.clone()
	}
	return out
}

func appendUnique(dst []string, items ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range items {
		if !seen[s] {
			dst = append(dst, s)
			seen[s] = true
		}
	}
	return dst
}

// num formats a float the way a human writes a dimension: 10, 2.5, 0.1.
func num(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
