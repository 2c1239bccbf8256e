package cad

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blwfish/freecad-mcp-sub000/internal/registry"
)

var viewNames = []string{"top", "bottom", "front", "rear", "left", "right", "isometric"}

// ObjectInfo is one row of list_objects.
type ObjectInfo struct {
	Name    string             `json:"name"`
	Type    string             `json:"type"`
	Visible bool               `json:"visible"`
	Base    string             `json:"base,omitempty"`
	Params  map[string]float64 `json:"params,omitempty"`
}

func (h *Host) listObjects(_ context.Context, _ registry.Args) (any, error) {
	objs := h.doc.Objects()
	infos := make([]ObjectInfo, 0, len(objs))
	for _, o := range objs {
		params := make(map[string]float64, len(o.Params))
		for _, k := range sortedKeys(o.Params) {
			params[k] = o.Params[k]
		}
		infos = append(infos, ObjectInfo{
			Name:    o.Name,
			Type:    o.Type,
			Visible: o.Visible,
			Base:    o.Base,
			Params:  params,
		})
	}
	return map[string]any{
		"document": h.doc.Name,
		"count":    len(infos),
		"objects":  infos,
	}, nil
}

func (h *Host) deleteObject(_ context.Context, args registry.Args) (any, error) {
	name := args.StringOr("object_name", "")
	if !h.doc.Remove(name) {
		return nil, errObjectNotFound(name)
	}
	return fmt.Sprintf("Deleted object: %s", name), nil
}

func (h *Host) selectObject(_ context.Context, args registry.Args) (any, error) {
	name := args.StringOr("object_name", "")
	subs := args.Strings("sub_elements")
	if err := h.doc.Select(name, subs...); err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return fmt.Sprintf("Selected object '%s'", name), nil
	}
	return fmt.Sprintf("Selected %s on '%s'", strings.Join(subs, ", "), name), nil
}

func (h *Host) clearSelection(_ context.Context, _ registry.Args) (any, error) {
	h.doc.ClearSelection()
	return "Selection cleared", nil
}

func (h *Host) getSelection(_ context.Context, _ registry.Args) (any, error) {
	sel := h.doc.Selection()
	if len(sel) == 0 {
		return "No objects selected", nil
	}
	parts := make([]string, len(sel))
	for i, item := range sel {
		if len(item.SubElements) == 0 {
			parts[i] = item.Object
			continue
		}
		parts[i] = fmt.Sprintf("%s (%s)", item.Object, strings.Join(item.SubElements, ", "))
	}
	return "Selected objects: " + strings.Join(parts, ", "), nil
}

func (h *Host) setVisibility(visible bool) registry.Operation {
	return func(_ context.Context, args registry.Args) (any, error) {
		name := args.StringOr("object_name", "")
		if !h.doc.Mutate(name, func(o *Object) { o.Visible = visible }) {
			return nil, fmt.Errorf("Object '%s' not found", name)
		}
		if visible {
			return fmt.Sprintf("Object '%s' shown", name), nil
		}
		return fmt.Sprintf("Object '%s' hidden", name), nil
	}
}

func (h *Host) setView(_ context.Context, args registry.Args) (any, error) {
	view := strings.ToLower(args.StringOr("view_type", "isometric"))
	for _, v := range viewNames {
		if v == view {
			h.doc.view = view
			return fmt.Sprintf("View set to %s", view), nil
		}
	}
	return nil, fmt.Errorf("Unknown view type: %s. Available: %s", view, strings.Join(viewNames, ", "))
}

func (h *Host) undo(_ context.Context, _ registry.Args) (any, error) {
	if !h.doc.Undo() {
		return nil, errors.New("Nothing to undo")
	}
	return "Undo completed", nil
}

func (h *Host) redo(_ context.Context, _ registry.Args) (any, error) {
	if !h.doc.Redo() {
		return nil, errors.New("Nothing to redo")
	}
	return "Redo completed", nil
}
