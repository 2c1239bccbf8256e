package cad

import (
	"context"
	"fmt"

	"github.com/blwfish/freecad-mcp-sub000/internal/registry"
)

func (h *Host) copyOf(name, newName, typeID string) (*Object, error) {
	src, ok := h.doc.Object(name)
	if !ok {
		return nil, errObjectNotFound(name)
	}
	cp := src.clone()
	cp.Name = newName
	cp.Type = typeID
	cp.Base = name
	cp.Inputs = []string{name}
	return cp, nil
}

func (h *Host) draftClone(_ context.Context, args registry.Args) (any, error) {
	name := args.StringOr("object_name", "")
	clone, err := h.copyOf(name, args.StringOr("name", "Clone"), "Draft::Clone")
	if err != nil {
		return nil, err
	}
	clone = h.doc.Add(clone)
	return fmt.Sprintf("Created clone: %s of %s", clone.Name, name), nil
}

func (h *Host) draftArray(_ context.Context, args registry.Args) (any, error) {
	name := args.StringOr("object_name", "")
	cx, cy, cz := args.Int("count_x", 2), args.Int("count_y", 1), args.Int("count_z", 1)
	if cx < 1 || cy < 1 || cz < 1 {
		return nil, fmt.Errorf("array counts must be at least 1, got %dx%dx%d", cx, cy, cz)
	}
	arr, err := h.copyOf(name, args.StringOr("name", "Array"), "Draft::Array")
	if err != nil {
		return nil, err
	}
	total := cx * cy * cz
	arr.Edges *= total
	arr.Faces *= total
	arr.Vertices *= total
	arr.Params = map[string]float64{"NumberX": float64(cx), "NumberY": float64(cy), "NumberZ": float64(cz)}
	arr = h.doc.Add(arr)
	return fmt.Sprintf("Created array: %s with %d instances (%dx%dx%d)", arr.Name, total, cx, cy, cz), nil
}

func (h *Host) draftPolarArray(_ context.Context, args registry.Args) (any, error) {
	name := args.StringOr("object_name", "")
	count := args.Int("count", 6)
	angle := args.Float("angle", 360)
	if count < 1 {
		return nil, fmt.Errorf("polar array count must be at least 1, got %d", count)
	}
	arr, err := h.copyOf(name, args.StringOr("name", "PolarArray"), "Draft::PolarArray")
	if err != nil {
		return nil, err
	}
	arr.Edges *= count
	arr.Faces *= count
	arr.Vertices *= count
	arr.Params = map[string]float64{"NumberPolar": float64(count), "Angle": angle}
	arr = h.doc.Add(arr)
	return fmt.Sprintf("Created polar array: %s with %d instances over %s°", arr.Name, count, num(angle)), nil
}
