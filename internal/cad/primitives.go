package cad

import (
	"context"
	"errors"
	"fmt"

	"github.com/blwfish/freecad-mcp-sub000/internal/registry"
)

func placement(args registry.Args) Vec {
	return Vec{X: args.Float("x", 0), Y: args.Float("y", 0), Z: args.Float("z", 0)}
}

func positive(name string, v float64) error {
	if v <= 0 {
		return fmt.Errorf("%s must be positive, got %s", name, num(v))
	}
	return nil
}

func (h *Host) createBox(_ context.Context, args registry.Args) (any, error) {
	length := args.Float("length", 10)
	width := args.Float("width", 10)
	height := args.Float("height", 10)
	if err := errors.Join(positive("length", length), positive("width", width), positive("height", height)); err != nil {
		return nil, err
	}
	at := placement(args)

	box := h.doc.Add(&Object{
		Name:      args.StringOr("name", "Box"),
		Type:      "Part::Box",
		Placement: at,
		Params:    map[string]float64{"Length": length, "Width": width, "Height": height},
		Edges:     12,
		Faces:     6,
		Vertices:  8,
	})
	return fmt.Sprintf("Created box: %s (%sx%sx%smm) at %s", box.Name, num(length), num(width), num(height), at), nil
}

func (h *Host) createCylinder(_ context.Context, args registry.Args) (any, error) {
	radius := args.Float("radius", 5)
	height := args.Float("height", 10)
	if err := errors.Join(positive("radius", radius), positive("height", height)); err != nil {
		return nil, err
	}
	at := placement(args)

	cyl := h.doc.Add(&Object{
		Name:      args.StringOr("name", "Cylinder"),
		Type:      "Part::Cylinder",
		Placement: at,
		Params:    map[string]float64{"Radius": radius, "Height": height},
		Edges:     3,
		Faces:     3,
		Vertices:  2,
	})
	return fmt.Sprintf("Created cylinder: %s (R%s, H%s) at %s", cyl.Name, num(radius), num(height), at), nil
}

func (h *Host) createSphere(_ context.Context, args registry.Args) (any, error) {
	radius := args.Float("radius", 5)
	if err := positive("radius", radius); err != nil {
		return nil, err
	}
	at := placement(args)

	sphere := h.doc.Add(&Object{
		Name:      args.StringOr("name", "Sphere"),
		Type:      "Part::Sphere",
		Placement: at,
		Params:    map[string]float64{"Radius": radius},
		Edges:     3,
		Faces:     1,
		Vertices:  2,
	})
	return fmt.Sprintf("Created sphere: %s (R%s) at %s", sphere.Name, num(radius), at), nil
}

// combine builds a boolean feature over inputs. Topology is the sum of the
// inputs, which is enough for selection bookkeeping.
func (h *Host) combine(typ, name string, inputs []string) (*Object, error) {
	obj := &Object{Name: name, Type: typ, Inputs: inputs}
	for _, in := range inputs {
		src, ok := h.doc.Object(in)
		if !ok {
			return nil, errObjectNotFound(in)
		}
		obj.Edges += src.Edges
		obj.Faces += src.Faces
		obj.Vertices += src.Vertices
	}
	return h.doc.Add(obj), nil
}

func (h *Host) fuse(_ context.Context, args registry.Args) (any, error) {
	objects := args.Strings("objects")
	if len(objects) < 2 {
		return nil, errors.New("fuse requires at least 2 objects")
	}
	fusion, err := h.combine("Part::MultiFuse", args.StringOr("name", "Fusion"), objects)
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("Created fusion: %s from %d objects", fusion.Name, len(objects)), nil
}

func (h *Host) cut(_ context.Context, args registry.Args) (any, error) {
	base := args.StringOr("base", "")
	tools := args.Strings("tools")
	if base == "" || len(tools) == 0 {
		return nil, errors.New("cut requires a base object and at least one tool")
	}
	if _, ok := h.doc.Object(base); !ok {
		return nil, fmt.Errorf("Base object not found: %s", base)
	}
	for _, t := range tools {
		if _, ok := h.doc.Object(t); !ok {
			return nil, fmt.Errorf("Tool object not found: %s", t)
		}
	}
	cut, err := h.combine("Part::Cut", args.StringOr("name", "Cut"), append([]string{base}, tools...))
	if err != nil {
		return nil, err
	}
	cut.Base = base
	return fmt.Sprintf("Created cut: %s from %s minus %d tools", cut.Name, base, len(tools)), nil
}

func (h *Host) move(_ context.Context, args registry.Args) (any, error) {
	name := args.StringOr("object_name", "")
	by := placement(args)
	ok := h.doc.Mutate(name, func(o *Object) {
		o.Placement.X += by.X
		o.Placement.Y += by.Y
		o.Placement.Z += by.Z
	})
	if !ok {
		return nil, errObjectNotFound(name)
	}
	return fmt.Sprintf("Moved %s by (%s, %s, %s)", name, num(by.X), num(by.Y), num(by.Z)), nil
}
