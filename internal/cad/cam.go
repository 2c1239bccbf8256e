package cad

import (
	"context"
	"fmt"

	"github.com/blwfish/freecad-mcp-sub000/internal/registry"
)

// CAM jobs and operations are recorded as document objects. No toolpaths
// are computed.

func (h *Host) createJob(_ context.Context, args registry.Args) (any, error) {
	base := args.StringOr("base_object", "")
	job := &Object{Name: args.StringOr("name", "Job"), Type: "CAM::Job"}
	if base != "" {
		if _, ok := h.doc.Object(base); !ok {
			return nil, errObjectNotFound(base)
		}
		job.Base = base
		job.Inputs = []string{base}
	}
	job = h.doc.Add(job)
	if base != "" {
		return fmt.Sprintf("Created CAM Job '%s' with base object '%s'", job.Name, base), nil
	}
	return fmt.Sprintf("Created CAM Job '%s'", job.Name), nil
}

func (h *Host) camOperation(kind string) registry.Operation {
	return func(_ context.Context, args registry.Args) (any, error) {
		jobName := args.StringOr("job_name", "Job")
		job, ok := h.doc.Object(jobName)
		if !ok || job.Type != "CAM::Job" {
			return nil, fmt.Errorf("Error: Job '%s' not found. Create a CAM job first.", jobName)
		}
		op := h.doc.Add(&Object{
			Name:   args.StringOr("name", kind),
			Type:   "CAM::" + kind,
			Base:   jobName,
			Inputs: []string{jobName},
			Params: map[string]float64{
				"StepDown":  args.Float("step_down", 1),
				"CutDepth":  args.Float("cut_depth", 0),
				"ToolIndex": args.Float("tool_number", 1),
			},
		})
		return fmt.Sprintf("Created %s operation '%s' in job '%s'", kind, op.Name, jobName), nil
	}
}
