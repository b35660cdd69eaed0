// Package dockerfile renders a validated build plan to Dockerfile text.
package dockerfile

import (
	"fmt"
	"strings"

	"github.com/sero-rs/seropack/pkg/plan"
)

// Generator renders a plan to a multi-stage Dockerfile that is fed to the
// build engine on stdin, so nothing is written into the project directory.
type Generator struct {
	Plan *plan.Plan
}

func NewGenerator(p *plan.Plan) (*Generator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Generator{Plan: p}, nil
}

func (g *Generator) Generate() (string, error) {
	buildStage, err := g.generateStage(g.Plan.Build)
	if err != nil {
		return "", err
	}
	packageStage, err := g.generateStage(g.Plan.Package)
	if err != nil {
		return "", err
	}

	return strings.Join([]string{
		"# syntax = docker/dockerfile:1.4\n" + g.generateArgs(),
		buildStage,
		packageStage + "\n" + g.generateExport(),
	}, "\n\n") + "\n", nil
}

func (g *Generator) generateArgs() string {
	lines := make([]string, 0, len(g.Plan.Args))
	for _, arg := range g.Plan.Args {
		lines = append(lines, fmt.Sprintf("ARG %s=%s", arg.Name, arg.Default))
	}
	return strings.Join(lines, "\n")
}

func (g *Generator) generateStage(stage *plan.Stage) (string, error) {
	lines := []string{g.generateFrom(stage)}
	for _, name := range stage.Args {
		lines = append(lines, "ARG "+name)
	}
	for _, op := range stage.Ops {
		line, err := g.generateOp(op)
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func (g *Generator) generateFrom(stage *plan.Stage) string {
	base := stage.From.Image
	if stage.From.Scratch {
		base = "scratch"
	}
	return fmt.Sprintf("FROM %s AS %s", base, stage.Name)
}

func (g *Generator) generateOp(op plan.Op) (string, error) {
	switch op := op.(type) {
	case plan.Exec:
		mounts := make([]string, 0, len(op.Mounts))
		for _, m := range op.Mounts {
			mounts = append(mounts, g.generateMount(m))
		}
		if len(mounts) > 0 {
			return "RUN " + strings.Join(mounts, " ") + " " + op.Command, nil
		}
		return "RUN " + op.Command, nil
	case plan.Copy:
		if op.From.Stage != "" {
			return fmt.Sprintf("COPY --from=%s %s %s", op.From.Stage, op.Src, op.Dest), nil
		}
		return fmt.Sprintf("COPY %s %s", op.Src, op.Dest), nil
	case plan.WorkDir:
		return "WORKDIR " + op.Path, nil
	default:
		return "", fmt.Errorf("unknown op type %q", op.Type())
	}
}

func (g *Generator) generateMount(m plan.Mount) string {
	parts := []string{"type=" + m.Type}
	if m.ID != "" {
		parts = append(parts, "id="+m.ID)
	}
	parts = append(parts, "target="+m.Target)
	return "--mount=" + strings.Join(parts, ",")
}

func (g *Generator) generateExport() string {
	export := g.Plan.Export
	entrypoint := make([]string, 0, len(export.Entrypoint))
	for _, arg := range export.Entrypoint {
		entrypoint = append(entrypoint, fmt.Sprintf("%q", arg))
	}
	return strings.Join([]string{
		"USER " + export.User,
		"ENTRYPOINT [" + strings.Join(entrypoint, ", ") + "]",
	}, "\n")
}
