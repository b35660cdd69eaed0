package plan

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
)

var userSpecRegex = regexp.MustCompile(`^(\d+|\$\{[A-Z_]+\}):(\d+|\$\{[A-Z_]+\})$`)

// Validate checks the structural invariants of the pipeline. The package
// stage is pure assembly: it starts from an empty base, only copies files out
// of the build stage, and everything it copies is either one of the
// well-known support files or the single binary the image exists to run.
func (p *Plan) Validate() error {
	if p.Build == nil || p.Package == nil {
		return fmt.Errorf("plan must have a build stage and a package stage")
	}
	if p.Export == nil {
		return fmt.Errorf("plan must have an export config")
	}

	if p.Build.From.Image == "" {
		return fmt.Errorf("build stage must start from a toolchain image")
	}
	if p.Build.Name == "" {
		return fmt.Errorf("build stage must be named so the package stage can reference it")
	}
	if !p.Package.From.Scratch {
		return fmt.Errorf("package stage must start from scratch")
	}

	if len(p.Export.Entrypoint) != 1 {
		return fmt.Errorf("entrypoint must be exactly the packaged binary, got %v", p.Export.Entrypoint)
	}
	binary := p.Export.Entrypoint[0]
	if !path.IsAbs(binary) {
		return fmt.Errorf("entrypoint %q must be an absolute path", binary)
	}
	if err := p.validateUser(); err != nil {
		return err
	}

	support := map[string]bool{
		PasswdPath:   false,
		GroupPath:    false,
		CABundlePath: false,
	}
	binaryCopied := false

	for _, op := range p.Package.Ops {
		cp, ok := op.(Copy)
		if !ok {
			return fmt.Errorf("package stage must not contain %s ops, only copies", op.Type())
		}
		if cp.From.Stage != p.Build.Name {
			return fmt.Errorf("package stage may only copy from the build stage, got %+v", cp.From)
		}
		switch {
		case cp.Dest == binary:
			if cp.Src != cp.Dest {
				return fmt.Errorf("binary must be staged at its final path in the build stage, got %q -> %q", cp.Src, cp.Dest)
			}
			binaryCopied = true
		default:
			seen, known := support[cp.Dest]
			if !known {
				return fmt.Errorf("package stage copies unexpected file %q", cp.Dest)
			}
			if seen {
				return fmt.Errorf("package stage copies %q twice", cp.Dest)
			}
			if cp.Src != cp.Dest {
				return fmt.Errorf("%q must be copied byte-for-byte from its standard location, got src %q", cp.Dest, cp.Src)
			}
			support[cp.Dest] = true
		}
	}

	for dest, seen := range support {
		if !seen {
			return fmt.Errorf("package stage must copy %q from the build stage", dest)
		}
	}
	if !binaryCopied {
		return fmt.Errorf("package stage must copy the binary %q from the build stage", binary)
	}

	return nil
}

// validateUser checks that the runtime identity is a non-root numeric
// uid:gid pair, either literal or referencing declared args with non-root
// numeric defaults.
func (p *Plan) validateUser() error {
	m := userSpecRegex.FindStringSubmatch(p.Export.User)
	if m == nil {
		return fmt.Errorf("runtime user %q must be a numeric uid:gid pair", p.Export.User)
	}
	for _, part := range m[1:] {
		value := part
		if strings.HasPrefix(part, "${") {
			name := strings.TrimSuffix(strings.TrimPrefix(part, "${"), "}")
			arg, ok := p.lookupArg(name)
			if !ok {
				return fmt.Errorf("runtime user references undeclared build arg %q", name)
			}
			value = arg.Default
		}
		id, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("runtime user id %q is not numeric", value)
		}
		if id < 1 {
			return fmt.Errorf("runtime user id %d must be non-root", id)
		}
	}
	return nil
}

func (p *Plan) lookupArg(name string) (Arg, bool) {
	for _, arg := range p.Args {
		if arg.Name == name {
			return arg, true
		}
	}
	return Arg{}, false
}
