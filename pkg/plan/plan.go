// Package plan models the packaging pipeline as data: a build stage that
// compiles the binary and a package stage that assembles the minimal runtime
// image from exactly the artifacts the binary needs. A plan is composed from
// project config, validated against the pipeline's structural invariants and
// then rendered to a Dockerfile.
package plan

// Plan is the complete two-stage build specification.
type Plan struct {
	// Args are build-time parameters, declared before the first stage and
	// overridable at build time.
	Args []Arg `json:"args"`

	Build   *Stage `json:"build"`
	Package *Stage `json:"package"`

	// Export is the runtime configuration of the packaged image.
	Export *ExportConfig `json:"export"`
}

// Arg is a build-time parameter with a default value.
type Arg struct {
	Name    string `json:"name"`
	Default string `json:"default"`
}

// Stage is one stage of the pipeline.
type Stage struct {
	Name string   `json:"name"`           // stage name, referenced by cross-stage copies
	From Input    `json:"from"`           // base of the stage
	Ops  []Op     `json:"ops"`            // operations, in order
	Args []string `json:"args,omitempty"` // plan args redeclared in this stage
}

// Input is the source of a stage or of a copy operation.
type Input struct {
	Image   string `json:"image,omitempty"`   // external image reference
	Stage   string `json:"stage,omitempty"`   // reference to another stage
	Local   bool   `json:"local,omitempty"`   // the build context
	Scratch bool   `json:"scratch,omitempty"` // empty base
}

// ExportConfig is the runtime configuration set on the packaged image.
type ExportConfig struct {
	// User is the process identity, always a numeric uid:gid pair so it
	// holds even before the identity files are consulted.
	User string `json:"user"`
	// Entrypoint is the packaged binary with no default arguments.
	Entrypoint []string `json:"entrypoint"`
}

// Op is a single build operation.
type Op interface {
	Type() string
}

// Exec runs a shell command.
type Exec struct {
	Command string  `json:"command"`
	Mounts  []Mount `json:"mounts,omitempty"`
}

func (e Exec) Type() string { return "exec" }

// Copy copies files into the stage.
type Copy struct {
	From Input  `json:"from"`
	Src  string `json:"src"`
	Dest string `json:"dest"`
}

func (c Copy) Type() string { return "copy" }

// WorkDir changes the working directory for subsequent ops.
type WorkDir struct {
	Path string `json:"path"`
}

func (w WorkDir) Type() string { return "workdir" }

// Mount is a persistent cache mount attached to a single Exec. Cache mounts
// are shared across invocations; concurrent safety is the build engine's
// responsibility.
type Mount struct {
	Type   string `json:"type"` // "cache"
	ID     string `json:"id,omitempty"`
	Target string `json:"target"`
}
