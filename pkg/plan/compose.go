package plan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sero-rs/seropack/pkg/config"
)

// Well-known paths the package stage copies byte-for-byte out of the build
// stage. The runtime image contains these, the binary, and nothing else.
const (
	PasswdPath   = "/etc/passwd"
	GroupPath    = "/etc/group"
	CABundlePath = "/etc/ssl/certs/ca-certificates.crt"

	SourceDir = "/src"

	cargoRegistryCache = "/usr/local/cargo/registry"
)

const builderStage = "builder"

// Compose builds the pipeline plan for a project config. The returned plan
// compiles the binary against the configured static-link target and packages
// it onto a scratch base with the identity files and the CA bundle.
func Compose(cfg *config.Config) *Plan {
	installed := cfg.InstalledPath()

	build := &Stage{
		Name: builderStage,
		From: Input{Image: cfg.Build.BuilderImage},
		Args: []string{"PROFILE", "UID", "GID"},
		Ops: []Op{
			Exec{Command: "apk add --no-cache " + strings.Join(cfg.Build.Packages, " ")},
			Exec{Command: "rustup target add " + cfg.Build.Target},
			Exec{Command: fmt.Sprintf(
				`addgroup -g "${GID}" -S %s && adduser -u "${UID}" -G %s -S -D -H -h /nonexistent -s /sbin/nologin %s`,
				cfg.Run.User, cfg.Run.User, cfg.Run.User)},
			WorkDir{Path: SourceDir},
			Copy{From: Input{Local: true}, Src: ".", Dest: "."},
			// The target dir lives in a cache mount, so the artifact has to
			// be copied out in the same command that compiles it. cargo calls
			// the debug profile "dev" but writes it to target/.../debug, so
			// both names map to the dev profile and the debug output dir.
			Exec{
				Command: fmt.Sprintf(
					`case "${PROFILE}" in debug|dev) cargo_profile=dev; artifact_dir=debug ;; *) cargo_profile="${PROFILE}"; artifact_dir="${PROFILE}" ;; esac`+
						` && cargo build --locked --target %s --profile "${cargo_profile}"`+
						` && cp "target/%s/${artifact_dir}/%s" %s`,
					cfg.Build.Target, cfg.Build.Target, cfg.Binary, installed),
				Mounts: []Mount{
					{Type: "cache", Target: cargoRegistryCache},
					{Type: "cache", Target: SourceDir + "/target"},
				},
			},
		},
	}

	pkg := &Stage{
		Name: "runtime",
		From: Input{Scratch: true},
		Args: []string{"UID", "GID"},
		Ops: []Op{
			Copy{From: Input{Stage: builderStage}, Src: PasswdPath, Dest: PasswdPath},
			Copy{From: Input{Stage: builderStage}, Src: GroupPath, Dest: GroupPath},
			Copy{From: Input{Stage: builderStage}, Src: CABundlePath, Dest: CABundlePath},
			Copy{From: Input{Stage: builderStage}, Src: installed, Dest: installed},
		},
	}

	return &Plan{
		Args: []Arg{
			{Name: "PROFILE", Default: cfg.Build.Profile},
			{Name: "UID", Default: strconv.Itoa(cfg.Run.UID)},
			{Name: "GID", Default: strconv.Itoa(cfg.Run.GID)},
		},
		Build:   build,
		Package: pkg,
		Export: &ExportConfig{
			User:       `${UID}:${GID}`,
			Entrypoint: []string{installed},
		},
	}
}
