package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sero-rs/seropack/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	require.NoError(t, cfg.ValidateAndComplete())
	return cfg
}

func TestComposeIsValid(t *testing.T) {
	p := Compose(testConfig(t))
	require.NoError(t, p.Validate())
}

func TestComposeStages(t *testing.T) {
	p := Compose(testConfig(t))

	require.Equal(t, "rust:1-alpine", p.Build.From.Image)
	require.True(t, p.Package.From.Scratch)

	// the package stage copies exactly the three support files and the binary
	require.Len(t, p.Package.Ops, 4)
	dests := map[string]bool{}
	for _, op := range p.Package.Ops {
		cp, ok := op.(Copy)
		require.True(t, ok)
		require.Equal(t, "builder", cp.From.Stage)
		require.Equal(t, cp.Src, cp.Dest)
		dests[cp.Dest] = true
	}
	require.True(t, dests[PasswdPath])
	require.True(t, dests[GroupPath])
	require.True(t, dests[CABundlePath])
	require.True(t, dests["/usr/local/bin/sero"])
}

func TestComposeArgs(t *testing.T) {
	p := Compose(testConfig(t))
	require.Equal(t, []Arg{
		{Name: "PROFILE", Default: "debug"},
		{Name: "UID", Default: "10001"},
		{Name: "GID", Default: "10001"},
	}, p.Args)
}

func TestComposeExport(t *testing.T) {
	p := Compose(testConfig(t))
	require.Equal(t, "${UID}:${GID}", p.Export.User)
	require.Equal(t, []string{"/usr/local/bin/sero"}, p.Export.Entrypoint)
}

func TestComposeCacheMounts(t *testing.T) {
	p := Compose(testConfig(t))

	last := p.Build.Ops[len(p.Build.Ops)-1]
	build, ok := last.(Exec)
	require.True(t, ok)
	require.Equal(t, []Mount{
		{Type: "cache", Target: "/usr/local/cargo/registry"},
		{Type: "cache", Target: "/src/target"},
	}, build.Mounts)
	require.Contains(t, build.Command, "cargo build --locked")
	// the artifact is copied out of the cache mount in the same command
	require.Contains(t, build.Command, `cp "target/x86_64-unknown-linux-musl/${artifact_dir}/sero" /usr/local/bin/sero`)
}

func TestComposeDevProfileCopiesFromDebugDir(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Build.Profile = "dev"
	require.NoError(t, cfg.ValidateAndComplete())

	// cargo writes both the dev and debug profiles to target/.../debug, and
	// the copy path has to agree with the config's artifact path
	require.Equal(t, "target/x86_64-unknown-linux-musl/debug/sero", cfg.ArtifactPath())

	p := Compose(cfg)
	build, ok := p.Build.Ops[len(p.Build.Ops)-1].(Exec)
	require.True(t, ok)
	require.Contains(t, build.Command, `debug|dev) cargo_profile=dev; artifact_dir=debug`)
	require.Contains(t, build.Command, `cp "target/x86_64-unknown-linux-musl/${artifact_dir}/sero"`)
	require.NotContains(t, build.Command, `${PROFILE}/sero`)
}

func TestValidateRejectsExecInPackageStage(t *testing.T) {
	p := Compose(testConfig(t))
	p.Package.Ops = append(p.Package.Ops, Exec{Command: "apk add curl"})
	require.ErrorContains(t, p.Validate(), "only copies")
}

func TestValidateRejectsMissingSupportFile(t *testing.T) {
	p := Compose(testConfig(t))
	var ops []Op
	for _, op := range p.Package.Ops {
		if cp, ok := op.(Copy); ok && cp.Dest == CABundlePath {
			continue
		}
		ops = append(ops, op)
	}
	p.Package.Ops = ops
	require.ErrorContains(t, p.Validate(), CABundlePath)
}

func TestValidateRejectsUnexpectedFile(t *testing.T) {
	p := Compose(testConfig(t))
	p.Package.Ops = append(p.Package.Ops, Copy{
		From: Input{Stage: "builder"},
		Src:  "/bin/busybox",
		Dest: "/bin/busybox",
	})
	require.ErrorContains(t, p.Validate(), "unexpected file")
}

func TestValidateRejectsCopyFromOutsideBuildStage(t *testing.T) {
	p := Compose(testConfig(t))
	p.Package.Ops[0] = Copy{From: Input{Image: "alpine"}, Src: PasswdPath, Dest: PasswdPath}
	require.ErrorContains(t, p.Validate(), "only copy from the build stage")
}

func TestValidateRejectsRootUser(t *testing.T) {
	p := Compose(testConfig(t))
	p.Export.User = "0:0"
	require.ErrorContains(t, p.Validate(), "non-root")
}

func TestValidateRejectsNonNumericUser(t *testing.T) {
	p := Compose(testConfig(t))
	p.Export.User = "sero"
	require.ErrorContains(t, p.Validate(), "numeric uid:gid")
}

func TestValidateRejectsUndeclaredArgReference(t *testing.T) {
	p := Compose(testConfig(t))
	p.Export.User = "${NOBODY}:${GID}"
	require.ErrorContains(t, p.Validate(), "undeclared build arg")
}

func TestValidateRejectsNonScratchPackageStage(t *testing.T) {
	p := Compose(testConfig(t))
	p.Package.From = Input{Image: "alpine"}
	require.ErrorContains(t, p.Validate(), "scratch")
}

func TestValidateRejectsMultipleEntrypointArgs(t *testing.T) {
	p := Compose(testConfig(t))
	p.Export.Entrypoint = append(p.Export.Entrypoint, "--help")
	require.ErrorContains(t, p.Validate(), "entrypoint")
}
