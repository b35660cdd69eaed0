// Package verify checks a packaged image against the pipeline's structural
// guarantees: a single static binary, the identity files that make its
// non-root uid:gid resolve to a name, the CA bundle for TLS trust, and
// nothing else -- no shell, no package manager, no toolchain.
package verify

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	v1 "github.com/google/go-containerregistry/pkg/v1"
	"golang.org/x/sync/errgroup"

	"github.com/sero-rs/seropack/pkg/errors"
	"github.com/sero-rs/seropack/pkg/identity"
	"github.com/sero-rs/seropack/pkg/plan"
)

// Options describe the expected runtime contract of the image.
type Options struct {
	// Binary is the absolute installed path of the packaged binary.
	Binary string
	// UID and GID are the numeric identity the image is fixed to.
	UID int
	GID int
	// User is the account name the uid must resolve to.
	User string
}

// forbiddenPaths are things a distroless runtime image must not carry. Their
// presence means the package stage copied more than its three logical items.
var forbiddenPaths = []string{
	"/bin/sh",
	"/bin/busybox",
	"/sbin/apk",
	"/usr/bin/apk",
	"/usr/local/bin/cargo",
	"/usr/local/bin/rustc",
	"/usr/local/cargo/bin/cargo",
	"/lib/ld-musl-x86_64.so.1",
}

// Image verifies a packaged image. All problems found are reported together
// rather than stopping at the first.
func Image(ctx context.Context, img v1.Image, opts Options) error {
	fs, err := flatten(img)
	if err != nil {
		return err
	}
	configFile, err := img.ConfigFile()
	if err != nil {
		return fmt.Errorf("Failed to read image config: %w", err)
	}

	var mu sync.Mutex
	var problems []string
	report := func(msg string, v ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		problems = append(problems, fmt.Sprintf(msg, v...))
	}

	checks := []func(){
		func() { checkBinary(fs, opts, report) },
		func() { checkOnlyExpectedFiles(fs, opts, report) },
		func() { checkForbidden(fs, report) },
		func() { checkIdentity(fs, opts, report) },
		func() { checkCABundle(fs, report) },
		func() { checkRuntimeConfig(configFile, opts, report) },
	}

	g, _ := errgroup.WithContext(ctx)
	for _, check := range checks {
		g.Go(func() error {
			check()
			return nil
		})
	}
	// checks only report problems, they never fail
	_ = g.Wait()

	if len(problems) > 0 {
		sort.Strings(problems)
		return errors.VerifyFailed(fmt.Sprintf("Image failed verification:\n- %s", strings.Join(problems, "\n- ")))
	}
	return nil
}

func checkBinary(fs *imageFS, opts Options, report func(string, ...interface{})) {
	entry, ok := fs.lookup(opts.Binary)
	if !ok {
		report("binary %s is missing", opts.Binary)
		return
	}
	if entry.size == 0 {
		report("binary %s is empty", opts.Binary)
	}
	if entry.mode&0o111 == 0 {
		report("binary %s is not executable (mode %o)", opts.Binary, entry.mode)
	}
}

func checkOnlyExpectedFiles(fs *imageFS, opts Options, report func(string, ...interface{})) {
	expected := map[string]bool{
		plan.PasswdPath:        true,
		plan.GroupPath:         true,
		plan.CABundlePath:      true,
		cleanPath(opts.Binary): true,
	}
	for p := range fs.files {
		if !expected[p] {
			report("unexpected file %s in runtime image", p)
		}
	}
	installDir := path.Dir(opts.Binary)
	if extra := fs.filesUnder(installDir); len(extra) > 1 {
		report("install path %s contains %d files, want exactly the binary", installDir, len(extra))
	}
}

func checkForbidden(fs *imageFS, report func(string, ...interface{})) {
	for _, p := range forbiddenPaths {
		if _, ok := fs.lookup(p); ok {
			report("forbidden file %s present in runtime image", p)
		}
	}
}

func checkIdentity(fs *imageFS, opts Options, report func(string, ...interface{})) {
	passwd, ok := fs.lookup(plan.PasswdPath)
	if !ok {
		report("%s is missing", plan.PasswdPath)
		return
	}
	group, ok := fs.lookup(plan.GroupPath)
	if !ok {
		report("%s is missing", plan.GroupPath)
		return
	}

	users, err := identity.ParseUsers(string(passwd.contents))
	if err != nil {
		report("%s: %s", plan.PasswdPath, err)
		return
	}
	groups, err := identity.ParseGroups(string(group.contents))
	if err != nil {
		report("%s: %s", plan.GroupPath, err)
		return
	}

	user, ok := identity.LookupUID(users, opts.UID)
	if !ok {
		report("uid %d does not resolve to any user in %s", opts.UID, plan.PasswdPath)
		return
	}
	// adduser fills in a gecos comment; everything else must match the
	// record the build stage was asked to create
	normalized := user
	normalized.Gecos = ""
	if want := identity.SystemUser(opts.User, opts.UID, opts.GID); normalized != want {
		report("passwd entry for uid %d is %q, want %q", opts.UID, user.Line(), want.Line())
	}

	grp, ok := identity.LookupGID(groups, opts.GID)
	if !ok {
		report("gid %d does not resolve to any group in %s", opts.GID, plan.GroupPath)
		return
	}
	if want := (identity.Group{Name: opts.User, GID: opts.GID}); grp != want {
		report("group entry for gid %d is %q, want %q", opts.GID, grp.Line(), want.Line())
	}
}

func checkCABundle(fs *imageFS, report func(string, ...interface{})) {
	bundle, ok := fs.lookup(plan.CABundlePath)
	if !ok {
		report("CA bundle %s is missing", plan.CABundlePath)
		return
	}
	if bundle.size == 0 {
		report("CA bundle %s is empty", plan.CABundlePath)
		return
	}
	if !strings.Contains(string(bundle.contents), "BEGIN CERTIFICATE") {
		report("CA bundle %s does not contain any certificates", plan.CABundlePath)
	}
}

func checkRuntimeConfig(configFile *v1.ConfigFile, opts Options, report func(string, ...interface{})) {
	wantUser := fmt.Sprintf("%d:%d", opts.UID, opts.GID)
	if configFile.Config.User != wantUser {
		report("image user is %q, want %q", configFile.Config.User, wantUser)
	}
	if len(configFile.Config.Entrypoint) != 1 || configFile.Config.Entrypoint[0] != opts.Binary {
		report("entrypoint is %v, want [%s]", configFile.Config.Entrypoint, opts.Binary)
	}
	if len(configFile.Config.Cmd) > 0 {
		report("image sets default arguments %v, want none", configFile.Config.Cmd)
	}
}
