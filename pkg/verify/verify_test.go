package verify

import (
	"archive/tar"
	"bytes"
	"context"
	"testing"

	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/empty"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	"github.com/google/go-containerregistry/pkg/v1/static"
	"github.com/google/go-containerregistry/pkg/v1/types"
	"github.com/stretchr/testify/require"
)

type testFile struct {
	contents string
	mode     int64
}

const (
	testPasswd = "root:x:0:0:root:/root:/bin/ash\nsero:x:10001:10001:Linux User,,,:/nonexistent:/sbin/nologin\n"
	testGroup  = "root:x:0:root\nsero:x:10001:\n"
	testCA     = "-----BEGIN CERTIFICATE-----\nMIIBdummy\n-----END CERTIFICATE-----\n"
	testELF    = "\x7fELF...not a real binary..."
)

func testOptions() Options {
	return Options{
		Binary: "/usr/local/bin/sero",
		UID:    10001,
		GID:    10001,
		User:   "sero",
	}
}

func goodFiles() map[string]testFile {
	return map[string]testFile{
		"etc/passwd":                        {contents: testPasswd, mode: 0o644},
		"etc/group":                         {contents: testGroup, mode: 0o644},
		"etc/ssl/certs/ca-certificates.crt": {contents: testCA, mode: 0o644},
		"usr/local/bin/sero":                {contents: testELF, mode: 0o755},
	}
}

func goodConfig() v1.Config {
	return v1.Config{
		User:       "10001:10001",
		Entrypoint: []string{"/usr/local/bin/sero"},
	}
}

func makeImage(t *testing.T, contents map[string]testFile, cfg v1.Config) v1.Image {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, file := range contents {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     file.mode,
			Size:     int64(len(file.contents)),
		}))
		_, err := tw.Write([]byte(file.contents))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	img, err := mutate.AppendLayers(empty.Image, static.NewLayer(buf.Bytes(), types.OCIUncompressedLayer))
	require.NoError(t, err)
	img, err = mutate.Config(img, cfg)
	require.NoError(t, err)
	return img
}

func TestImageOK(t *testing.T) {
	img := makeImage(t, goodFiles(), goodConfig())
	require.NoError(t, Image(context.Background(), img, testOptions()))
}

func TestImageMissingCABundle(t *testing.T) {
	contents := goodFiles()
	delete(contents, "etc/ssl/certs/ca-certificates.crt")
	img := makeImage(t, contents, goodConfig())

	err := Image(context.Background(), img, testOptions())
	require.ErrorContains(t, err, "CA bundle")
}

func TestImageEmptyCABundle(t *testing.T) {
	contents := goodFiles()
	contents["etc/ssl/certs/ca-certificates.crt"] = testFile{contents: "", mode: 0o644}
	img := makeImage(t, contents, goodConfig())

	err := Image(context.Background(), img, testOptions())
	require.ErrorContains(t, err, "empty")
}

func TestImageShellPresent(t *testing.T) {
	contents := goodFiles()
	contents["bin/sh"] = testFile{contents: "#!", mode: 0o755}
	img := makeImage(t, contents, goodConfig())

	err := Image(context.Background(), img, testOptions())
	require.ErrorContains(t, err, "forbidden file /bin/sh")
	require.ErrorContains(t, err, "unexpected file /bin/sh")
}

func TestImageMissingBinary(t *testing.T) {
	contents := goodFiles()
	delete(contents, "usr/local/bin/sero")
	img := makeImage(t, contents, goodConfig())

	err := Image(context.Background(), img, testOptions())
	require.ErrorContains(t, err, "binary /usr/local/bin/sero is missing")
}

func TestImageBinaryNotExecutable(t *testing.T) {
	contents := goodFiles()
	contents["usr/local/bin/sero"] = testFile{contents: testELF, mode: 0o644}
	img := makeImage(t, contents, goodConfig())

	err := Image(context.Background(), img, testOptions())
	require.ErrorContains(t, err, "not executable")
}

func TestImageExtraFileInInstallPath(t *testing.T) {
	contents := goodFiles()
	contents["usr/local/bin/helper"] = testFile{contents: testELF, mode: 0o755}
	img := makeImage(t, contents, goodConfig())

	err := Image(context.Background(), img, testOptions())
	require.ErrorContains(t, err, "want exactly the binary")
}

func TestImageUnresolvedIdentity(t *testing.T) {
	contents := goodFiles()
	contents["etc/passwd"] = testFile{contents: "root:x:0:0:root:/root:/bin/ash\n", mode: 0o644}
	img := makeImage(t, contents, goodConfig())

	err := Image(context.Background(), img, testOptions())
	require.ErrorContains(t, err, "uid 10001 does not resolve")
}

func TestImageWrongUserName(t *testing.T) {
	opts := testOptions()
	opts.User = "gateway"
	img := makeImage(t, goodFiles(), goodConfig())

	err := Image(context.Background(), img, opts)
	require.ErrorContains(t, err, "passwd entry for uid 10001")
	require.ErrorContains(t, err, `want "gateway:x:10001:10001::/nonexistent:/sbin/nologin"`)
	require.ErrorContains(t, err, "group entry for gid 10001")
}

func TestImageLoginShellUser(t *testing.T) {
	contents := goodFiles()
	contents["etc/passwd"] = testFile{
		contents: "sero:x:10001:10001::/home/sero:/bin/ash\n",
		mode:     0o644,
	}
	img := makeImage(t, contents, goodConfig())

	err := Image(context.Background(), img, testOptions())
	require.ErrorContains(t, err, "passwd entry for uid 10001")
	require.ErrorContains(t, err, `is "sero:x:10001:10001::/home/sero:/bin/ash"`)
}

func TestImageWrongGroupName(t *testing.T) {
	contents := goodFiles()
	contents["etc/group"] = testFile{contents: "root:x:0:root\nusers:x:10001:\n", mode: 0o644}
	img := makeImage(t, contents, goodConfig())

	err := Image(context.Background(), img, testOptions())
	require.ErrorContains(t, err, `group entry for gid 10001 is "users:x:10001:", want "sero:x:10001:"`)
}

func TestImageRunsAsRoot(t *testing.T) {
	cfg := goodConfig()
	cfg.User = ""
	img := makeImage(t, goodFiles(), cfg)

	err := Image(context.Background(), img, testOptions())
	require.ErrorContains(t, err, `image user is ""`)
}

func TestImageDefaultArguments(t *testing.T) {
	cfg := goodConfig()
	cfg.Cmd = []string{"--help"}
	img := makeImage(t, goodFiles(), cfg)

	err := Image(context.Background(), img, testOptions())
	require.ErrorContains(t, err, "default arguments")
}

func TestImageWrongEntrypoint(t *testing.T) {
	cfg := goodConfig()
	cfg.Entrypoint = []string{"/bin/sh", "-c", "/usr/local/bin/sero"}
	img := makeImage(t, goodFiles(), cfg)

	err := Image(context.Background(), img, testOptions())
	require.ErrorContains(t, err, "entrypoint")
}
