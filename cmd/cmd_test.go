package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Quidge/webfeatures/internal/config"
	"github.com/Quidge/webfeatures/internal/declaration"
	"github.com/Quidge/webfeatures/internal/index"
	"github.com/Quidge/webfeatures/internal/manifest"
)

const page = "<!doctype html><p>green</p>"

// resetFlags restores every flag below c to its default so consecutive
// Execute calls do not leak values into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and an isolated global config
// file, returning everything written to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))

	cfg := filepath.Join(t.TempDir(), "config.yaml")
	rootCmd.SetArgs(append(args, "--config", cfg))
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

// setupTestRepo creates a test repository with a root grid declaration and
// a nested flexbox declaration.
func setupTestRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"WEB_FEATURES.yml":               "features:\n- name: grid\n  files: \"**\"\n",
		"layout/a.html":                  page,
		"layout/b.html":                  page,
		"layout/legacy/WEB_FEATURES.yml": "features:\n- name: flexbox\n  files: \"**\"\n",
		"layout/legacy/c.html":           page,
	})
	return root
}

// TestCobraCommands verifies all commands are registered with root.
func TestCobraCommands(t *testing.T) {
	commands := []string{"build", "init", "validate", "query", "config"}

	for _, name := range commands {
		found := false
		for _, cmd := range rootCmd.Commands() {
			if strings.HasPrefix(cmd.Use, name) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("command %q not found in root command", name)
		}
	}
}

func TestBuildCommand(t *testing.T) {
	root := setupTestRepo(t)

	out, err := execute(t, "build", "--repo-root", root)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	manifestPath := filepath.Join(root, manifest.FileName)
	if !strings.Contains(out, "Wrote 2 features to "+manifestPath) {
		t.Errorf("unexpected output: %s", out)
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
	want := `{"version":1,"data":{"grid":["layout/a.html","layout/b.html"],"flexbox":["layout/legacy/c.html"]},"config":{"url_base":"/"}}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestBuildCommandFlags(t *testing.T) {
	root := setupTestRepo(t)
	outPath := filepath.Join(t.TempDir(), "out.json")

	_, err := execute(t, "build", "--repo-root", root, "-p", outPath, "--url-base", "/wpt/", "--inheritance", "merge", "--jobs", "2")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	m, err := manifest.Read(outPath)
	if err != nil {
		t.Fatalf("manifest not readable: %v", err)
	}
	if m.Config.URLBase != "/wpt/" {
		t.Errorf("expected url_base /wpt/, got %q", m.Config.URLBase)
	}
	if got := m.Data.Tests("grid"); len(got) != 3 {
		t.Errorf("merge inheritance should give grid 3 tests, got %v", got)
	}
	if _, err := os.Stat(filepath.Join(root, manifest.FileName)); !os.IsNotExist(err) {
		t.Error("manifest written to the default path despite -p")
	}
}

func TestBuildCommandMalformedDeclaration(t *testing.T) {
	root := setupTestRepo(t)
	writeTree(t, root, map[string]string{
		"layout/WEB_FEATURES.yml": "features: [\n",
	})

	_, err := execute(t, "build", "--repo-root", root)
	var parseErr *declaration.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *declaration.ParseError, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, manifest.FileName)); !os.IsNotExist(err) {
		t.Error("manifest must not be written when the build fails")
	}
}

func TestBuildCommandUnknownInheritance(t *testing.T) {
	root := setupTestRepo(t)
	if _, err := execute(t, "build", "--repo-root", root, "--inheritance", "bogus"); err == nil {
		t.Error("expected error for unknown inheritance policy")
	}
}

func TestBuildAndQuery(t *testing.T) {
	root := setupTestRepo(t)
	dbPath := filepath.Join(t.TempDir(), "index.db")

	out, err := execute(t, "build", "--repo-root", root, "--index", dbPath)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if !strings.Contains(out, "Indexed build") {
		t.Errorf("expected index line in output: %s", out)
	}

	t.Run("features", func(t *testing.T) {
		out, err := execute(t, "query", "features", "--index", dbPath)
		if err != nil {
			t.Fatalf("query features failed: %v", err)
		}
		if !strings.Contains(out, "grid") || !strings.Contains(out, "flexbox") {
			t.Errorf("missing features in output: %s", out)
		}
	})

	t.Run("tests", func(t *testing.T) {
		out, err := execute(t, "query", "tests", "grid", "--index", dbPath)
		if err != nil {
			t.Fatalf("query tests failed: %v", err)
		}
		if out != "layout/a.html\nlayout/b.html\n" {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("tests of unknown feature", func(t *testing.T) {
		_, err := execute(t, "query", "tests", "gri", "--index", dbPath)
		if !errors.Is(err, index.ErrFeatureNotFound) {
			t.Fatalf("expected ErrFeatureNotFound, got %v", err)
		}
		if !strings.Contains(err.Error(), "grid") {
			t.Errorf("expected grid suggestion, got: %v", err)
		}
	})

	t.Run("features-of", func(t *testing.T) {
		out, err := execute(t, "query", "features-of", "layout/legacy/c.html", "--index", dbPath)
		if err != nil {
			t.Fatalf("query features-of failed: %v", err)
		}
		if !strings.Contains(out, "flexbox") || strings.Contains(out, "grid") {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("info", func(t *testing.T) {
		out, err := execute(t, "query", "info", "--index", dbPath)
		if err != nil {
			t.Fatalf("query info failed: %v", err)
		}
		if !strings.Contains(out, root) {
			t.Errorf("expected repository root in output: %s", out)
		}
	})

	t.Run("export", func(t *testing.T) {
		exported := filepath.Join(t.TempDir(), "exported.json")
		if _, err := execute(t, "query", "export", "--index", dbPath, "-o", exported); err != nil {
			t.Fatalf("query export failed: %v", err)
		}
		want, err := os.ReadFile(filepath.Join(root, manifest.FileName))
		if err != nil {
			t.Fatal(err)
		}
		got, err := os.ReadFile(exported)
		if err != nil {
			t.Fatalf("export not written: %v", err)
		}
		if string(got) != string(want) {
			t.Errorf("exported manifest differs:\n%s\n%s", got, want)
		}

		out, err := execute(t, "query", "export", "--index", dbPath)
		if err != nil {
			t.Fatalf("query export to stdout failed: %v", err)
		}
		if strings.TrimSpace(out) != string(want) {
			t.Errorf("unexpected stdout export: %s", out)
		}
	})
}

func TestQueryWithoutIndex(t *testing.T) {
	_, err := execute(t, "query", "features")
	if err == nil || !strings.Contains(err.Error(), "no index configured") {
		t.Errorf("expected missing index error, got %v", err)
	}

	missing := filepath.Join(t.TempDir(), "missing.db")
	_, err = execute(t, "query", "features", "--index", missing)
	if err == nil {
		t.Error("expected error for nonexistent index")
	}
	if _, statErr := os.Stat(missing); !os.IsNotExist(statErr) {
		t.Error("query must not create an index")
	}
}

func TestQueryRequiresArgument(t *testing.T) {
	if _, err := execute(t, "query", "tests"); err == nil {
		t.Error("expected error when no feature provided")
	}
	if _, err := execute(t, "query", "features-of"); err == nil {
		t.Error("expected error when no test provided")
	}
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, declaration.Filename)

	if _, err := execute(t, "init", dir); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	decl, err := declaration.Loader{}.Load(dir)
	if err != nil {
		t.Fatalf("template is not a valid declaration: %v", err)
	}
	if decl == nil {
		t.Fatal("declaration not written")
	}

	if _, err := execute(t, "init", dir); err == nil {
		t.Error("expected error when file exists")
	}

	if err := os.WriteFile(path, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "init", dir, "--force"); err != nil {
		t.Fatalf("init --force failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != declaration.Template {
		t.Error("--force did not overwrite the file")
	}
}

func TestValidateCommand(t *testing.T) {
	t.Run("all valid", func(t *testing.T) {
		root := setupTestRepo(t)
		out, err := execute(t, "validate", root)
		if err != nil {
			t.Fatalf("validate failed: %v", err)
		}
		if !strings.Contains(out, "2 declarations OK") {
			t.Errorf("unexpected output: %s", out)
		}
	})

	t.Run("reports every invalid declaration", func(t *testing.T) {
		root := setupTestRepo(t)
		writeTree(t, root, map[string]string{
			"a/WEB_FEATURES.yml": "features: []\n",
			"b/WEB_FEATURES.yml": "features:\n- name: x\n  files: [\"dir/*.html\"]\n",
		})

		out, err := execute(t, "validate", root)
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !strings.Contains(err.Error(), "2 of 4") {
			t.Errorf("unexpected error: %v", err)
		}
		for _, p := range []string{filepath.Join(root, "a"), filepath.Join(root, "b")} {
			if !strings.Contains(out, p) {
				t.Errorf("expected %s in output: %s", p, out)
			}
		}
	})
}

func TestValidateCommandHonorsBuildScope(t *testing.T) {
	root := setupTestRepo(t)
	writeTree(t, root, map[string]string{
		".webfeatures.yaml":           "exclude:\n  - vendor\n",
		"vendor/WEB_FEATURES.yml":     "features: []\n",
		"layout/unreadable/test.html": page,
	})
	unreadable := filepath.Join(root, "layout", "unreadable", "test.html")
	if err := os.Chmod(unreadable, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(unreadable, 0644) })

	// vendor is excluded by the project configuration and test contents are
	// never read.
	out, err := execute(t, "validate", root)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(out, "2 declarations OK") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestConfigCommands(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "webfeatures", "config.yaml")

	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"config", "path", "--config", cfgPath})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != cfgPath {
		t.Errorf("config path = %q, want %q", buf.String(), cfgPath)
	}

	resetFlags(rootCmd)
	rootCmd.SetArgs([]string{"config", "init", "--config", cfgPath})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	resetFlags(rootCmd)
	buf.Reset()
	rootCmd.SetArgs([]string{"config", "show", "--config", cfgPath})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(buf.String(), "url_base: /") || !strings.Contains(buf.String(), "inheritance: replace") {
		t.Errorf("unexpected config show output: %s", buf.String())
	}

	resetFlags(rootCmd)
	rootCmd.SetArgs([]string{"config", "set", "inheritance", "merge", "--config", cfgPath})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	cfg, err := config.LoadGlobalConfig(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Inheritance != "merge" {
		t.Errorf("inheritance = %q, want merge", cfg.Inheritance)
	}

	resetFlags(rootCmd)
	rootCmd.SetArgs([]string{"config", "set", "jobs", "0", "--config", cfgPath})
	if err := rootCmd.Execute(); err == nil {
		t.Error("expected error for jobs 0")
	}
}
