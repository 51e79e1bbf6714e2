//go:build mage

// Package main contains Mage build targets for reason-search developer
// tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "reason-search"
	cmdPkg  = "./cmd/reason-search"
	secrets = ".secrets"
)

// secretFiles are created empty by Init so the expected names are visible.
var secretFiles = []string{
	"tavily-api-key",
	"openai-api-key",
	"anthropic-api-key",
	"exa-api-key",
	"semantic-scholar-api-key",
	"openalex-email",
}

const sampleConfig = `# reason-search configuration. Every key can also be set through
# REASON_SEARCH_<SECTION>_<KEY>, e.g. REASON_SEARCH_AI_MODEL.
ai:
  provider: openai          # openai (incl. xAI via base_url) or anthropic
  model: gpt-4o-mini
web:
  max_results: 10
academic:
  provider: exa             # exa, openalex, or semantic_scholar
  max_results: 5
cache:
  enabled: true
  path: ""                  # empty keeps the cache in memory
  ttl: 1h
stream:
  redis_addr: ""            # set to publish progress to Redis Streams
server:
  addr: ":8080"
`

// Init creates .secrets/ placeholders and a sample reason-search.yaml.
func Init() error {
	if err := os.MkdirAll(secrets, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", secrets, err)
	}
	for _, name := range secretFiles {
		path := filepath.Join(secrets, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		fmt.Println("  ", path)
	}

	if _, err := os.Stat("reason-search.yaml"); os.IsNotExist(err) {
		if err := os.WriteFile("reason-search.yaml", []byte(sampleConfig), 0o644); err != nil {
			return fmt.Errorf("writing reason-search.yaml: %w", err)
		}
		fmt.Println("   reason-search.yaml")
	}
	fmt.Println("Project initialized. Fill in the files under .secrets/.")
	return nil
}

// Build compiles the CLI binary into bin/, stamping version and commit.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version := envOr("VERSION", "dev")
	commit, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		commit = "unknown"
	}
	ldflags := fmt.Sprintf("-X main.version=%s -X main.commit=%s", version, commit)

	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "-count=1", "./...")
}

// Vet runs go vet.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs Vet and Test.
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Research builds the CLI and runs an advanced research on $TOPIC with the
// board view.
func Research() error {
	mg.Deps(Build)
	topic := os.Getenv("TOPIC")
	if topic == "" {
		return fmt.Errorf("set TOPIC, e.g. TOPIC=\"solid-state batteries\" mage research")
	}
	return sh.RunV(filepath.Join(binDir, binName), "research",
		"--topic", topic, "--depth", envOr("DEPTH", "advanced"), "--format", "board")
}

// Serve builds the CLI and starts the HTTP API.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "serve", "--verbose")
}

// Stats prints Go production and test line counts.
func Stats() error {
	prodLines, testLines := 0, 0
	err := filepath.WalkDir(".", func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), "_") || d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		n := nonBlankLines(data)
		if strings.HasSuffix(path, "_test.go") {
			testLines += n
		} else {
			prodLines += n
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	return nil
}

func nonBlankLines(data []byte) int {
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	return n
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
