package cli

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"debatepad/internal/generate"
	"debatepad/internal/server"
	"debatepad/internal/store"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// startAPI runs a sqlite-backed API server and points the CLI at it.
func startAPI(t *testing.T) string {
	t.Helper()
	t.Setenv("DEBATEPAD_CONFIG_DIR", t.TempDir())
	t.Setenv("DEBATEPAD_LOG_LEVEL", "error")

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "cli.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	hs := httptest.NewServer(server.New(st, generate.Static{}, nil, server.Options{}).Handler())
	t.Cleanup(hs.Close)
	return hs.URL
}

func mustEnv(t *testing.T, args ...string) map[string]any {
	t.Helper()
	stdout, stderr, err := runCLI(t, args)
	if err != nil {
		t.Fatalf("command failed: debatepad %v\nerr: %v\nstderr:\n%s\nstdout:\n%s", args, err, string(stderr), string(stdout))
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatalf("unmarshal stdout as json envelope: %v\nstdout:\n%s\nargs: %v", err, string(stdout), args)
	}
	if _, ok := env["data"]; !ok {
		t.Fatalf("expected JSON envelope to contain data key; got: %v", env)
	}
	if meta, ok := env["meta"]; ok && meta != nil {
		if _, ok := meta.(map[string]any); !ok {
			t.Fatalf("expected meta to be object; got %T", meta)
		}
	}
	return env
}

func errEnv(t *testing.T, args ...string) map[string]any {
	t.Helper()
	stdout, stderr, err := runCLI(t, args)
	if err == nil {
		t.Fatalf("expected debatepad %v to fail; stdout:\n%s", args, string(stdout))
	}
	if !Reported(err) {
		t.Fatalf("expected error envelope to be reported, got %v", err)
	}
	var env map[string]any
	if err := json.Unmarshal(stderr, &env); err != nil {
		t.Fatalf("unmarshal stderr as error envelope: %v\nstderr:\n%s", err, string(stderr))
	}
	body, ok := env["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object; got %v", env)
	}
	return body
}

func dataMap(t *testing.T, env map[string]any) map[string]any {
	t.Helper()
	m, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object; got %T", env["data"])
	}
	return m
}

func counts(t *testing.T, env map[string]any) (float64, float64) {
	t.Helper()
	meta, _ := env["meta"].(map[string]any)
	c, ok := meta["counts"].(map[string]any)
	if !ok {
		t.Fatalf("expected meta.counts; got %v", env["meta"])
	}
	return c["for"].(float64), c["against"].(float64)
}

func TestTopicsLifecycle(t *testing.T) {
	url := startAPI(t)

	created := dataMap(t, mustEnv(t, "--api-url", url, "topics", "create", "AI", "in", "schools"))
	id, _ := created["id"].(string)
	if id == "" || created["title"] != "AI in schools" {
		t.Fatalf("unexpected created topic: %v", created)
	}
	mustEnv(t, "--api-url", url, "topics", "create", "Universal basic income")
	mustEnv(t, "--api-url", url, "topics", "create", "ai ethics")

	all := mustEnv(t, "--api-url", url, "topics", "list")
	if got := len(all["data"].([]any)); got != 3 {
		t.Fatalf("expected 3 topics, got %d", got)
	}

	filtered := mustEnv(t, "--api-url", url, "topics", "list", "--search", "ai")
	var titles []string
	for _, it := range filtered["data"].([]any) {
		titles = append(titles, it.(map[string]any)["title"].(string))
	}
	if strings.Join(titles, "|") != "ai ethics|AI in schools" {
		t.Fatalf("unexpected filter result (newest first): %v", titles)
	}
	if meta := filtered["meta"].(map[string]any); meta["condition"] != "has_matches" || meta["total"].(float64) != 3 {
		t.Fatalf("unexpected list meta: %v", meta)
	}

	none := mustEnv(t, "--api-url", url, "topics", "list", "--search", "zzz")
	if got := none["meta"].(map[string]any)["condition"]; got != "no_matches" {
		t.Fatalf("expected no_matches, got %v", got)
	}

	mustEnv(t, "--api-url", url, "topics", "delete", id)
	body := errEnv(t, "--api-url", url, "topics", "show", id)
	if body["kind"] != "not_found" {
		t.Fatalf("expected not_found, got %v", body)
	}
}

func TestTopicsList_EmptyCondition(t *testing.T) {
	url := startAPI(t)
	env := mustEnv(t, "--api-url", url, "topics", "list")
	if got := env["meta"].(map[string]any)["condition"]; got != "empty" {
		t.Fatalf("expected empty, got %v", got)
	}
}

func TestArgsAddAndRemove(t *testing.T) {
	url := startAPI(t)
	id := dataMap(t, mustEnv(t, "--api-url", url, "topics", "create", "Nuclear power"))["id"].(string)

	env := mustEnv(t, "--api-url", url, "args", "add", id, "--point", "Low carbon", "--facts", "Lifecycle emissions\nBaseload")
	forN, againstN := counts(t, env)
	if forN != 1 || againstN != 0 {
		t.Fatalf("expected 1/0, got %v/%v", forN, againstN)
	}
	arg := dataMap(t, env)["arguments_for"].([]any)[0].(map[string]any)
	if facts := arg["supporting_facts"].([]any); len(facts) != 2 || facts[1] != "Baseload" {
		t.Fatalf("unexpected facts: %v", facts)
	}

	factsPath := filepath.Join(t.TempDir(), "facts.txt")
	if err := os.WriteFile(factsPath, []byte("Long half-lives\r\n\r\nCost\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	env = mustEnv(t, "--api-url", url, "args", "add", id, "--side", "against", "--point", "Waste", "--facts-file", factsPath)
	forN, againstN = counts(t, env)
	if forN != 1 || againstN != 1 {
		t.Fatalf("expected 1/1, got %v/%v", forN, againstN)
	}
	against := dataMap(t, env)["arguments_against"].([]any)[0].(map[string]any)
	if facts := against["supporting_facts"].([]any); len(facts) != 2 || facts[0] != "Long half-lives" {
		t.Fatalf("unexpected facts from file: %v", facts)
	}

	env = mustEnv(t, "--api-url", url, "args", "rm", id, arg["id"].(string))
	forN, againstN = counts(t, env)
	if forN != 0 || againstN != 1 {
		t.Fatalf("expected 0/1 after delete, got %v/%v", forN, againstN)
	}

	body := errEnv(t, "--api-url", url, "args", "rm", id, arg["id"].(string))
	if body["kind"] != "not_found" {
		t.Fatalf("expected not_found for a second delete, got %v", body)
	}
}

func TestArgsAdd_Validation(t *testing.T) {
	url := startAPI(t)
	id := dataMap(t, mustEnv(t, "--api-url", url, "topics", "create", "x"))["id"].(string)

	if body := errEnv(t, "--api-url", url, "args", "add", id, "--point", "  "); body["kind"] != "validation" {
		t.Fatalf("blank point: expected validation, got %v", body)
	}
	if body := errEnv(t, "--api-url", url, "args", "add", id, "--side", "maybe", "--point", "p"); body["kind"] != "validation" {
		t.Fatalf("bad side: expected validation, got %v", body)
	}
	if body := errEnv(t, "--api-url", url, "args", "add", "missing", "--point", "p"); body["kind"] != "not_found" {
		t.Fatalf("missing topic: expected not_found, got %v", body)
	}
}

func TestGenerate(t *testing.T) {
	url := startAPI(t)
	id := dataMap(t, mustEnv(t, "--api-url", url, "topics", "create", "Remote work"))["id"].(string)

	env := mustEnv(t, "--api-url", url, "generate", id)
	forN, againstN := counts(t, env)
	if forN != 3 || againstN != 3 {
		t.Fatalf("expected 3/3 after generate, got %v/%v", forN, againstN)
	}
	batch := env["meta"].(map[string]any)["batch"].(map[string]any)
	if batch["planned"].(float64) != 6 || batch["inserted"].(float64) != 6 {
		t.Fatalf("unexpected batch report: %v", batch)
	}
}

func TestNetworkErrorKind(t *testing.T) {
	t.Setenv("DEBATEPAD_CONFIG_DIR", t.TempDir())
	t.Setenv("DEBATEPAD_LOG_LEVEL", "error")
	hs := httptest.NewServer(nil)
	dead := hs.URL
	hs.Close()

	if body := errEnv(t, "--api-url", dead, "topics", "list"); body["kind"] != "network" {
		t.Fatalf("expected network, got %v", body)
	}
}

func TestShowMarkdown(t *testing.T) {
	url := startAPI(t)
	id := dataMap(t, mustEnv(t, "--api-url", url, "topics", "create", "School uniforms"))["id"].(string)
	mustEnv(t, "--api-url", url, "args", "add", id, "--point", "Equality")

	stdout, stderr, err := runCLI(t, []string{"--api-url", url, "topics", "show", id, "--markdown"})
	if err != nil {
		t.Fatalf("show --markdown: %v\n%s", err, stderr)
	}
	out := string(stdout)
	for _, want := range []string{"# School uniforms", "## For (1)", "**Equality**", "## Against (0)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in markdown:\n%s", want, out)
		}
	}
}

func TestExport(t *testing.T) {
	url := startAPI(t)
	id := dataMap(t, mustEnv(t, "--api-url", url, "topics", "create", "Space exploration"))["id"].(string)
	dir := t.TempDir()

	env := mustEnv(t, "--api-url", url, "topics", "export", "--to", dir)
	written := dataMap(t, env)["written"].([]any)
	if len(written) != 2 {
		t.Fatalf("expected index + 1 topic, got %v", written)
	}
	if _, err := os.Stat(filepath.Join(dir, "topics", id+".md")); err != nil {
		t.Fatalf("expected topic file: %v", err)
	}
	if _, _, err := runCLI(t, []string{"--api-url", url, "topics", "export", "--to", dir}); err == nil {
		t.Fatalf("expected export without --overwrite to refuse existing files")
	}
	mustEnv(t, "--api-url", url, "topics", "export", "--to", dir, "--overwrite")

	htmlDir := t.TempDir()
	mustEnv(t, "--api-url", url, "topics", "export", "--to", htmlDir, "--html")
	if _, err := os.Stat(filepath.Join(htmlDir, "topics", id+".html")); err != nil {
		t.Fatalf("expected html topic page: %v", err)
	}
}

func TestEDNOutput(t *testing.T) {
	url := startAPI(t)
	mustEnv(t, "--api-url", url, "topics", "create", "Four day week")

	stdout, stderr, err := runCLI(t, []string{"--api-url", url, "--format", "edn", "topics", "list"})
	if err != nil {
		t.Fatalf("edn list: %v\n%s", err, stderr)
	}
	out := string(stdout)
	if !strings.HasPrefix(out, "{") || !strings.Contains(out, ":data") || !strings.Contains(out, ":arguments-for") {
		t.Fatalf("unexpected edn output:\n%s", out)
	}
}

func TestUnknownFormat(t *testing.T) {
	t.Setenv("DEBATEPAD_CONFIG_DIR", t.TempDir())
	body := errEnv(t, "--format", "xml", "config", "show")
	if body["kind"] != "validation" {
		t.Fatalf("expected validation, got %v", body)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DEBATEPAD_CONFIG_DIR", dir)
	t.Setenv("GEMINI_API_KEY", "secret-key")

	env := mustEnv(t, "config", "init")
	path := dataMap(t, env)["path"].(string)
	if path != filepath.Join(dir, "config.yml") {
		t.Fatalf("unexpected config path %q", path)
	}
	if _, _, err := runCLI(t, []string{"config", "init"}); err == nil {
		t.Fatalf("expected second init without --force to fail")
	}
	mustEnv(t, "config", "init", "--force")

	shown := mustEnv(t, "--api-url", "http://example.test:9000", "config", "show")
	gemini := dataMap(t, shown)["gemini"].(map[string]any)
	if gemini["api_key"] != "********" {
		t.Fatalf("expected redacted key, got %v", gemini["api_key"])
	}
	if got := shown["meta"].(map[string]any)["api_url"]; got != "http://example.test:9000" {
		t.Fatalf("expected flag to win for api url, got %v", got)
	}
}

func TestDocs(t *testing.T) {
	t.Setenv("DEBATEPAD_CONFIG_DIR", t.TempDir())

	env := mustEnv(t, "docs")
	topics, _ := dataMap(t, env)["topics"].([]any)
	got := []string{}
	for _, v := range topics {
		got = append(got, v.(string))
	}
	if strings.Join(got, ",") != "api,consistency,workflow" {
		t.Fatalf("unexpected topics %v", got)
	}

	env = mustEnv(t, "docs", "consistency")
	if md, _ := dataMap(t, env)["markdown"].(string); !strings.Contains(md, "source of truth") {
		t.Fatalf("unexpected markdown %q", md)
	}

	stdout, _, err := runCLI(t, []string{"docs", "workflow", "--raw"})
	if err != nil || !strings.HasPrefix(string(stdout), "# Preparing a debate") {
		t.Fatalf("expected raw markdown, got %q (%v)", stdout, err)
	}

	if body := errEnv(t, "docs", "../etc"); body["kind"] != "validation" {
		t.Fatalf("expected validation error, got %v", body)
	}
}

func TestDoctor(t *testing.T) {
	url := startAPI(t)

	env := mustEnv(t, "--api-url", url, "doctor")
	if failed := env["meta"].(map[string]any)["failed"]; failed != float64(0) {
		t.Fatalf("expected all checks to pass, got %v", env)
	}

	t.Setenv("DEBATEPAD_GENERATOR", "gemini")
	t.Setenv("GEMINI_API_KEY", "")
	env = mustEnv(t, "--api-url", "http://127.0.0.1:1", "doctor")
	checks := dataMap(t, env)["checks"].([]any)
	byName := map[string]bool{}
	for _, c := range checks {
		m := c.(map[string]any)
		byName[m["name"].(string)] = m["ok"].(bool)
	}
	if !byName["config"] || byName["api"] || byName["generator"] {
		t.Fatalf("unexpected check results %v", byName)
	}

	if _, _, err := runCLI(t, []string{"--api-url", "http://127.0.0.1:1", "doctor", "--fail"}); err == nil {
		t.Fatalf("expected --fail to return an error")
	}
}
