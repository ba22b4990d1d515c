package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/panbanda/jsflow/pkg/linter"
)

var sample = []linter.Problem{
	{RuleID: "no-unreachable", Severity: linter.SeverityError, Message: "Unreachable code.", Line: 3, Column: 5, EndLine: 3, EndColumn: 9, NodeType: "ExpressionStatement"},
	{RuleID: "complexity", Severity: linter.SeverityWarn, Message: "Function 'f' has a complexity of 4. Maximum allowed is 2.", Line: 1, Column: 1},
}

func newCache(t *testing.T, fingerprint string) *Cache {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "cache"), 24, true, fingerprint)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestNew(t *testing.T) {
	c := newCache(t, "fp")
	if !c.Enabled() {
		t.Error("cache should be enabled")
	}

	c, err := New("", 0, false, "")
	if err != nil {
		t.Fatalf("New() error for disabled cache: %v", err)
	}
	if c.Enabled() {
		t.Error("cache should be disabled")
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache", "dir")
	if _, err := New(dir, 24, true, ""); err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("New() should create cache directory")
	}
}

func TestSetAndGet(t *testing.T) {
	c := newCache(t, "fp")
	hash := HashBytes([]byte("a();"))

	if err := c.Set("src/a.js", hash, sample); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	got, ok := c.Get("src/a.js", hash)
	if !ok {
		t.Fatal("Get() should hit")
	}
	if len(got) != len(sample) {
		t.Fatalf("Get() returned %d problems, want %d", len(got), len(sample))
	}
	for i := range sample {
		if got[i] != sample[i] {
			t.Errorf("problem %d = %+v, want %+v", i, got[i], sample[i])
		}
	}
}

func TestGetMisses(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c, _ := New(dir, 24, true, "fp1")
	hash := HashBytes([]byte("a();"))
	if err := c.Set("a.js", hash, sample); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("missing.js", hash); ok {
		t.Error("Get() should miss for an unknown path")
	}
	if _, ok := c.Get("a.js", HashBytes([]byte("b();"))); ok {
		t.Error("Get() should miss when the content changed")
	}

	other, _ := New(dir, 24, true, "fp2")
	if _, ok := other.Get("a.js", hash); ok {
		t.Error("Get() should miss when the rule configuration changed")
	}
}

func TestCleanFileCachesEmptyResult(t *testing.T) {
	c := newCache(t, "fp")
	if err := c.Set("clean.js", "h", nil); err != nil {
		t.Fatal(err)
	}
	got, ok := c.Get("clean.js", "h")
	if !ok || len(got) != 0 {
		t.Errorf("Get() = %v, %v; want empty hit", got, ok)
	}
}

func TestInvalidate(t *testing.T) {
	c := newCache(t, "")
	if err := c.Set("a.js", "h", sample); err != nil {
		t.Fatal(err)
	}
	if err := c.Invalidate("a.js"); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}
	if _, ok := c.Get("a.js", "h"); ok {
		t.Error("Get() should miss after Invalidate()")
	}
	if err := c.Invalidate("a.js"); err != nil {
		t.Errorf("Invalidate() of a missing entry error: %v", err)
	}
}

func TestClear(t *testing.T) {
	c := newCache(t, "")
	for _, p := range []string{"a.js", "b.js"} {
		if err := c.Set(p, "h", sample); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, err := os.Stat(c.dir); !os.IsNotExist(err) {
		t.Error("Clear() should remove the cache directory")
	}
}

func TestDisabledCache(t *testing.T) {
	c, _ := New("", 0, false, "")

	if err := c.Set("a.js", "h", sample); err != nil {
		t.Errorf("Set() on disabled cache error: %v", err)
	}
	if _, ok := c.Get("a.js", "h"); ok {
		t.Error("Get() on disabled cache should miss")
	}
	if err := c.Invalidate("a.js"); err != nil {
		t.Errorf("Invalidate() on disabled cache error: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Errorf("Clear() on disabled cache error: %v", err)
	}
	stats, err := c.GetStats()
	if err != nil || stats.Entries != 0 {
		t.Errorf("GetStats() = %+v, %v", stats, err)
	}
}

func TestHashBytes(t *testing.T) {
	a := HashBytes([]byte("a();"))
	if len(a) != 64 {
		t.Errorf("HashBytes() length = %d, want 64", len(a))
	}
	if a != HashBytes([]byte("a();")) {
		t.Error("HashBytes() should be deterministic")
	}
	if a == HashBytes([]byte("b();")) {
		t.Error("different content should hash differently")
	}
}

func TestFingerprint(t *testing.T) {
	base := map[string]linter.RuleConfig{
		"no-unreachable": {Severity: linter.SeverityError},
		"complexity":     {Severity: linter.SeverityWarn, Options: []any{10}},
	}
	same := map[string]linter.RuleConfig{
		"complexity":     {Severity: linter.SeverityWarn, Options: []any{10}},
		"no-unreachable": {Severity: linter.SeverityError},
	}
	changedOpt := map[string]linter.RuleConfig{
		"no-unreachable": {Severity: linter.SeverityError},
		"complexity":     {Severity: linter.SeverityWarn, Options: []any{12}},
	}
	changedSev := map[string]linter.RuleConfig{
		"no-unreachable": {Severity: linter.SeverityWarn},
		"complexity":     {Severity: linter.SeverityWarn, Options: []any{10}},
	}

	fp := Fingerprint(base)
	if len(fp) != 16 {
		t.Errorf("Fingerprint() = %q, want 16 hex digits", fp)
	}
	if fp != Fingerprint(same) {
		t.Error("equal configurations should share a fingerprint")
	}
	if fp == Fingerprint(changedOpt) {
		t.Error("changed options should change the fingerprint")
	}
	if fp == Fingerprint(changedSev) {
		t.Error("changed severity should change the fingerprint")
	}
}

func TestGetStats(t *testing.T) {
	c := newCache(t, "")
	for _, p := range []string{"a.js", "b.js", "c.js"} {
		if err := c.Set(p, "h", sample); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Entries != 3 {
		t.Errorf("Entries = %d, want 3", stats.Entries)
	}
	if stats.TotalSize == 0 {
		t.Error("TotalSize should be positive")
	}
}

func TestTTLExpiration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := &Cache{dir: dir, ttl: time.Hour, enabled: true}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := c.Set("a.js", "h", sample); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("a.js", "h"); !ok {
		t.Fatal("Get() should hit before the TTL expires")
	}

	c.ttl = -time.Second
	if _, ok := c.Get("a.js", "h"); ok {
		t.Error("Get() should miss after the TTL expires")
	}
	if _, err := os.Stat(c.keyPath("a.js")); !os.IsNotExist(err) {
		t.Error("expired entries should be removed")
	}
}

func TestKeyPath(t *testing.T) {
	c := newCache(t, "")

	p1 := c.keyPath("/src/a.js")
	if p1 == c.keyPath("/src/b.js") {
		t.Error("different keys should produce different paths")
	}
	if p1 != c.keyPath("/src/a.js") {
		t.Error("same keys should produce same paths")
	}
	if filepath.Ext(p1) != ".json" || filepath.Dir(p1) != c.dir {
		t.Errorf("keyPath() = %s", p1)
	}
}
