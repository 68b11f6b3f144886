//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package logging_test

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/tiff-splitter/internal/logging"
)

func TestNew_TextFile(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	path := filepath.Join(t.TempDir(), "logs", "split.log")

	logger, closer, err := logging.New(logging.Options{Path: path})
	g.Expect(err).ToNot(HaveOccurred())

	logger.Debug("hidden at info")
	logging.WithRun(logger, "run-1", "/scans").Info("split file", "pages", 3)
	g.Expect(closer.Close()).To(Succeed())

	content, err := os.ReadFile(path)
	g.Expect(err).ToNot(HaveOccurred())
	text := string(content)
	g.Expect(text).To(ContainSubstring(`msg="split file"`))
	g.Expect(text).To(ContainSubstring("run_id=run-1"))
	g.Expect(text).To(ContainSubstring("folder=/scans"))
	g.Expect(text).To(ContainSubstring("pages=3"))
	g.Expect(text).ToNot(ContainSubstring("hidden at info"))
	g.Expect(text).ToNot(ContainSubstring(".go:"), "no source at info level")
}

func TestNew_JSONDebug(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	path := filepath.Join(t.TempDir(), "split.json")

	logger, closer, err := logging.New(logging.Options{Path: path, Format: "JSON", Level: "debug"})
	g.Expect(err).ToNot(HaveOccurred())

	logger.Debug("wrote page", "page", 1)
	g.Expect(closer.Close()).To(Succeed())

	content, err := os.ReadFile(path)
	g.Expect(err).ToNot(HaveOccurred())

	var record map[string]any
	g.Expect(json.Unmarshal([]byte(strings.TrimSpace(string(content))), &record)).To(Succeed())
	g.Expect(record).To(HaveKeyWithValue("msg", "wrote page"))
	g.Expect(record).To(HaveKeyWithValue("level", "debug"))
	g.Expect(record).To(HaveKey("ts"))
	g.Expect(record["source"]).To(ContainSubstring("logging_test.go:"))
}

func TestNew_AppendsToExistingFile(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	path := filepath.Join(t.TempDir(), "split.log")
	g.Expect(os.WriteFile(path, []byte("earlier run\n"), 0o600)).To(Succeed())

	logger, closer, err := logging.New(logging.Options{Path: path})
	g.Expect(err).ToNot(HaveOccurred())
	logger.Info("later run")
	g.Expect(closer.Close()).To(Succeed())

	content, err := os.ReadFile(path)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(string(content)).To(HavePrefix("earlier run\n"))
	g.Expect(string(content)).To(ContainSubstring("later run"))
}

func TestNew_DiscardByDefault(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	logger, closer, err := logging.New(logging.Options{})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(logger.Enabled(t.Context(), slog.LevelInfo)).To(BeTrue())
	g.Expect(closer.Close()).To(Succeed())

	g.Expect(logging.Discard()).ToNot(BeNil())
}

func TestNew_Rejects(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, _, err := logging.New(logging.Options{Format: "xml"})
	g.Expect(errors.Is(err, logging.ErrUnsupportedFormat)).To(BeTrue())

	_, _, err = logging.New(logging.Options{Level: "loud"})
	g.Expect(errors.Is(err, logging.ErrUnsupportedLevel)).To(BeTrue())
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{" info ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		got, err := logging.ParseLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) failed: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
