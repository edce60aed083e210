package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/readmit/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadDefaults(t *testing.T) {
	Convey("Given no overrides", t, func() {
		os.Unsetenv("READMIT_CONFIG")

		cfg, err := config.Load(context.Background())

		Convey("Then defaults should apply", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":5000")
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.ModelKind, ShouldEqual, config.ModelKindCoefficients)
			So(cfg.DBPath, ShouldBeEmpty)
			So(cfg.AuditQueueSize, ShouldEqual, 10_000)
			So(cfg.AuditWorkers, ShouldEqual, 2)
		})
	})
}

func TestLoadFromFile(t *testing.T) {
	Convey("Given a YAML config file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		content := []byte("addr: \":8080\"\nlog_level: debug\ndb_path: /tmp/predictions.db\nthreshold: 0.4\n")
		So(os.WriteFile(path, content, 0o600), ShouldBeNil)

		t.Setenv("READMIT_CONFIG", path)

		cfg, err := config.Load(context.Background())

		Convey("Then the file should override defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":8080")
			So(cfg.LogLevel, ShouldEqual, "debug")
			So(cfg.DBPath, ShouldEqual, "/tmp/predictions.db")
			So(cfg.Threshold, ShouldEqual, 0.4)
			So(cfg.ModelKind, ShouldEqual, config.ModelKindCoefficients)
		})
	})

	Convey("Given a missing config file", t, func() {
		t.Setenv("READMIT_CONFIG", "/nonexistent/config.yaml")

		_, err := config.Load(context.Background())

		Convey("Then loading should fail with ErrLoadConfig", func() {
			So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
		})
	})
}

func TestLoadFromEnv(t *testing.T) {
	Convey("Given environment overrides", t, func() {
		os.Unsetenv("READMIT_CONFIG")
		t.Setenv("READMIT_ADDR", ":9000")
		t.Setenv("READMIT_LOG_LEVEL", "warn")
		t.Setenv("READMIT_AUDIT_QUEUE_SIZE", "500")

		cfg, err := config.Load(context.Background())

		Convey("Then env should override defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9000")
			So(cfg.LogLevel, ShouldEqual, "warn")
			So(cfg.AuditQueueSize, ShouldEqual, 500)
		})
	})

	Convey("Given env layered over a file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		So(os.WriteFile(path, []byte("addr: \":8080\"\n"), 0o600), ShouldBeNil)

		t.Setenv("READMIT_CONFIG", path)
		t.Setenv("READMIT_ADDR", ":9000")

		cfg, err := config.Load(context.Background())

		Convey("Then env should win over the file", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9000")
		})
	})
}

func TestLoadValidation(t *testing.T) {
	Convey("Given invalid configuration values", t, func() {
		os.Unsetenv("READMIT_CONFIG")

		Convey("When the model kind is unknown", func() {
			t.Setenv("READMIT_MODEL_KIND", "tensorflow")

			_, err := config.Load(context.Background())

			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When onnx is selected without a model path", func() {
			t.Setenv("READMIT_MODEL_KIND", "onnx")

			_, err := config.Load(context.Background())

			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the threshold is out of range", func() {
			t.Setenv("READMIT_THRESHOLD", "1.5")

			_, err := config.Load(context.Background())

			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the audit queue size is not positive", func() {
			t.Setenv("READMIT_AUDIT_QUEUE_SIZE", "0")

			_, err := config.Load(context.Background())

			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
