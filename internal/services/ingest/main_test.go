package ingest

import (
	"os"
	"testing"

	"oitracker/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init("warn", "test")
	os.Exit(m.Run())
}
