package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildExportPath places exports under the engine name, partitioned by
// date:
//
//	<engine>/date=2026-08-29/export-<id>.parquet
func BuildExportPath(engineName, exportID string, requestedAt time.Time) (string, error) {
	if err := validatePathComponent(engineName, "engine name"); err != nil {
		return "", err
	}
	if err := validatePathComponent(exportID, "export id"); err != nil {
		return "", err
	}

	ts := requestedAt.UTC()
	return path.Join(
		engineName,
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		fmt.Sprintf("export-%s.parquet", exportID),
	), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
