package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const fixtures = "../../internal/composer/testdata"

func TestRun_FixturesPass(t *testing.T) {
	var out bytes.Buffer
	code := run(&out, filepath.Join(fixtures, "earthquakes.geojson"), filepath.Join(fixtures, "plates.json"), false)

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "Markers: 4 styled, 2 skipped")
	assert.Contains(t, out.String(), "All validations passed.")
}

func TestRun_StrictFailsOnSkipped(t *testing.T) {
	var out bytes.Buffer
	code := run(&out, filepath.Join(fixtures, "earthquakes.geojson"), filepath.Join(fixtures, "plates.json"), true)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "feature has no magnitude")
	assert.Contains(t, out.String(), "Validation FAILED.")
}

func TestRun_BadPlateGeometry(t *testing.T) {
	dir := t.TempDir()
	plates := filepath.Join(dir, "plates.json")
	doc := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[1,2]}}]}`
	if err := os.WriteFile(plates, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	code := run(&out, filepath.Join(fixtures, "earthquakes.geojson"), plates, false)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "unexpected geometry Point")
}

func TestRun_MissingFile(t *testing.T) {
	var out bytes.Buffer
	code := run(&out, "does-not-exist.geojson", filepath.Join(fixtures, "plates.json"), false)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "FATAL: load earthquake feed")
}
