package testdata

import (
	"embed"
	"log"
	"path"
	"runtime"
)

// dir of this go module, so tests can load files beneath it
var Dir string

//go:embed events batches sketch
var Fixtures embed.FS

// GetBytes loads a fixture such as events/canonical.json.
func GetBytes(path string) []byte {
	ret, err := Fixtures.ReadFile(path)
	if err != nil {
		log.Fatalf("could not load test file %v: %v", path, err)
	}
	return ret
}

func GetEvent(name string) []byte {
	return GetBytes(path.Join("events", name))
}

func GetBatch(name string) []byte {
	return GetBytes(path.Join("batches", name))
}

func init() {
	_, filename, _, _ := runtime.Caller(0)
	Dir = path.Dir(filename)
}
