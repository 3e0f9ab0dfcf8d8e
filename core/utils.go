package core

import (
	"math"
	"os"
	"path/filepath"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Round rounds x half away from zero to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(x*p) / p
}

// Getwd finds the project root, i.e. the closest parent directory holding a go.mod file.
// go-test changes the working directory to the test package being run.
func Getwd() (string, bool) {
	wd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir, true
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return wd, false
		}
		currDir = newDir
	}
}
