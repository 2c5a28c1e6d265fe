package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const modulePath = "github.com/oxhq/junify/"

// Thresholds holds the minimum statement coverage per component
type Thresholds map[string]float64

// DefaultThresholds for local runs
var DefaultThresholds = Thresholds{
	"engine":    85.0,
	"rules":     80.0,
	"providers": 75.0,
	"core":      70.0,
	"journal":   70.0,
	"config":    60.0,
	"cli":       50.0,
}

// StrictThresholds for CI
var StrictThresholds = Thresholds{
	"engine":    90.0,
	"rules":     88.0,
	"providers": 82.0,
	"core":      78.0,
	"journal":   75.0,
	"config":    70.0,
	"cli":       60.0,
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <coverage.out> [--strict]\n", os.Args[0])
		os.Exit(1)
	}

	strict := len(os.Args) > 2 && os.Args[2] == "--strict"
	thresholds, minOverall := DefaultThresholds, 75.0
	if strict {
		thresholds, minOverall = StrictThresholds, 82.0
	}

	packages, err := parseCoverageFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading coverage file: %v\n", err)
		os.Exit(1)
	}

	failures := report(os.Stdout, packages, thresholds, minOverall)
	if failures > 0 {
		fmt.Printf("\nCoverage check failed: %d threshold(s) not met\n", failures)
		os.Exit(1)
	}
	fmt.Println("\nAll coverage thresholds met")
}

// PackageCoverage counts the statements of one package
type PackageCoverage struct {
	Package    string
	Statements int
	Covered    int
}

// Coverage returns the covered share in percent
func (p PackageCoverage) Coverage() float64 {
	if p.Statements == 0 {
		return 0
	}
	return float64(p.Covered) / float64(p.Statements) * 100.0
}

// parseCoverageFile reads a go test -coverprofile file. Each block line is
// "file:start,end statements count"; malformed lines are skipped.
func parseCoverageFile(filename string) ([]PackageCoverage, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	byPackage := make(map[string]*PackageCoverage)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "mode:") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			continue
		}
		colon := strings.LastIndex(fields[0], ":")
		if colon <= 0 {
			continue
		}
		statements, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		count, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}

		pkg := packageOf(fields[0][:colon])
		if byPackage[pkg] == nil {
			byPackage[pkg] = &PackageCoverage{Package: pkg}
		}
		byPackage[pkg].Statements += statements
		if count > 0 {
			byPackage[pkg].Covered += statements
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	packages := make([]PackageCoverage, 0, len(byPackage))
	for _, p := range byPackage {
		packages = append(packages, *p)
	}
	sort.Slice(packages, func(i, j int) bool { return packages[i].Package < packages[j].Package })
	return packages, nil
}

// packageOf strips the module path and file name from a profile path
func packageOf(file string) string {
	file = strings.TrimPrefix(file, modulePath)
	if i := strings.LastIndex(file, "/"); i >= 0 {
		return file[:i]
	}
	return "."
}

// component maps a package to the group its threshold applies to
func component(pkg string) string {
	switch {
	case pkg == "engine" || strings.HasPrefix(pkg, "engine/"):
		return "engine"
	case strings.HasPrefix(pkg, "rules"):
		return "rules"
	case strings.HasPrefix(pkg, "providers"):
		return "providers"
	case pkg == "core":
		return "core"
	case pkg == "db" || pkg == "models":
		return "journal"
	case strings.HasPrefix(pkg, "internal/"):
		return "config"
	case strings.HasPrefix(pkg, "cmd/"):
		return "cli"
	}
	return "other"
}

// componentCoverage aggregates package counts per component
func componentCoverage(packages []PackageCoverage) map[string]PackageCoverage {
	out := make(map[string]PackageCoverage)
	for _, p := range packages {
		name := component(p.Package)
		c := out[name]
		c.Package = name
		c.Statements += p.Statements
		c.Covered += p.Covered
		out[name] = c
	}
	return out
}

func overallCoverage(packages []PackageCoverage) float64 {
	var total PackageCoverage
	for _, p := range packages {
		total.Statements += p.Statements
		total.Covered += p.Covered
	}
	return total.Coverage()
}

// report prints per-component results and returns the number of failures
func report(w io.Writer, packages []PackageCoverage, thresholds Thresholds, minOverall float64) int {
	components := componentCoverage(packages)
	overall := overallCoverage(packages)
	fmt.Fprintf(w, "Overall: %.1f%%\n\n", overall)

	names := make([]string, 0, len(thresholds))
	for name := range thresholds {
		names = append(names, name)
	}
	sort.Strings(names)

	failures := 0
	for _, name := range names {
		c, ok := components[name]
		if !ok {
			fmt.Fprintf(w, "-  %-10s: no statements\n", name)
			continue
		}
		status := "ok"
		if c.Coverage() < thresholds[name] {
			status = "FAIL"
			failures++
		}
		fmt.Fprintf(w, "%-4s %-10s: %5.1f%% (target: %.1f%%)\n", status, name, c.Coverage(), thresholds[name])
	}

	if overall < minOverall {
		failures++
		fmt.Fprintf(w, "FAIL overall %.1f%% below minimum %.1f%%\n", overall, minOverall)
	}
	return failures
}
