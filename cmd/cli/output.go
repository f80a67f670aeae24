package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/QTest-hq/jjsast/internal/inspect"
)

type outputFormat string

const (
	outputTable outputFormat = "table"
	outputYAML  outputFormat = "yaml"
	outputJSON  outputFormat = "json"
)

func parseOutput(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(s)); f {
	case outputTable, outputYAML, outputJSON:
		return f, nil
	case "", "text":
		return outputTable, nil
	case "yml":
		return outputYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, yaml or json)", s)
}

// tableWriter aligns tab-separated columns
type tableWriter struct {
	tw *tabwriter.Writer
}

func (t *tableWriter) row(cols ...interface{}) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(t.tw, strings.Join(parts, "\t"))
}

func (t *tableWriter) blank() {
	fmt.Fprintln(t.tw)
}

// printValue renders v as yaml or json, or calls table for table output
func printValue(w io.Writer, format outputFormat, v interface{}, table func(*tableWriter)) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := &tableWriter{tw: tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)}
	table(tw)
	return tw.tw.Flush()
}

func printTotals(tw *tableWriter, t inspect.Totals) {
	tw.row("TYPES", t.Types)
	tw.row("METHODS", t.Methods)
	tw.row("EXTERNAL", t.External)
	tw.row("EXPORTED", t.Exported)
	tw.row("ENTRY POINTS", t.EntryPoints)
	tw.row("INVALID JS NAMES", t.InvalidJsNames)
	tw.row("ACCIDENTAL OVERRIDES", t.AccidentalOverride)
	tw.row("SPECIALIZATIONS", t.Specializations)
}

func printTypes(tw *tableWriter, types []inspect.TypeSummary) {
	tw.row("TYPE", "KIND", "JS NAME", "METHODS")
	for _, t := range types {
		tw.row(t.Name, t.Kind, t.QualifiedJsName, t.Methods)
	}
}

func printMethods(tw *tableWriter, methods []inspect.MethodSummary) {
	tw.row("ID", "METHOD", "JS NAME", "FLAGS")
	for _, m := range methods {
		js := "-"
		switch {
		case m.JsNameError != "":
			js = "! " + m.JsNameError
		case m.QualifiedJsName != "":
			js = m.QualifiedJsName
		}
		tw.row(m.ID, m.Type+"."+m.Signature, js, methodFlags(m))
	}
}

// methodFlags lists the notable answers for m, "-" when there are none
func methodFlags(m inspect.MethodSummary) string {
	var flags []string
	add := func(set bool, name string) {
		if set {
			flags = append(flags, name)
		}
	}
	add(m.Exported, "exported")
	add(m.EntryPoint, "entry")
	add(m.JsNative, "native")
	add(m.JsOverlay, "overlay")
	add(m.JsFunction, "function")
	add(m.Accessor != "", m.Accessor)
	add(m.ExposesNonJsMethod, "exposes-non-js")
	add(m.ExposesPackagePrivate, "exposes-package-private")
	add(m.AccidentalOverride, "accidental-override")
	add(m.External, "external")
	add(m.Specialization != nil, "specialized")
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

// maskConnectionString hides the password of a connection URL for logging
func maskConnectionString(s string) string {
	scheme := strings.Index(s, "://")
	if scheme < 0 {
		return s
	}
	rest := s[scheme+3:]
	at := strings.Index(rest, "@")
	if at < 0 {
		return s
	}
	colon := strings.Index(rest[:at], ":")
	if colon < 0 {
		return s
	}
	return s[:scheme+3] + rest[:colon+1] + "****" + rest[at:]
}
