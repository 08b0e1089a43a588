//go:build js && wasm

package main

import (
	"fmt"
	"path"
	"strings"
	"syscall/js"

	"github.com/lucasjlepore/fitkit"
	"github.com/lucasjlepore/fitkit/batch"
	"github.com/lucasjlepore/fitkit/export"
	"github.com/lucasjlepore/fitkit/pattern"
)

func main() {
	js.Global().Set("exportActivity", js.FuncOf(exportActivity))
	select {}
}

func exportActivity(_ js.Value, args []js.Value) any {
	if len(args) < 2 {
		return failure("expected arguments: fileBytes(Uint8Array), options(object)")
	}
	fileArg := args[0]
	optsArg := args[1]
	if fileArg.IsUndefined() || fileArg.IsNull() || fileArg.Get("length").Int() == 0 {
		return failure("activity file bytes are required")
	}

	fileBytes := make([]byte, fileArg.Get("length").Int())
	if n := js.CopyBytesToGo(fileBytes, fileArg); n == 0 {
		return failure("failed to read activity bytes from JS input")
	}

	name := option(optsArg, "source_file_name", "input.fit")
	format, err := export.ParseFormat(option(optsArg, "format", string(export.FormatCSV)))
	if err != nil {
		return failure(err.Error())
	}

	s, _, err := batch.LoadBytes(name, fileBytes)
	if err != nil {
		return failure(err.Error())
	}
	rendered, err := export.Render(s, format)
	if err != nil {
		return failure(err.Error())
	}

	base := strings.TrimSuffix(path.Base(name), path.Ext(name))
	suggested := ""
	if p := option(optsArg, "pattern", ""); p != "" {
		resolved, err := pattern.Resolve(p, s)
		if err != nil {
			return failure(err.Error())
		}
		if resolved != "" {
			base = resolved
			suggested = resolved + path.Ext(name)
		}
	}

	outputs := []export.Artifact{
		{Name: base + "." + string(format), Data: rendered},
		{Name: base + "_summary.txt", Data: []byte(fitkit.BuildSummary(s))},
	}
	zipBytes, err := export.Zip(outputs)
	if err != nil {
		return failure(fmt.Sprintf("create zip: %v", err))
	}
	payload := js.Global().Get("Uint8Array").New(len(zipBytes))
	js.CopyBytesToJS(payload, zipBytes)

	names := make([]any, len(outputs))
	for i, o := range outputs {
		names[i] = o.Name
	}
	warnings := make([]any, len(s.Issues))
	for i, issue := range s.Issues {
		warnings[i] = issue.String()
	}

	return map[string]any{
		"ok":             true,
		"zip":            payload,
		"warnings":       warnings,
		"files":          names,
		"suggested_name": suggested,
	}
}

func failure(msg string) map[string]any {
	return map[string]any{
		"ok":    false,
		"error": msg,
	}
}

// option reads a string option, falling back when the options object or
// the key is missing or empty.
func option(opts js.Value, key, fallback string) string {
	if opts.Type() != js.TypeObject {
		return fallback
	}
	v := opts.Get(key)
	if v.Type() != js.TypeString || v.String() == "" {
		return fallback
	}
	return v.String()
}
