package linker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coldog/jspack/pkg/compiler"
)

const header = "/* generated by jspack. DO NOT EDIT. */\n(function () {\n"
const footer = "})();\n"

// Render turns c into an asset named by the filename template.
func Render(c *Chunk, filename string) (Asset, error) {
	var w bytes.Buffer

	w.WriteString(header)
	w.WriteString(runtime)
	w.WriteString("\n")
	if err := writeModules(&w, c.Modules); err != nil {
		return Asset{}, fmt.Errorf("render chunk %s: %w", c.Name, err)
	}
	if err := writeStart(&w, c.Entry); err != nil {
		return Asset{}, fmt.Errorf("render chunk %s: %w", c.Name, err)
	}
	w.WriteString(footer)

	return Asset{
		Filename: c.Filename(filename),
		Chunk:    c.Name,
		Modules:  len(c.Modules),
		Content:  w.Bytes(),
	}, nil
}

// RenderAll renders every chunk. It fails if two chunks map to the same
// filename.
func RenderAll(chunks []*Chunk, filename string) ([]Asset, error) {
	assets := make([]Asset, 0, len(chunks))
	seen := map[string]string{}
	for _, c := range chunks {
		a, err := Render(c, filename)
		if err != nil {
			return nil, err
		}
		if other, ok := seen[a.Filename]; ok {
			return nil, fmt.Errorf("chunks %s and %s both render to %s", other, c.Name, a.Filename)
		}
		seen[a.Filename] = c.Name
		assets = append(assets, a)
	}
	return assets, nil
}

func writeStart(w *bytes.Buffer, entry string) error {
	id, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	w.WriteString(compiler.RequireIdent + "(" + string(id) + ");\n")
	return nil
}

func writeModules(w *bytes.Buffer, modules []*compiler.Module) error {
	for _, m := range modules {
		id, err := json.Marshal(m.ID)
		if err != nil {
			return err
		}
		w.WriteString("modules[" + string(id) + "] = function (module, exports, " + compiler.RequireIdent + ") {\n")
		w.WriteString(m.Source)
		if !strings.HasSuffix(m.Source, "\n") {
			w.WriteString("\n")
		}
		w.WriteString("};\n")
	}
	return nil
}
