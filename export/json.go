package export

import (
	"encoding/json"
	"io"
	"os"
)

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return ioError("create", path, err)
	}
	defer f.Close()

	if err := encodeJSON(f, v); err != nil {
		return serializationError("write json", path, err)
	}
	if err := f.Close(); err != nil {
		return ioError("close", path, err)
	}
	return nil
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
