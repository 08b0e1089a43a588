package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"
)

// Artifact is one named output of an archive.
type Artifact struct {
	Name string
	Data []byte
}

// Zip packs artifacts in order with a fixed modification time, so equal
// artifacts give byte-identical archives.
func Zip(artifacts []Artifact) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, a := range artifacts {
		h := &zip.FileHeader{Name: a.Name, Method: zip.Deflate}
		h.Modified = time.Unix(0, 0).UTC()
		w, err := zw.CreateHeader(h)
		if err != nil {
			return nil, serializationError("zip", a.Name, err)
		}
		if _, err := w.Write(a.Data); err != nil {
			return nil, serializationError("zip", a.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, serializationError("zip", "", fmt.Errorf("close archive: %w", err))
	}
	return buf.Bytes(), nil
}
