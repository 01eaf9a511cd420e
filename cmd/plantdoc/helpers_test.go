package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// runRoot executes the root command with args and returns what it wrote.
func runRoot(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr lockedBuffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// lockedBuffer is a bytes.Buffer safe for the concurrent writes of the
// logger and the progress output.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// writeConfig writes a configuration file to a temporary directory so
// tests never pick up a file from the working or home directory.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".plantdoc.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// writePNG writes a small valid PNG to dir/name and returns its path.
func writePNG(t *testing.T, dir, name string) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(2, 2, color.RGBA{G: 180, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// heatmapBytes is the payload the fake backend returns as heatmap.
const heatmapBytes = "\x89PNG\r\n\x1a\nheat"

// newFakeBackend serves /predict, /explain and /chat like the diagnosis
// backend. Files named "healthy*" are healthy, others have late blight.
func newFakeBackend(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/predict":
			_, header, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "no file", http.StatusBadRequest)
				return
			}
			class := "Tomato_Late_blight"
			if strings.HasPrefix(header.Filename, "healthy") {
				class = "Tomato_healthy"
			}
			_, _ = io.WriteString(w, `{"status":"success","primary_diagnosis":"`+class+`","confidence":88,
				"top_3_predictions":[{"class":"`+class+`","confidence":88},{"class":"Tomato_Leaf_Mold","confidence":12}],
				"advice":["Remove infected leaves.","Avoid wetting the foliage."]}`)
		case "/explain":
			_, _ = io.WriteString(w, `{"status":"success","heatmap_base64":"data:image/png;base64,iVBORw0KGgpoZWF0"}`)
		case "/chat":
			_, _ = io.WriteString(w, `{"status":"success","response":"Water at the base of the plant."}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}
