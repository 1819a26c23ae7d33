package files

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	got, err := ExpandPath("~/issues")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if want := filepath.Join(home, "issues"); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	got, err = ExpandPath("/tmp/issues")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "/tmp/issues" {
		t.Errorf("Expected path to be unchanged, got %s", got)
	}
}

func TestValidatePath(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "report.sarif")
	if err := os.WriteFile(file, []byte("{}"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := ValidatePath(file); err != nil {
		t.Errorf("Expected regular file to be valid, got %v", err)
	}
	if err := ValidatePath(tmpDir); err == nil {
		t.Errorf("Expected directory to be rejected")
	}
	if err := ValidatePath(filepath.Join(tmpDir, "missing")); err == nil {
		t.Errorf("Expected missing file to be rejected")
	}
}

func TestCreateFolderIfNotExists(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "a", "b")
	if err := CreateFolderIfNotExists(folder); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if info, err := os.Stat(folder); err != nil || !info.IsDir() {
		t.Fatalf("Expected folder %s to exist", folder)
	}
	if err := CreateFolderIfNotExists(folder); err != nil {
		t.Errorf("Expected second call to be a no-op, got %v", err)
	}
}

func TestRelativeToRoot(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		target  string
		want    string
		wantErr bool
	}{
		{name: "nested file", target: filepath.Join(root, "src", "main.go"), want: "src/main.go"},
		{name: "root itself", target: root, want: "."},
		{name: "dotdot prefixed name", target: filepath.Join(root, "..hidden"), want: "..hidden"},
		{name: "outside root", target: filepath.Join(root, "..", "other"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RelativeToRoot(root, tt.target)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}
