package simplefs

import (
	"bytes"
	"io"
	"testing"

	"turretcode-go/errcode"
)

func buildTestImage(t *testing.T) Bytes {
	t.Helper()
	img, err := BuildImage([]Input{
		{Name: "sfx_deploy", Data: []byte("deploy-bytes")},
		{Name: "gotcha", Data: bytes.Repeat([]byte{0x5A}, 3000)},
		{Name: "empty", Data: nil},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return Bytes(img)
}

func TestMountAndRead(t *testing.T) {
	fs, err := Mount(buildTestImage(t))
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	if fs.NumFiles() != 3 {
		t.Fatalf("NumFiles = %d, want 3", fs.NumFiles())
	}

	f, err := fs.Open(0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "deploy-bytes" {
		t.Errorf("read %q", got)
	}
}

func TestChunkedRead(t *testing.T) {
	fs, err := Mount(buildTestImage(t))
	if err != nil {
		t.Fatal(err)
	}

	f, err := fs.OpenName("gotcha")
	if err != nil {
		t.Fatalf("open name: %v", err)
	}
	if f.Size() != 3000 {
		t.Fatalf("size %d, want 3000", f.Size())
	}

	buf := make([]byte, 1024)
	total := 0
	for {
		n, err := f.Read(buf)
		for _, b := range buf[:n] {
			if b != 0x5A {
				t.Fatal("corrupt data")
			}
		}
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read: %v", err)
		}
	}
	if total != 3000 {
		t.Errorf("read %d bytes, want 3000", total)
	}
}

func TestEmptyFile(t *testing.T) {
	fs, err := Mount(buildTestImage(t))
	if err != nil {
		t.Fatal(err)
	}
	f, err := fs.OpenName("empty")
	if err != nil {
		t.Fatal(err)
	}
	if n, err := f.Read(make([]byte, 8)); n != 0 || err != io.EOF {
		t.Errorf("empty read = (%d, %v), want (0, EOF)", n, err)
	}
}

func TestBadSignature(t *testing.T) {
	img := buildTestImage(t)
	img[0] ^= 0xFF

	if _, err := Mount(img); !errcode.Is(err, errcode.BadImage) {
		t.Errorf("expected bad_image, got %v", err)
	}
}

func TestTruncatedDirectory(t *testing.T) {
	img := buildTestImage(t)

	if _, err := Mount(img[:headerSize+5]); !errcode.Is(err, errcode.BadImage) {
		t.Errorf("expected bad_image, got %v", err)
	}
}

func TestOpenMissing(t *testing.T) {
	fs, err := Mount(buildTestImage(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Open(3); !errcode.Is(err, errcode.NotFound) {
		t.Errorf("index: expected not_found, got %v", err)
	}
	if _, err := fs.OpenName("who_is_there"); !errcode.Is(err, errcode.NotFound) {
		t.Errorf("name: expected not_found, got %v", err)
	}
}

func TestBuildRejectsLongName(t *testing.T) {
	_, err := BuildImage([]Input{{Name: "a-very-long-clip-name", Data: nil}})
	if err == nil {
		t.Error("17+ byte name accepted")
	}
}
