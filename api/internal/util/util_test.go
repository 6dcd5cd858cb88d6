package util

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```markdown\n# Q\n```", "# Q"},
		{"  ```\nx\n```  ", "x"},
	}
	for _, tt := range tests {
		if got := StripCodeFences(tt.in); got != tt.want {
			t.Errorf("StripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello…" {
		t.Errorf("got %q", got)
	}
	// "é" is two bytes; cutting inside it must back off to the rune start
	if got := Truncate("aé", 2); got != "a…" {
		t.Errorf("got %q", got)
	}
}

func TestLastSegment(t *testing.T) {
	tests := map[string]string{
		"Qwen/Qwen3-235B-A22B-fp8-tput": "Qwen3-235B-A22B-fp8-tput",
		"openai/gpt-oss-20b":            "gpt-oss-20b",
		"gemini-2.5-flash":              "gemini-2.5-flash",
		"a/b/c":                         "c",
	}
	for in, want := range tests {
		if got := LastSegment(in); got != want {
			t.Errorf("LastSegment(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDecodeBase64MaybeDataURL(t *testing.T) {
	payload := []byte("abc")
	enc := base64.StdEncoding.EncodeToString(payload)

	b, mime, err := DecodeBase64MaybeDataURL("data:image/png;base64," + enc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mime != "image/png" || !bytes.Equal(b, payload) {
		t.Errorf("got (%q, %q)", b, mime)
	}

	b, mime, err = DecodeBase64MaybeDataURL(enc)
	if err != nil || mime != "" || !bytes.Equal(b, payload) {
		t.Errorf("plain base64: got (%q, %q, %v)", b, mime, err)
	}

	if _, _, err := DecodeBase64MaybeDataURL("%%%"); err == nil {
		t.Error("expected error for invalid base64")
	}
}

func TestMakeDataURL(t *testing.T) {
	got := MakeDataURL("image/png", []byte("abc"))
	if got != "data:image/png;base64,YWJj" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeImageReencodesAsPNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 3))
	src.Set(1, 1, color.Black)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, nil); err != nil {
		t.Fatal(err)
	}

	out, err := NormalizeImage(buf.Bytes())
	if err != nil {
		t.Fatalf("NormalizeImage returned error: %v", err)
	}
	if SniffMimeHTTP(out) != "image/png" {
		t.Fatalf("expected png output, got %s", SniffMimeHTTP(out))
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Errorf("unexpected size %v", img.Bounds())
	}
}

func TestNormalizeImageRejectsGarbage(t *testing.T) {
	if _, err := NormalizeImage([]byte("not an image")); err == nil {
		t.Error("expected error")
	}
}

func TestScaleDownNN(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	dst := scaleDownNN(src, 5, 2)
	if dst.Bounds().Dx() != 5 || dst.Bounds().Dy() != 2 {
		t.Errorf("unexpected size %v", dst.Bounds())
	}
}
