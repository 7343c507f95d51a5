package composer

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestEncodeAsset_inline(t *testing.T) {
	payload := []byte("fake png bytes")
	in := AssetInput{
		Name:        "banner.png",
		ContentType: "image/png",
		Size:        int64(len(payload)),
		Content:     bytes.NewReader(payload),
	}

	ref, err := EncodeAsset(in, EncodingInline)
	if err != nil {
		t.Fatalf("EncodeAsset() err = %v", err)
	}
	if !ref.IsInline() || ref.IsDeferred() {
		t.Errorf("EncodeAsset() encoding = %s; want inline", ref.Encoding)
	}
	if ref.UploadID != "" {
		t.Errorf("EncodeAsset() set UploadID %q on an inline asset", ref.UploadID)
	}
	decoded, err := base64.StdEncoding.DecodeString(ref.Data)
	if err != nil {
		t.Fatalf("EncodeAsset() produced invalid base64: %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Errorf("EncodeAsset() data round-trips to %q; want %q", decoded, payload)
	}
	if ref.Size != int64(len(payload)) {
		t.Errorf("EncodeAsset() size = %d; want %d", ref.Size, len(payload))
	}
}

func TestEncodeAsset_deferred(t *testing.T) {
	in := AssetInput{
		Name:        "thumb.jpg",
		ContentType: "image/jpeg",
		Size:        1024,
		Content:     strings.NewReader("ignored"),
	}

	ref, err := EncodeAsset(in, EncodingUpload)
	if err != nil {
		t.Fatalf("EncodeAsset() err = %v", err)
	}
	if !ref.IsDeferred() {
		t.Errorf("EncodeAsset() encoding = %s; want url", ref.Encoding)
	}
	if ref.UploadID == "" {
		t.Error("EncodeAsset() left UploadID empty on a deferred asset")
	}
	if ref.Data != "" {
		t.Error("EncodeAsset() set inline data on a deferred asset")
	}
}

func TestEncodeAsset_oversized(t *testing.T) {
	// the declared size is trusted for the bound check; nothing is read
	in := AssetInput{
		Name:        "huge.png",
		ContentType: "image/png",
		Size:        6 << 20,
		Content:     failingReader{},
	}

	_, err := EncodeAsset(in, EncodingInline)
	var aErr *AssetError
	if !errors.As(err, &aErr) {
		t.Fatalf("EncodeAsset() err = %v; want *AssetError", err)
	}
	if aErr.Field != "huge.png" {
		t.Errorf("AssetError field = %q; want %q", aErr.Field, "huge.png")
	}
	if !strings.Contains(aErr.Reason, "5 MiB") {
		t.Errorf("AssetError reason = %q; want the 5 MiB limit named", aErr.Reason)
	}
}

func TestEncodeAsset_lyingSize(t *testing.T) {
	// declared size fits but the stream is larger than the bound
	big := bytes.Repeat([]byte("a"), MaxAssetSize+1)
	in := AssetInput{
		Name:        "liar.png",
		ContentType: "image/png",
		Size:        42,
		Content:     bytes.NewReader(big),
	}

	if _, err := EncodeAsset(in, EncodingInline); err == nil {
		t.Error("EncodeAsset() accepted a stream larger than the size bound")
	}
}

func TestEncodeAsset_unreadable(t *testing.T) {
	in := AssetInput{
		Name:        "broken.png",
		ContentType: "image/png",
		Size:        10,
		Content:     failingReader{},
	}

	_, err := EncodeAsset(in, EncodingInline)
	var aErr *AssetError
	if !errors.As(err, &aErr) {
		t.Fatalf("EncodeAsset() err = %v; want *AssetError", err)
	}
}

func TestEncodeAsset_unknownStrategy(t *testing.T) {
	in := AssetInput{
		Name:    "x.png",
		Size:    1,
		Content: strings.NewReader("x"),
	}
	if _, err := EncodeAsset(in, AssetEncoding("ftp")); err == nil {
		t.Error("EncodeAsset() accepted an unknown strategy")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }
