package composer

import (
	"encoding/base64"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/google/uuid"
)

const (
	// MaxAssetSize bounds every banner and thumbnail file.
	MaxAssetSize = 5 << 20 // 5 MiB

	// MaxThumbnails caps the thumbnail list.
	MaxThumbnails = 4
)

// AssetError indicates a rejected media file (oversized, unreadable).
// The draft is left untouched when one is returned.
type AssetError struct {
	Field  string
	Reason string
}

func newAssetError(field, reason string) error {
	return &AssetError{Field: field, Reason: reason}
}

func (err AssetError) Error() string {
	if err.Field == "" {
		return err.Reason
	}
	return err.Field + ": " + err.Reason
}

// AssetInput describes a file selected for encoding.
type AssetInput struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// EncodeAsset converts a selected file into an AssetRef using the
// given strategy. The size bound is checked before any reading
// happens; an oversized or unreadable file yields an AssetError and
// no AssetRef. The inline strategy produces a self-contained base64
// payload in one non-streaming read; the url strategy only wraps the
// file as a deferred handle for the external upload collaborator.
func EncodeAsset(in AssetInput, strategy AssetEncoding) (AssetRef, error) {
	if in.Size > MaxAssetSize {
		return AssetRef{}, newAssetError(in.Name, fmt.Sprintf("file exceeds the %d MiB limit", MaxAssetSize>>20))
	}

	ref := AssetRef{
		Encoding:    strategy,
		Name:        in.Name,
		ContentType: in.ContentType,
		Size:        in.Size,
	}

	switch strategy {
	case EncodingInline:
		// LimitReader guards against inputs larger than the declared size
		data, err := ioutil.ReadAll(io.LimitReader(in.Content, MaxAssetSize+1))
		if err != nil {
			return AssetRef{}, newAssetError(in.Name, "file could not be read")
		}
		if int64(len(data)) > MaxAssetSize {
			return AssetRef{}, newAssetError(in.Name, fmt.Sprintf("file exceeds the %d MiB limit", MaxAssetSize>>20))
		}
		ref.Size = int64(len(data))
		ref.Data = base64.StdEncoding.EncodeToString(data)
	case EncodingUpload:
		ref.UploadID = uuid.New().String()
	default:
		return AssetRef{}, newAssetError(in.Name, "unknown encoding strategy")
	}
	return ref, nil
}
