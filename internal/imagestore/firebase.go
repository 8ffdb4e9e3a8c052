// Package imagestore uploads report photos to object storage.
package imagestore

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	gcs "cloud.google.com/go/storage"
	firebasestorage "firebase.google.com/go/v4/storage"
	"github.com/google/uuid"
)

// Uploader stores image bytes and returns a public URL
type Uploader interface {
	Name() string
	Upload(ctx context.Context, image []byte, contentType string) (string, error)
}

// FirebaseUploader writes objects into a Firebase Storage bucket
type FirebaseUploader struct {
	bucket     *gcs.BucketHandle
	bucketName string
	folder     string
}

// NewFirebaseUploader creates an uploader for the given bucket
func NewFirebaseUploader(client *firebasestorage.Client, bucketName, folder string) (*FirebaseUploader, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("storage bucket not provided")
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("opening bucket %s: %w", bucketName, err)
	}
	return &FirebaseUploader{bucket: bucket, bucketName: bucketName, folder: folder}, nil
}

func (u *FirebaseUploader) Name() string { return "firebase-storage" }

// Upload streams the buffer to a new object under the configured folder. The object
// carries a Firebase download token so the returned URL resolves without making the
// bucket public.
func (u *FirebaseUploader) Upload(ctx context.Context, image []byte, contentType string) (string, error) {
	objectName := path.Join(u.folder, time.Now().UTC().Format("2006/01/02"), uuid.NewString()+".jpg")
	token := uuid.NewString()

	w := u.bucket.Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000"
	w.Metadata = map[string]string{downloadTokenKey: token}
	if _, err := w.Write(image); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("writing object %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing object %s: %w", objectName, err)
	}

	return downloadURL(u.bucketName, objectName, token), nil
}

const downloadTokenKey = "firebaseStorageDownloadTokens"

// downloadURL builds the tokenized Firebase Storage URL for an object
func downloadURL(bucket, objectName, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(objectName), url.QueryEscape(token))
}
