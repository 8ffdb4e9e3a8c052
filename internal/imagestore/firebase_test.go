package imagestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDownloadURL(t *testing.T) {
	got := downloadURL("reunite.appspot.com", "items/2026/06/01/abc.jpg", "3f1c2b9e-token")
	assert.Equal(t,
		"https://firebasestorage.googleapis.com/v0/b/reunite.appspot.com/o/items%2F2026%2F06%2F01%2Fabc.jpg?alt=media&token=3f1c2b9e-token",
		got)
}

func TestNewFirebaseUploader_RequiresBucket(t *testing.T) {
	_, err := NewFirebaseUploader(nil, "", "items")
	assert.Error(t, err)
}
