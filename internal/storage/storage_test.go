package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "media")

	store, err := NewLocalStorage(root, "/media/")
	require.NoError(t, err)
	assert.Equal(t, root, store.Root())

	url, err := store.Put(ctx, "recipes/images/a b.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/media/recipes/images/a%20b.png", url)

	data, err := os.ReadFile(filepath.Join(root, "recipes", "images", "a b.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	url, err = store.Put(ctx, "../../escape.png", []byte("x"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/media/escape.png", url)
	assert.FileExists(t, filepath.Join(root, "escape.png"))

	_, err = store.Put(ctx, "/", []byte("x"), "image/png")
	assert.Error(t, err)

	require.NoError(t, store.Delete(ctx, "recipes/images/a b.png"))
	assert.NoFileExists(t, filepath.Join(root, "recipes", "images", "a b.png"))
	assert.NoError(t, store.Delete(ctx, "recipes/images/a b.png"), "deleting a missing object")
	assert.Error(t, store.Delete(ctx, "/"))
}

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.DeleteObjectOutput)
	return out, args.Error(1)
}

func TestS3Storage(t *testing.T) {
	ctx := context.Background()

	t.Run("aws url", func(t *testing.T) {
		var sent *s3.PutObjectInput
		client := new(mockS3)
		client.On("PutObject", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { sent = args.Get(1).(*s3.PutObjectInput) }).
			Return(&s3.PutObjectOutput{}, nil)

		store := NewS3StorageWithClient(client, "foodgram", "")
		url, err := store.Put(ctx, "recipes/images/x.png", []byte("png"), "image/png")
		require.NoError(t, err)
		assert.Equal(t, "https://foodgram.s3.amazonaws.com/recipes/images/x.png", url)
		client.AssertExpectations(t)

		require.NotNil(t, sent)
		assert.Equal(t, "foodgram", aws.ToString(sent.Bucket))
		assert.Equal(t, "recipes/images/x.png", aws.ToString(sent.Key))
		assert.Equal(t, "image/png", aws.ToString(sent.ContentType))
		body, err := io.ReadAll(sent.Body)
		require.NoError(t, err)
		assert.Equal(t, "png", string(body))
	})

	t.Run("custom endpoint", func(t *testing.T) {
		client := new(mockS3)
		client.On("PutObject", mock.Anything, mock.Anything).Return(&s3.PutObjectOutput{}, nil)

		store := NewS3StorageWithClient(client, "foodgram", "http://localhost:9000/")
		url, err := store.Put(ctx, "k.png", []byte("png"), "image/png")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000/foodgram/k.png", url)
	})

	t.Run("upload failure", func(t *testing.T) {
		client := new(mockS3)
		client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

		store := NewS3StorageWithClient(client, "foodgram", "")
		_, err := store.Put(ctx, "k.png", []byte("png"), "image/png")
		assert.ErrorContains(t, err, "access denied")
	})

	t.Run("delete", func(t *testing.T) {
		var sent *s3.DeleteObjectInput
		client := new(mockS3)
		client.On("DeleteObject", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { sent = args.Get(1).(*s3.DeleteObjectInput) }).
			Return(&s3.DeleteObjectOutput{}, nil).Once()
		client.On("DeleteObject", mock.Anything, mock.Anything).Return(nil, errors.New("no such bucket"))

		store := NewS3StorageWithClient(client, "foodgram", "")
		require.NoError(t, store.Delete(ctx, "recipes/images/x.png"))
		require.NotNil(t, sent)
		assert.Equal(t, "foodgram", aws.ToString(sent.Bucket))
		assert.Equal(t, "recipes/images/x.png", aws.ToString(sent.Key))

		assert.ErrorContains(t, store.Delete(ctx, "k.png"), "no such bucket")
	})
}
