package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"                  //nolint:staticcheck
	"github.com/aws/aws-sdk-go/service/s3/s3manager" //nolint:staticcheck
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-composer/internal/config"
)

type fakeUploader struct {
	input *s3manager.UploadInput
	body  []byte
	err   error
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, input *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = input
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3manager.UploadOutput{
		Location: "https://renders.s3.amazonaws.com/" + aws.StringValue(input.Key),
	}, nil
}

func TestS3Store_Put(t *testing.T) {
	fake := &fakeUploader{}
	store := &S3Store{bucket: "renders", uploader: fake}

	obj, err := store.Put(context.Background(), RenderKey("abc"), []byte("RIFF"))
	require.NoError(t, err)

	assert.Equal(t, "renders/abc.wav", obj.Key)
	assert.Equal(t, "https://renders.s3.amazonaws.com/renders/abc.wav", obj.Location)
	assert.Equal(t, 4, obj.Size)
	assert.Equal(t, "renders", aws.StringValue(fake.input.Bucket))
	assert.Equal(t, wavContentType, aws.StringValue(fake.input.ContentType))
	assert.Equal(t, []byte("RIFF"), fake.body)
	assert.Equal(t, "s3", store.Name())
}

func TestS3Store_PutErrors(t *testing.T) {
	store := &S3Store{bucket: "renders", uploader: &fakeUploader{err: errors.New("denied")}}

	_, err := store.Put(context.Background(), "renders/x.wav", []byte("x"))
	assert.ErrorContains(t, err, "denied")

	_, err = store.Put(context.Background(), "../escape.wav", []byte("x"))
	assert.ErrorContains(t, err, "invalid storage key")
}

func TestLocalStore_Put(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "nested"))
	require.NoError(t, err)

	obj, err := store.Put(context.Background(), RenderKey("r1"), []byte("data"))
	require.NoError(t, err)

	path := filepath.Join(dir, "nested", "renders", "r1.wav")
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), written)
	assert.Equal(t, "file://"+filepath.ToSlash(path), obj.Location)
	assert.Equal(t, 4, obj.Size)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStore_Errors(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "/abs.wav", "a/../../b.wav"} {
		_, err := store.Put(context.Background(), key, nil)
		assert.Error(t, err, key)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Put(ctx, "renders/late.wav", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	store, err := New(&config.Config{})
	require.NoError(t, err)
	assert.Nil(t, store)

	dir := t.TempDir()
	store, err = New(&config.Config{RenderDir: dir})
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, "local", store.Name())
}
