package blob

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStore counts calls and can fail uploads after n successes.
type recordingStore struct {
	mu        sync.Mutex
	uploads   []string
	deletes   []string
	failAfter int
}

func (r *recordingStore) Upload(_ context.Context, objectPath string, body io.Reader, _ int64, _ string) (models.Foto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAfter >= 0 && len(r.uploads) >= r.failAfter {
		return models.Foto{}, errors.New("network down")
	}
	_, _ = io.ReadAll(body)
	r.uploads = append(r.uploads, objectPath)
	return models.Foto{URL: "https://cdn/" + objectPath, RefPath: objectPath}, nil
}

func (r *recordingStore) DownloadURL(_ context.Context, ref models.Foto) (string, error) {
	return ref.URL, nil
}

func (r *recordingStore) Delete(_ context.Context, ref models.Foto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, ref.RefPath)
	return nil
}

func TestObjectPath(t *testing.T) {
	p := ObjectPath("u1", "o1", KindPhoto, "fachada final.jpg")
	assert.True(t, strings.HasPrefix(p, "users/u1/obras/o1/fotos/"))
	assert.True(t, strings.HasSuffix(p, "-fachada_final.jpg"))
	assert.True(t, OwnedBy(models.Foto{RefPath: p}, "u1"))
	assert.False(t, OwnedBy(models.Foto{RefPath: p}, "u2"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "proposta.pdf", SanitizeFilename(`C:\Users\rep\proposta.pdf`))
	assert.Equal(t, "arquivo", SanitizeFilename("..."))
}

func TestStaged_DiscardNeverTouchesStore(t *testing.T) {
	store := &recordingStore{failAfter: -1}
	staged := NewStaged([]models.Foto{{URL: "u", RefPath: "users/u1/a.jpg"}})

	staged.Add("nova.jpg", "image/jpeg", []byte("img"))
	staged.Remove("users/u1/a.jpg")
	staged.Discard()

	assert.Empty(t, store.uploads)
	assert.Empty(t, store.deletes)
	assert.Equal(t, 0, staged.PendingCount())
}

func TestStaged_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - persisted then uploaded, in order", func(t *testing.T) {
		store := &recordingStore{failAfter: -1}
		existing := models.Foto{URL: "https://cdn/old", RefPath: "users/u1/obras/o1/fotos/old"}
		staged := NewStaged([]models.Foto{existing})
		staged.Add("a.jpg", "image/jpeg", []byte("a"))
		staged.Add("b.jpg", "image/jpeg", []byte("b"))

		refs, err := staged.Resolve(ctx, store, func(name string) string { return "users/u1/obras/o1/fotos/" + name })
		require.NoError(t, err)
		require.Len(t, refs, 3)
		assert.Equal(t, existing, refs[0])
		assert.Equal(t, "users/u1/obras/o1/fotos/a.jpg", refs[1].RefPath)
		assert.Equal(t, "users/u1/obras/o1/fotos/b.jpg", refs[2].RefPath)
	})

	t.Run("Error - failed upload rolls back earlier uploads", func(t *testing.T) {
		store := &recordingStore{failAfter: 1}
		staged := NewStaged(nil)
		staged.Add("a.jpg", "image/jpeg", []byte("a"))
		staged.Add("b.jpg", "image/jpeg", []byte("b"))

		_, err := staged.Resolve(ctx, store, func(name string) string { return name })
		require.Error(t, err)
		assert.Equal(t, []string{"a.jpg"}, store.uploads)
		assert.Equal(t, []string{"a.jpg"}, store.deletes)
	})

	t.Run("Removing a pending file skips its upload", func(t *testing.T) {
		store := &recordingStore{failAfter: -1}
		staged := NewStaged(nil)
		p := staged.Add("a.jpg", "image/jpeg", []byte("a"))
		assert.True(t, staged.Remove(p.Preview()))
		assert.False(t, staged.Remove("unknown"))

		refs, err := staged.Resolve(ctx, store, func(name string) string { return name })
		require.NoError(t, err)
		assert.Empty(t, refs)
		assert.Empty(t, store.uploads)
	})

	t.Run("Purge deletes removed references", func(t *testing.T) {
		store := &recordingStore{failAfter: -1}
		staged := NewStaged([]models.Foto{{RefPath: "x"}, {RefPath: "y"}})
		staged.Remove("x")

		refs, err := staged.Resolve(ctx, store, func(name string) string { return name })
		require.NoError(t, err)
		assert.Equal(t, []models.Foto{{RefPath: "y"}}, refs)
		assert.Empty(t, store.deletes)

		require.NoError(t, staged.Purge(ctx, store))
		assert.Equal(t, []string{"x"}, store.deletes)
	})
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocalStore(root, "http://localhost:8080/")
	require.NoError(t, err)

	ref, err := store.Upload(ctx, "users/u1/obras/o1/fotos/x-a.jpg", strings.NewReader("conteudo"), 8, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/users/u1/obras/o1/fotos/x-a.jpg", ref.URL)

	data, err := os.ReadFile(filepath.Join(root, "users/u1/obras/o1/fotos/x-a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "conteudo", string(data))

	url, err := store.DownloadURL(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, ref.URL, url)

	require.NoError(t, store.Delete(ctx, ref))
	require.NoError(t, store.Delete(ctx, ref), "deleting twice is fine")

	_, err = os.Stat(filepath.Join(root, "users/u1/obras/o1/fotos/x-a.jpg"))
	assert.True(t, os.IsNotExist(err))
}

type fakeS3 struct {
	put    *s3.PutObjectInput
	delete *s3.DeleteObjectInput
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.delete = in
	return &s3.DeleteObjectOutput{}, nil
}

type fakePresigner struct{}

func (fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{URL: "https://signed/" + *in.Key}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	client := &fakeS3{}
	store := &S3Store{client: client, presigner: fakePresigner{}, bucket: "obramap", region: "sa-east-1"}

	ref, err := store.Upload(ctx, "users/u1/obras/o1/propostas/x-p.pdf", strings.NewReader("pdf"), 3, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://obramap.s3.sa-east-1.amazonaws.com/users/u1/obras/o1/propostas/x-p.pdf", ref.URL)
	assert.Equal(t, "obramap", *client.put.Bucket)
	assert.Equal(t, int64(3), *client.put.ContentLength)

	url, err := store.DownloadURL(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "https://signed/users/u1/obras/o1/propostas/x-p.pdf", url)

	require.NoError(t, store.Delete(ctx, ref))
	assert.Equal(t, ref.RefPath, *client.delete.Key)
}
